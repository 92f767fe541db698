package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultKafkaTopic    = "library.loan-events"
	DefaultKafkaDLQTopic = ""

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false
)
