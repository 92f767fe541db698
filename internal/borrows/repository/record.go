package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	borrowerrors "autolibrarian/internal/borrows/errors"
	"autolibrarian/pkg/config"
	mongotx "autolibrarian/pkg/db/mongo"
	"autolibrarian/pkg/model"
)

const BorrowedBooksCollection = "borrowedBooks"

type mongoBorrowRecordRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BorrowRecordRepository interface {
	Create(ctx context.Context, record *model.BorrowRecord) error
	FindByID(ctx context.Context, id string) (*model.BorrowRecord, error)
	FindByEmail(ctx context.Context, email string) ([]*model.BorrowRecord, error)
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBorrowRecordRepository(cfg *config.Config) BorrowRecordRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBorrowRecordRepository{
		cfg:        cfg,
		collection: db.Collection(BorrowedBooksCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBorrowRecordRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	if remaining := time.Until(deadline); remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBorrowRecordRepository) Create(ctx context.Context, record *model.BorrowRecord) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create borrow record: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}

	return nil
}

func (r *mongoBorrowRecordRepository) FindByID(ctx context.Context, id string) (*model.BorrowRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", borrowerrors.ErrInvalidID, id)
	}

	var record model.BorrowRecord
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", borrowerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find borrow record: %w", err)
	}
	return &record, nil
}

// FindByEmail lists a borrower's records in insertion order. ObjectIDs embed
// a creation timestamp, so _id ascending is insertion order.
func (r *mongoBorrowRecordRepository) FindByEmail(ctx context.Context, email string) ([]*model.BorrowRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query borrow records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.BorrowRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode borrow records: %w", err)
	}

	return records, nil
}

func (r *mongoBorrowRecordRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", borrowerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete borrow record: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", borrowerrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoBorrowRecordRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
