package model

import "time"

type Book struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title     string    `json:"title" bson:"title" validate:"required,min=1,max=300"`
	Author    string    `json:"author" bson:"author" validate:"omitempty,max=200"`
	Category  string    `json:"category" bson:"category" validate:"required,min=1,max=100"`
	Copies    int       `json:"copies" bson:"copies" validate:"min=0"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at" validate:"omitempty"`
}
