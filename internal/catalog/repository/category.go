package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"autolibrarian/pkg/config"
	"autolibrarian/pkg/model"
)

const CategoriesCollection = "bookCategories"

type mongoCategoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type CategoryRepository interface {
	FindAll(ctx context.Context) ([]*model.Category, error)
}

func NewMongoCategoryRepository(cfg *config.Config) CategoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCategoryRepository{
		cfg:        cfg,
		collection: db.Collection(CategoriesCollection),
	}
}

func (r *mongoCategoryRepository) FindAll(ctx context.Context) ([]*model.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer cursor.Close(ctx)

	var categories []*model.Category
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	return categories, nil
}
