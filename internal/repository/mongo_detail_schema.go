package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const detailSchemasCollection = "packageDetailSchemas"

type MongoDetailSchemaRepository struct {
	collection *mongo.Collection
}

func NewMongoDetailSchemaRepository(db *mongo.Database) *MongoDetailSchemaRepository {
	return &MongoDetailSchemaRepository{
		collection: db.Collection(detailSchemasCollection),
	}
}

func (r *MongoDetailSchemaRepository) Get(ctx context.Context, pkgType domain.PackageType) (*domain.DetailSchema, error) {
	var schema domain.DetailSchema
	err := r.collection.FindOne(ctx, bson.M{"_id": pkgType}).Decode(&schema)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &domain.DetailSchema{PackageType: pkgType, Categories: []domain.DetailCategory{}}, nil
		}
		return nil, domain.NewStoreError("failed to get details schema", err)
	}
	if schema.Categories == nil {
		schema.Categories = []domain.DetailCategory{}
	}
	return &schema, nil
}

func (r *MongoDetailSchemaRepository) Save(ctx context.Context, schema *domain.DetailSchema) error {
	schema.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": schema.PackageType},
		schema,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return domain.NewStoreError("failed to save details schema", err)
	}
	return nil
}
