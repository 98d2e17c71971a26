package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreDetailSchemaRepository struct {
	client *firestore.Client
}

func NewFirestoreDetailSchemaRepository(client *firestore.Client) *FirestoreDetailSchemaRepository {
	return &FirestoreDetailSchemaRepository{client: client}
}

func (r *FirestoreDetailSchemaRepository) Get(ctx context.Context, pkgType domain.PackageType) (*domain.DetailSchema, error) {
	snap, err := r.client.Collection(detailSchemasCollection).Doc(string(pkgType)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &domain.DetailSchema{PackageType: pkgType, Categories: []domain.DetailCategory{}}, nil
		}
		return nil, domain.NewStoreError("failed to get details schema", err)
	}

	var schema domain.DetailSchema
	if err := snap.DataTo(&schema); err != nil {
		return nil, domain.NewStoreError("failed to decode details schema", err)
	}
	schema.PackageType = pkgType
	if schema.Categories == nil {
		schema.Categories = []domain.DetailCategory{}
	}
	return &schema, nil
}

func (r *FirestoreDetailSchemaRepository) Save(ctx context.Context, schema *domain.DetailSchema) error {
	schema.UpdatedAt = time.Now()
	if _, err := r.client.Collection(detailSchemasCollection).Doc(string(schema.PackageType)).Set(ctx, schema); err != nil {
		return domain.NewStoreError("failed to save details schema", err)
	}
	return nil
}
