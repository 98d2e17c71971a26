package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const createIDAttempts = 5

// MongoPackageRepository stores each catalogue in its own collection
// (surfPackages, snowboardPackages) with numeric string ids.
type MongoPackageRepository struct {
	db *mongo.Database
}

func NewMongoPackageRepository(db *mongo.Database) *MongoPackageRepository {
	return &MongoPackageRepository{db: db}
}

func (r *MongoPackageRepository) collection(pkgType domain.PackageType) *mongo.Collection {
	return r.db.Collection(pkgType.Collection())
}

func (r *MongoPackageRepository) List(ctx context.Context, pkgType domain.PackageType) ([]*domain.Package, error) {
	cursor, err := r.collection(pkgType).Find(ctx, bson.M{})
	if err != nil {
		return nil, domain.NewStoreError("failed to list packages", err)
	}
	defer cursor.Close(ctx)

	packages := []*domain.Package{}
	if err := cursor.All(ctx, &packages); err != nil {
		return nil, domain.NewStoreError("failed to decode packages", err)
	}
	for _, p := range packages {
		p.Normalize()
	}
	domain.SortPackages(packages)
	return packages, nil
}

func (r *MongoPackageRepository) GetByID(ctx context.Context, pkgType domain.PackageType, id string) (*domain.Package, error) {
	var pkg domain.Package
	err := r.collection(pkgType).FindOne(ctx, bson.M{"_id": id}).Decode(&pkg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPackageNotFound
		}
		return nil, domain.NewStoreError("failed to get package", err)
	}
	pkg.Normalize()
	return &pkg, nil
}

// Create assigns max(id)+1. A concurrent create that grabbed the same id
// surfaces as a duplicate key, in which case the id is recomputed.
func (r *MongoPackageRepository) Create(ctx context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
	now := time.Now()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now
	pkg.Version = 1
	pkg.Normalize()

	for attempt := 0; attempt < createIDAttempts; attempt++ {
		existing, err := r.List(ctx, pkgType)
		if err != nil {
			return err
		}
		pkg.ID = domain.NextPackageID(existing)

		_, err = r.collection(pkgType).InsertOne(ctx, pkg)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return domain.NewStoreError("failed to create package", err)
		}
	}
	return domain.NewStoreError("failed to create package", fmt.Errorf("could not allocate a package id after %d attempts", createIDAttempts))
}

// Save replaces the whole document when the stored version matches pkg.Version.
func (r *MongoPackageRepository) Save(ctx context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
	expected := pkg.Version
	next := pkg.Clone()
	next.Version = expected + 1
	next.UpdatedAt = time.Now()
	next.Normalize()

	filter := bson.M{"_id": pkg.ID, "version": expected}
	if expected == 0 {
		// documents written before versioning have no version field
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
	}

	result, err := r.collection(pkgType).ReplaceOne(ctx, filter, next)
	if err != nil {
		return domain.NewStoreError("failed to save package", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection(pkgType).CountDocuments(ctx, bson.M{"_id": pkg.ID})
		if err != nil {
			return domain.NewStoreError("failed to save package", err)
		}
		if count == 0 {
			return domain.ErrPackageNotFound
		}
		return domain.ErrVersionConflict
	}

	pkg.Version = next.Version
	pkg.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *MongoPackageRepository) Delete(ctx context.Context, pkgType domain.PackageType, id string) error {
	result, err := r.collection(pkgType).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.NewStoreError("failed to delete package", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}
