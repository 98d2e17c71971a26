package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestorePackageRepository keeps packages in the same collections the
// marketing site reads (surfPackages / snowboardPackages), keyed by numeric id.
type FirestorePackageRepository struct {
	client *firestore.Client
}

func NewFirestorePackageRepository(client *firestore.Client) *FirestorePackageRepository {
	return &FirestorePackageRepository{client: client}
}

func (r *FirestorePackageRepository) doc(pkgType domain.PackageType, id string) *firestore.DocumentRef {
	return r.client.Collection(pkgType.Collection()).Doc(id)
}

func (r *FirestorePackageRepository) List(ctx context.Context, pkgType domain.PackageType) ([]*domain.Package, error) {
	snaps, err := r.client.Collection(pkgType.Collection()).Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.NewStoreError("failed to list packages", err)
	}

	packages := make([]*domain.Package, 0, len(snaps))
	for _, snap := range snaps {
		pkg, err := decodePackage(snap)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	domain.SortPackages(packages)
	return packages, nil
}

func (r *FirestorePackageRepository) GetByID(ctx context.Context, pkgType domain.PackageType, id string) (*domain.Package, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	snap, err := r.doc(pkgType, id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrPackageNotFound
		}
		return nil, domain.NewStoreError("failed to get package", err)
	}
	return decodePackage(snap)
}

// Create assigns max(id)+1 and relies on Create's must-not-exist precondition
// to detect a concurrent create that picked the same id.
func (r *FirestorePackageRepository) Create(ctx context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
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

		_, err = r.doc(pkgType, pkg.ID).Create(ctx, pkg)
		if err == nil {
			return nil
		}
		if status.Code(err) != codes.AlreadyExists {
			return domain.NewStoreError("failed to create package", err)
		}
	}
	return domain.NewStoreError("failed to create package", fmt.Errorf("could not allocate a package id after %d attempts", createIDAttempts))
}

// Save overwrites the document inside a transaction that checks the stored version.
func (r *FirestorePackageRepository) Save(ctx context.Context, pkgType domain.PackageType, pkg *domain.Package) error {
	ref := r.doc(pkgType, pkg.ID)
	next := pkg.Clone()
	next.Version = pkg.Version + 1
	next.UpdatedAt = time.Now()
	next.Normalize()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.ErrPackageNotFound
			}
			return err
		}
		var stored struct {
			Version int64 `firestore:"version"`
		}
		if err := snap.DataTo(&stored); err != nil {
			return err
		}
		if stored.Version != pkg.Version {
			return domain.ErrVersionConflict
		}
		return tx.Set(ref, next)
	})
	if err != nil {
		if errors.Is(err, domain.ErrPackageNotFound) || errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		return domain.NewStoreError("failed to save package", err)
	}

	pkg.Version = next.Version
	pkg.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *FirestorePackageRepository) Delete(ctx context.Context, pkgType domain.PackageType, id string) error {
	_, err := r.doc(pkgType, id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrPackageNotFound
		}
		return domain.NewStoreError("failed to delete package", err)
	}
	return nil
}

func decodePackage(snap *firestore.DocumentSnapshot) (*domain.Package, error) {
	var pkg domain.Package
	if err := snap.DataTo(&pkg); err != nil {
		return nil, domain.NewStoreError("failed to decode package "+snap.Ref.ID, err)
	}
	pkg.ID = snap.Ref.ID
	pkg.Normalize()
	return &pkg, nil
}
