package service

import (
	"context"
	"errors"
	"log"

	"github.com/mansoorceksport/tripdesk/internal/domain"
)

// DefaultConflictRetries bounds read-modify-write attempts on a package document
const DefaultConflictRetries = 3

// updatePackage runs a read-modify-write cycle on one package document.
// fn mutates a private copy; on a version conflict the document is re-read
// and fn runs again, up to `retries` times.
func updatePackage(
	ctx context.Context,
	repo domain.PackageRepository,
	retries int,
	pkgType domain.PackageType,
	id string,
	fn func(pkg *domain.Package) error,
) (*domain.Package, error) {
	if retries < 1 {
		retries = 1
	}

	for attempt := 1; attempt <= retries; attempt++ {
		stored, err := repo.GetByID(ctx, pkgType, id)
		if err != nil {
			return nil, err
		}

		pkg := stored.Clone()
		if err := fn(pkg); err != nil {
			return nil, err
		}

		err = repo.Save(ctx, pkgType, pkg)
		if errors.Is(err, domain.ErrVersionConflict) {
			log.Printf("Warning: version conflict on %s package %s (attempt %d/%d)", pkgType, id, attempt, retries)
			continue
		}
		if err != nil {
			return nil, err
		}
		return pkg, nil
	}

	return nil, domain.ErrVersionConflict
}
