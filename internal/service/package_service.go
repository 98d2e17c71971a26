package service

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mansoorceksport/tripdesk/internal/domain"
)

// PackageService serves the surf and snowboard catalogues
type PackageService struct {
	packages domain.PackageRepository
	members  domain.TripMemberRepository
	schemas  domain.DetailSchemaRepository
	sync     *SyncService
	retries  int
	validate *validator.Validate
}

func NewPackageService(
	packages domain.PackageRepository,
	members domain.TripMemberRepository,
	schemas domain.DetailSchemaRepository,
	sync *SyncService,
	retries int,
) *PackageService {
	if retries < 1 {
		retries = DefaultConflictRetries
	}
	return &PackageService{
		packages: packages,
		members:  members,
		schemas:  schemas,
		sync:     sync,
		retries:  retries,
		validate: newValidator(),
	}
}

// ListPackages returns the catalogue with participant counts refreshed from the ledger
func (s *PackageService) ListPackages(ctx context.Context, pkgType domain.PackageType, featuredOnly bool) ([]*domain.Package, error) {
	packages, _, err := s.sync.SyncPackages(ctx, pkgType)
	if err != nil {
		return nil, err
	}
	if !featuredOnly {
		return packages, nil
	}

	featured := make([]*domain.Package, 0, len(packages))
	for _, p := range packages {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return featured, nil
}

// SyncCatalogue runs the participant synchronizer and returns its report
func (s *PackageService) SyncCatalogue(ctx context.Context, pkgType domain.PackageType) (*SyncReport, error) {
	_, report, err := s.sync.SyncPackages(ctx, pkgType)
	return report, err
}

func (s *PackageService) GetPackage(ctx context.Context, pkgType domain.PackageType, id string) (*domain.Package, error) {
	return s.packages.GetByID(ctx, pkgType, id)
}

// CreatePackage assigns the next numeric id and initialises details from the schema
func (s *PackageService) CreatePackage(ctx context.Context, pkgType domain.PackageType, in domain.PackageInput) (*domain.Package, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pkg := &domain.Package{CreatedAt: now, UpdatedAt: now}
	in.Apply(pkg)

	schema, err := s.schemas.Get(ctx, pkgType)
	if err != nil {
		return nil, err
	}
	schema.InitDetails(pkg)

	if err := s.packages.Create(ctx, pkgType, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// UpdatePackage overwrites the editable fields; date ranges are left untouched
func (s *PackageService) UpdatePackage(ctx context.Context, pkgType domain.PackageType, id string, in domain.PackageInput) (*domain.Package, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	schema, err := s.schemas.Get(ctx, pkgType)
	if err != nil {
		return nil, err
	}

	return updatePackage(ctx, s.packages, s.retries, pkgType, id, func(pkg *domain.Package) error {
		in.Apply(pkg)
		schema.InitDetails(pkg)
		pkg.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// DeletePackage removes the document. Trip members are not cascaded.
func (s *PackageService) DeletePackage(ctx context.Context, pkgType domain.PackageType, id string) error {
	orphans, countErr := s.members.CountByPackage(ctx, pkgType, id)

	if err := s.packages.Delete(ctx, pkgType, id); err != nil {
		return err
	}

	if countErr != nil {
		log.Printf("Warning: could not count members of deleted %s package %s: %v", pkgType, id, countErr)
	} else if orphans > 0 {
		log.Printf("Warning: deleted %s package %s still has %d members", pkgType, id, orphans)
	}
	return nil
}
