package service

import (
	"context"
	"log"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DateRangeService manages the date ranges embedded in package documents
type DateRangeService struct {
	packages domain.PackageRepository
	members  domain.TripMemberRepository
	retries  int
	newID    func() string
}

func NewDateRangeService(packages domain.PackageRepository, members domain.TripMemberRepository, retries int) *DateRangeService {
	if retries < 1 {
		retries = DefaultConflictRetries
	}
	return &DateRangeService{
		packages: packages,
		members:  members,
		retries:  retries,
		newID:    func() string { return ulid.Make().String() },
	}
}

// AddDateRange appends a validated date range and returns the updated package
func (s *DateRangeService) AddDateRange(ctx context.Context, pkgType domain.PackageType, packageID string, in domain.DateRangeInput) (*domain.Package, *domain.DateRange, error) {
	ctx, span := tracer.Start(ctx, "DateRangeService.AddDateRange",
		trace.WithAttributes(attribute.String("package.id", packageID)),
	)
	defer span.End()

	dr := domain.DateRange{Available: true}
	if err := in.Apply(&dr); err != nil {
		return nil, nil, err
	}

	var added domain.DateRange
	pkg, err := updatePackage(ctx, s.packages, s.retries, pkgType, packageID, func(pkg *domain.Package) error {
		added = dr
		added.ID = s.newID()
		for pkg.FindDateRange(added.ID) >= 0 {
			added.ID = s.newID()
		}
		added.CurrentParticipants = 0
		pkg.DateRanges = append(pkg.DateRanges, added)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	return pkg, &added, nil
}

// UpdateDateRange merges the provided fields into an existing range.
// The id and the participant count are never taken from input.
func (s *DateRangeService) UpdateDateRange(ctx context.Context, pkgType domain.PackageType, packageID, dateRangeID string, in domain.DateRangeInput) (*domain.Package, *domain.DateRange, error) {
	ctx, span := tracer.Start(ctx, "DateRangeService.UpdateDateRange",
		trace.WithAttributes(
			attribute.String("package.id", packageID),
			attribute.String("date_range.id", dateRangeID),
		),
	)
	defer span.End()

	var updated domain.DateRange
	pkg, err := updatePackage(ctx, s.packages, s.retries, pkgType, packageID, func(pkg *domain.Package) error {
		idx := pkg.FindDateRange(dateRangeID)
		if idx < 0 {
			return domain.ErrDateRangeNotFound
		}
		merged := pkg.DateRanges[idx]
		if err := in.Apply(&merged); err != nil {
			return err
		}
		pkg.DateRanges[idx] = merged
		updated = merged
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	return pkg, &updated, nil
}

// DeleteDateRange removes a range. Members enrolled in it are left in the
// ledger; their number is logged.
func (s *DateRangeService) DeleteDateRange(ctx context.Context, pkgType domain.PackageType, packageID, dateRangeID string) (*domain.Package, error) {
	ctx, span := tracer.Start(ctx, "DateRangeService.DeleteDateRange",
		trace.WithAttributes(
			attribute.String("package.id", packageID),
			attribute.String("date_range.id", dateRangeID),
		),
	)
	defer span.End()

	pkg, err := updatePackage(ctx, s.packages, s.retries, pkgType, packageID, func(pkg *domain.Package) error {
		idx := pkg.FindDateRange(dateRangeID)
		if idx < 0 {
			return domain.ErrDateRangeNotFound
		}
		pkg.DateRanges = append(pkg.DateRanges[:idx], pkg.DateRanges[idx+1:]...)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.members != nil {
		orphans, err := s.members.CountByDateRange(ctx, packageID, dateRangeID)
		if err != nil {
			log.Printf("Warning: could not count members of deleted date range %s: %v", dateRangeID, err)
		} else if orphans > 0 {
			log.Printf("Warning: deleted date range %s of %s package %s still has %d members", dateRangeID, pkgType, packageID, orphans)
		}
	}
	return pkg, nil
}
