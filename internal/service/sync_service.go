package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// SyncReport summarises one synchronisation pass over a catalogue
type SyncReport struct {
	PackageType  domain.PackageType `json:"packageType"`
	Packages     int                `json:"packages"`
	DateRanges   int                `json:"dateRanges"`
	Updated      int                `json:"updated"`
	FailedRanges int                `json:"failedRanges"`
	FailedSaves  int                `json:"failedSaves"`
	Conflicts    int                `json:"conflicts"`
}

// ParticipantSyncer refreshes the cached headcount of a single date range
type ParticipantSyncer interface {
	SyncDateRange(ctx context.Context, pkgType domain.PackageType, packageID, dateRangeID string) error
}

// SyncService recomputes DateRange.CurrentParticipants from the trip member ledger.
// The ledger is authoritative; the cached counts on package documents only
// follow it.
type SyncService struct {
	packages    domain.PackageRepository
	members     domain.TripMemberRepository
	concurrency int
	retries     int
}

func NewSyncService(packages domain.PackageRepository, members domain.TripMemberRepository, concurrency, retries int) *SyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	if retries < 1 {
		retries = DefaultConflictRetries
	}
	return &SyncService{
		packages:    packages,
		members:     members,
		concurrency: concurrency,
		retries:     retries,
	}
}

// SyncPackages lists every package of the catalogue with participant counts
// recomputed from the ledger. Changed packages are written back; a date range
// whose count cannot be read keeps its stored value and does not fail the call.
func (s *SyncService) SyncPackages(ctx context.Context, pkgType domain.PackageType) ([]*domain.Package, *SyncReport, error) {
	ctx, span := tracer.Start(ctx, "SyncService.SyncPackages",
		trace.WithAttributes(attribute.String("package.type", string(pkgType))),
	)
	defer span.End()

	stored, err := s.packages.List(ctx, pkgType)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	report := &SyncReport{PackageType: pkgType, Packages: len(stored)}
	result := make([]*domain.Package, len(stored))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, original := range stored {
		pkg := original.Clone()
		result[i] = pkg

		g.Go(func() error {
			counted, failed, changed := s.recount(ctx, pkg)

			var conflict, saveFailed bool
			if changed {
				// Save bumps Version on pkg, which keeps the returned copy consistent
				if err := s.packages.Save(ctx, pkgType, pkg); err != nil {
					if errors.Is(err, domain.ErrVersionConflict) {
						conflict = true
						log.Printf("Warning: participant sync skipped %s package %s: %v", pkgType, pkg.ID, err)
					} else {
						saveFailed = true
						log.Printf("Warning: failed to persist participant counts for %s package %s: %v", pkgType, pkg.ID, err)
					}
				}
			}

			mu.Lock()
			defer mu.Unlock()
			report.DateRanges += counted + failed
			report.FailedRanges += failed
			switch {
			case conflict:
				report.Conflicts++
			case saveFailed:
				report.FailedSaves++
			case changed:
				report.Updated++
			}
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("sync.packages", report.Packages),
		attribute.Int("sync.updated", report.Updated),
		attribute.Int("sync.failed_ranges", report.FailedRanges),
	)
	if report.Updated > 0 {
		syncUpdateCounter.Add(ctx, int64(report.Updated),
			metric.WithAttributes(attribute.String("package.type", string(pkgType))))
	}
	return result, report, nil
}

// recount overwrites CurrentParticipants on pkg in place
func (s *SyncService) recount(ctx context.Context, pkg *domain.Package) (counted, failed int, changed bool) {
	for i := range pkg.DateRanges {
		dr := &pkg.DateRanges[i]
		n, err := s.members.CountByDateRange(ctx, pkg.ID, dr.ID)
		if err != nil {
			failed++
			syncFailureCounter.Add(ctx, 1)
			log.Printf("Warning: failed to count members for package %s date range %s: %v", pkg.ID, dr.ID, err)
			continue
		}
		counted++
		if dr.CurrentParticipants != n {
			dr.CurrentParticipants = n
			changed = true
		}
	}
	return counted, failed, changed
}

// SyncDateRange refreshes the headcount of one date range and persists it,
// retrying when the package document was concurrently modified.
func (s *SyncService) SyncDateRange(ctx context.Context, pkgType domain.PackageType, packageID, dateRangeID string) error {
	ctx, span := tracer.Start(ctx, "SyncService.SyncDateRange",
		trace.WithAttributes(
			attribute.String("package.type", string(pkgType)),
			attribute.String("package.id", packageID),
			attribute.String("date_range.id", dateRangeID),
		),
	)
	defer span.End()

	var unchanged bool
	_, err := updatePackage(ctx, s.packages, s.retries, pkgType, packageID, func(pkg *domain.Package) error {
		dr := pkg.DateRange(dateRangeID)
		if dr == nil {
			return domain.ErrDateRangeNotFound
		}
		n, err := s.members.CountByDateRange(ctx, packageID, dateRangeID)
		if err != nil {
			return err
		}
		if dr.CurrentParticipants == n {
			unchanged = true
			return errUnchanged
		}
		unchanged = false
		dr.CurrentParticipants = n
		return nil
	})
	if unchanged && errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		span.RecordError(err)
		syncFailureCounter.Add(ctx, 1)
	}
	return err
}

// errUnchanged short-circuits updatePackage when there is nothing to write
var errUnchanged = errors.New("participant count unchanged")
