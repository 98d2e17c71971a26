package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultEnrollLockTTL is how long an enrollment lock is held at most
const DefaultEnrollLockTTL = 10 * time.Second

// LedgerService manages enrollment records for package date ranges
type LedgerService struct {
	packages domain.PackageRepository
	members  domain.TripMemberRepository
	syncer   ParticipantSyncer
	locker   domain.Locker // nil disables cross-instance locking
	lockTTL  time.Duration
	validate *validator.Validate
	now      func() time.Time
}

func NewLedgerService(
	packages domain.PackageRepository,
	members domain.TripMemberRepository,
	syncer ParticipantSyncer,
	locker domain.Locker,
	lockTTL time.Duration,
) *LedgerService {
	if lockTTL <= 0 {
		lockTTL = DefaultEnrollLockTTL
	}
	return &LedgerService{
		packages: packages,
		members:  members,
		syncer:   syncer,
		locker:   locker,
		lockTTL:  lockTTL,
		validate: newValidator(),
		now:      time.Now,
	}
}

// GetMembersByDateRange returns the enrolled members, newest registration first
func (s *LedgerService) GetMembersByDateRange(ctx context.Context, packageID, dateRangeID string) ([]*domain.TripMember, error) {
	members, err := s.members.ListByDateRange(ctx, packageID, dateRangeID)
	if err != nil {
		return nil, err
	}
	domain.SortMembersNewestFirst(members)
	return members, nil
}

// GetMemberStats aggregates headcount and payments for one date range
func (s *LedgerService) GetMemberStats(ctx context.Context, packageID, dateRangeID string) (domain.MemberStats, error) {
	members, err := s.members.ListByDateRange(ctx, packageID, dateRangeID)
	if err != nil {
		return domain.MemberStats{}, err
	}
	return domain.ComputeMemberStats(members), nil
}

// AddMember enrolls a member into a date range. The capacity check and the
// insert run under a per-range lock so concurrent enrollments cannot overbook.
func (s *LedgerService) AddMember(ctx context.Context, in domain.MemberInput) (*domain.TripMember, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.AddMember",
		trace.WithAttributes(
			attribute.String("package.id", in.PackageID),
			attribute.String("date_range.id", in.DateRangeID),
		),
	)
	defer span.End()

	// 1. Validate input
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	pkgType, err := domain.ParsePackageType(string(in.PackageType))
	if err != nil {
		return nil, err
	}
	packageID := strings.TrimSpace(in.PackageID)
	dateRangeID := strings.TrimSpace(in.DateRangeID)
	if packageID == "" {
		return nil, domain.NewValidationError("packageId", "is required")
	}
	if dateRangeID == "" {
		return nil, domain.NewValidationError("dateRangeId", "is required")
	}

	// 2. Serialise enrollments for this date range
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, domain.EnrollmentLockKey(packageID, dateRangeID), s.lockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	// 3. Resolve the date range and check capacity against the ledger
	pkg, err := s.packages.GetByID(ctx, pkgType, packageID)
	if err != nil {
		return nil, err
	}
	dr := pkg.DateRange(dateRangeID)
	if dr == nil {
		return nil, domain.ErrDateRangeNotFound
	}

	headcount, err := s.members.CountByDateRange(ctx, packageID, dateRangeID)
	if err != nil {
		return nil, err
	}
	if !dr.HasRoomFor(headcount) {
		capacityRejectCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("package.type", string(pkgType))))
		return nil, &domain.CapacityExceededError{
			DateRangeID: dateRangeID,
			Max:         *dr.MaxParticipants,
			Current:     headcount,
		}
	}

	// 4. Insert with a snapshot of the package and range
	now := s.now().UTC()
	member := &domain.TripMember{
		PackageID:        packageID,
		PackageName:      pkg.Name,
		PackageType:      pkgType,
		DateRangeID:      dateRangeID,
		StartDate:        dr.StartDate,
		EndDate:          dr.EndDate,
		RegistrationDate: now,
		UpdatedAt:        now,
	}
	in.Apply(member)

	if err := s.members.Create(ctx, member); err != nil {
		span.RecordError(err)
		return nil, err
	}
	enrollmentCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("package.type", string(pkgType))))

	// 5. Refresh the cached headcount
	s.refresh(ctx, pkgType, packageID, dateRangeID)
	return member, nil
}

// UpdateMember edits contact and payment fields. Enrollment keys are immutable.
func (s *LedgerService) UpdateMember(ctx context.Context, id string, in domain.MemberInput) (*domain.TripMember, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Apply(member)
	member.UpdatedAt = s.now().UTC()
	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}

	s.refresh(ctx, member.PackageType, member.PackageID, member.DateRangeID)
	return member, nil
}

// DeleteMember removes an enrollment and refreshes the headcount of its range
func (s *LedgerService) DeleteMember(ctx context.Context, id string) error {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.members.Delete(ctx, id); err != nil {
		return err
	}

	s.refresh(ctx, member.PackageType, member.PackageID, member.DateRangeID)
	return nil
}

// refresh is best effort: the ledger write already succeeded and the next
// catalogue sync corrects any count left stale here.
func (s *LedgerService) refresh(ctx context.Context, pkgType domain.PackageType, packageID, dateRangeID string) {
	if s.syncer == nil {
		return
	}
	err := s.syncer.SyncDateRange(ctx, pkgType, packageID, dateRangeID)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		log.Printf("Warning: participant count not refreshed, %s package %s date range %s no longer exists", pkgType, packageID, dateRangeID)
		return
	}
	log.Printf("Warning: failed to refresh participant count for %s package %s date range %s: %v", pkgType, packageID, dateRangeID, err)
}
