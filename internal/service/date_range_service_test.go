package service

import (
	"context"
	"testing"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func maxOf(n int) domain.OptionalInt {
	return domain.OptionalInt{Set: true, Value: domain.IntPtr(n)}
}

func setupDateRanges(t *testing.T) (*DateRangeService, *memPackages, *memMembers) {
	t.Helper()
	packages := newMemPackages()
	members := newMemMembers()
	packages.put(domain.PackageTypeSurf, &domain.Package{ID: "1", Name: "Bali Surf Week"})
	return NewDateRangeService(packages, members, 3), packages, members
}

func TestAddDateRange_NewPackageHasNoDates(t *testing.T) {
	_, packages, _ := setupDateRanges(t)

	pkg := packages.stored(domain.PackageTypeSurf, "1")
	require.NotNil(t, pkg.DateRanges)
	assert.Empty(t, pkg.DateRanges)
}

func TestAddDateRange_AssignsIDAndZeroCount(t *testing.T) {
	svc, packages, _ := setupDateRanges(t)

	pkg, dr, err := svc.AddDateRange(context.Background(), domain.PackageTypeSurf, "1", domain.DateRangeInput{
		StartDate:       strPtr("2024-06-01"),
		EndDate:         strPtr("2024-06-10"),
		MaxParticipants: maxOf(10),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, dr.ID)
	assert.Equal(t, 0, dr.CurrentParticipants)
	assert.True(t, dr.Available)
	require.NotNil(t, dr.MaxParticipants)
	assert.Equal(t, 10, *dr.MaxParticipants)

	require.Len(t, pkg.DateRanges, 1)
	stored := packages.stored(domain.PackageTypeSurf, "1")
	require.Len(t, stored.DateRanges, 1)
	assert.Equal(t, dr.ID, stored.DateRanges[0].ID)
	assert.Equal(t, int64(2), stored.Version)
}

func TestAddDateRange_UniqueIDs(t *testing.T) {
	svc, _, _ := setupDateRanges(t)
	ctx := context.Background()

	in := domain.DateRangeInput{StartDate: strPtr("2024-06-01"), EndDate: strPtr("2024-06-10")}
	_, a, err := svc.AddDateRange(ctx, domain.PackageTypeSurf, "1", in)
	require.NoError(t, err)
	_, b, err := svc.AddDateRange(ctx, domain.PackageTypeSurf, "1", in)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestAddDateRange_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    domain.DateRangeInput
		field string
	}{
		{"missing start", domain.DateRangeInput{EndDate: strPtr("2024-06-10")}, "startDate"},
		{"missing end", domain.DateRangeInput{StartDate: strPtr("2024-06-01")}, "endDate"},
		{"equal dates", domain.DateRangeInput{StartDate: strPtr("2024-06-01"), EndDate: strPtr("2024-06-01")}, "endDate"},
		{"reversed", domain.DateRangeInput{StartDate: strPtr("2024-06-10"), EndDate: strPtr("2024-06-01")}, "endDate"},
		{"bad format", domain.DateRangeInput{StartDate: strPtr("June 1st"), EndDate: strPtr("2024-06-10")}, "startDate"},
		{"zero capacity", domain.DateRangeInput{StartDate: strPtr("2024-06-01"), EndDate: strPtr("2024-06-10"), MaxParticipants: maxOf(0)}, "maxParticipants"},
		{"negative capacity", domain.DateRangeInput{StartDate: strPtr("2024-06-01"), EndDate: strPtr("2024-06-10"), MaxParticipants: maxOf(-3)}, "maxParticipants"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, packages, _ := setupDateRanges(t)

			_, _, err := svc.AddDateRange(context.Background(), domain.PackageTypeSurf, "1", tt.in)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, packages.stored(domain.PackageTypeSurf, "1").DateRanges)
		})
	}
}

func TestAddDateRange_UnknownPackage(t *testing.T) {
	svc, _, _ := setupDateRanges(t)

	_, _, err := svc.AddDateRange(context.Background(), domain.PackageTypeSurf, "99", domain.DateRangeInput{
		StartDate: strPtr("2024-06-01"),
		EndDate:   strPtr("2024-06-10"),
	})
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestUpdateDateRange_ReversedDatesLeaveStateUnchanged(t *testing.T) {
	svc, packages, _ := setupDateRanges(t)
	ctx := context.Background()

	_, dr, err := svc.AddDateRange(ctx, domain.PackageTypeSurf, "1", domain.DateRangeInput{
		StartDate:       strPtr("2024-06-01"),
		EndDate:         strPtr("2024-06-10"),
		MaxParticipants: maxOf(10),
	})
	require.NoError(t, err)
	before := packages.stored(domain.PackageTypeSurf, "1")

	_, _, err = svc.UpdateDateRange(ctx, domain.PackageTypeSurf, "1", dr.ID, domain.DateRangeInput{
		StartDate: strPtr("2024-06-10"),
		EndDate:   strPtr("2024-06-01"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, before, packages.stored(domain.PackageTypeSurf, "1"))
}

func TestUpdateDateRange_PartialMergeKeepsIDAndCount(t *testing.T) {
	svc, packages, _ := setupDateRanges(t)
	ctx := context.Background()

	packages.put(domain.PackageTypeSurf, &domain.Package{
		ID:   "2",
		Name: "Mentawai",
		DateRanges: []domain.DateRange{{
			ID: "dr-1", StartDate: "2024-06-01", EndDate: "2024-06-10",
			Available: true, MaxParticipants: domain.IntPtr(10), CurrentParticipants: 4,
		}},
	})

	_, updated, err := svc.UpdateDateRange(ctx, domain.PackageTypeSurf, "2", "dr-1", domain.DateRangeInput{
		EndDate:         strPtr("2024-06-12"),
		Available:       boolPtr(false),
		MaxParticipants: domain.OptionalInt{Set: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "dr-1", updated.ID)
	assert.Equal(t, "2024-06-01", updated.StartDate)
	assert.Equal(t, "2024-06-12", updated.EndDate)
	assert.False(t, updated.Available)
	assert.Nil(t, updated.MaxParticipants)
	assert.Equal(t, 4, updated.CurrentParticipants)

	stored := packages.stored(domain.PackageTypeSurf, "2")
	assert.Equal(t, *updated, stored.DateRanges[0])
}

func TestUpdateAndDeleteDateRange_MissingIDIsNotFound(t *testing.T) {
	svc, _, _ := setupDateRanges(t)
	ctx := context.Background()

	_, _, err := svc.UpdateDateRange(ctx, domain.PackageTypeSurf, "1", "nope", domain.DateRangeInput{Notes: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrDateRangeNotFound)

	_, err = svc.DeleteDateRange(ctx, domain.PackageTypeSurf, "1", "nope")
	assert.ErrorIs(t, err, domain.ErrDateRangeNotFound)
}

func TestDeleteDateRange_LeavesMembersInLedger(t *testing.T) {
	svc, packages, members := setupDateRanges(t)
	ctx := context.Background()

	_, dr, err := svc.AddDateRange(ctx, domain.PackageTypeSurf, "1", domain.DateRangeInput{
		StartDate: strPtr("2024-06-01"),
		EndDate:   strPtr("2024-06-10"),
	})
	require.NoError(t, err)
	members.insert(domain.TripMember{Name: "Ana", PackageID: "1", PackageType: domain.PackageTypeSurf, DateRangeID: dr.ID})

	pkg, err := svc.DeleteDateRange(ctx, domain.PackageTypeSurf, "1", dr.ID)
	require.NoError(t, err)

	assert.Empty(t, pkg.DateRanges)
	assert.Empty(t, packages.stored(domain.PackageTypeSurf, "1").DateRanges)
	assert.Equal(t, 1, members.count())
}

func TestDateRangeMutation_RetriesOnVersionConflict(t *testing.T) {
	svc, packages, _ := setupDateRanges(t)
	packages.conflicts = 2

	_, dr, err := svc.AddDateRange(context.Background(), domain.PackageTypeSurf, "1", domain.DateRangeInput{
		StartDate: strPtr("2024-06-01"),
		EndDate:   strPtr("2024-06-10"),
	})
	require.NoError(t, err)

	stored := packages.stored(domain.PackageTypeSurf, "1")
	require.Len(t, stored.DateRanges, 1)
	assert.Equal(t, dr.ID, stored.DateRanges[0].ID)
}

func TestDateRangeMutation_GivesUpAfterRetries(t *testing.T) {
	svc, packages, _ := setupDateRanges(t)
	packages.conflicts = 3

	_, _, err := svc.AddDateRange(context.Background(), domain.PackageTypeSurf, "1", domain.DateRangeInput{
		StartDate: strPtr("2024-06-01"),
		EndDate:   strPtr("2024-06-10"),
	})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Empty(t, packages.stored(domain.PackageTypeSurf, "1").DateRanges)
}
