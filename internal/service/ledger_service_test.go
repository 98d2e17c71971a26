package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	ledger   *LedgerService
	packages *memPackages
	members  *memMembers
}

func setupLedger(t *testing.T, maxParticipants *int) ledgerFixture {
	t.Helper()
	packages := newMemPackages()
	members := newMemMembers()
	packages.put(domain.PackageTypeSurf, &domain.Package{
		ID:   "1",
		Name: "Bali Surf Week",
		DateRanges: []domain.DateRange{{
			ID: "dr-1", StartDate: "2024-06-01", EndDate: "2024-06-10",
			Available: true, MaxParticipants: maxParticipants,
		}},
	})

	syncer := NewSyncService(packages, members, 2, 3)
	ledger := NewLedgerService(packages, members, syncer, newMutexLocker(), time.Second)
	return ledgerFixture{ledger: ledger, packages: packages, members: members}
}

func enrollment(name string, total, paid interface{}) domain.MemberInput {
	return domain.MemberInput{
		Name:        name,
		Phone:       "+62 812 0000",
		PackageID:   "1",
		PackageType: domain.PackageTypeSurf,
		DateRangeID: "dr-1",
		TotalAmount: domain.MoneyPtr(domain.ParseMoney(total)),
		AmountPaid:  domain.MoneyPtr(domain.ParseMoney(paid)),
	}
}

func TestAddMember_SnapshotsPackageAndRefreshesCount(t *testing.T) {
	f := setupLedger(t, nil)

	member, err := f.ledger.AddMember(context.Background(), enrollment("Ana", 500, 0))
	require.NoError(t, err)

	assert.NotEmpty(t, member.ID)
	assert.Equal(t, "Bali Surf Week", member.PackageName)
	assert.Equal(t, "2024-06-01", member.StartDate)
	assert.Equal(t, "2024-06-10", member.EndDate)
	assert.False(t, member.RegistrationDate.IsZero())

	stored := f.packages.stored(domain.PackageTypeSurf, "1")
	assert.Equal(t, 1, stored.DateRanges[0].CurrentParticipants)
}

func TestAddMember_CapacityReached(t *testing.T) {
	f := setupLedger(t, domain.IntPtr(10))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := f.ledger.AddMember(ctx, enrollment("Member", 500, 500))
		require.NoError(t, err)
	}

	_, err := f.ledger.AddMember(ctx, enrollment("Eleventh", 500, 500))

	var cerr *domain.CapacityExceededError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, 10, cerr.Max)
	assert.Equal(t, 10, cerr.Current)
	assert.Equal(t, 10, f.members.count())
	assert.Equal(t, 10, f.packages.stored(domain.PackageTypeSurf, "1").DateRanges[0].CurrentParticipants)
}

func TestAddMember_CapacityUsesLedgerNotCachedCount(t *testing.T) {
	f := setupLedger(t, domain.IntPtr(2))
	ctx := context.Background()

	// The cached counter claims the range is full, the ledger says otherwise
	pkg := f.packages.stored(domain.PackageTypeSurf, "1")
	pkg.DateRanges[0].CurrentParticipants = 2
	f.packages.put(domain.PackageTypeSurf, pkg)

	_, err := f.ledger.AddMember(ctx, enrollment("Ana", 100, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, f.packages.stored(domain.PackageTypeSurf, "1").DateRanges[0].CurrentParticipants)
}

func TestAddMember_ConcurrentEnrollmentsNeverOverbook(t *testing.T) {
	f := setupLedger(t, domain.IntPtr(5))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, rejected := 0, 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.AddMember(ctx, enrollment("Racer", 100, 0))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if assert.ErrorIs(t, err, domain.ErrCapacityExceeded) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, accepted)
	assert.Equal(t, 7, rejected)
	assert.Equal(t, 5, f.members.count())
}

func TestAddMember_Validation(t *testing.T) {
	f := setupLedger(t, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(in *domain.MemberInput)
		field  string
	}{
		{"missing name", func(in *domain.MemberInput) { in.Name = "" }, "name"},
		{"missing phone", func(in *domain.MemberInput) { in.Phone = "" }, "phone"},
		{"bad email", func(in *domain.MemberInput) { in.Email = "not-an-email" }, "email"},
		{"missing package", func(in *domain.MemberInput) { in.PackageID = "" }, "packageId"},
		{"missing date range", func(in *domain.MemberInput) { in.DateRangeID = "" }, "dateRangeId"},
		{"unknown type", func(in *domain.MemberInput) { in.PackageType = "kite" }, "packageType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := enrollment("Ana", 100, 0)
			tt.mutate(&in)

			_, err := f.ledger.AddMember(ctx, in)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Equal(t, 0, f.members.count())
}

func TestAddMember_UnknownDateRange(t *testing.T) {
	f := setupLedger(t, nil)

	in := enrollment("Ana", 100, 0)
	in.DateRangeID = "missing"
	_, err := f.ledger.AddMember(context.Background(), in)

	assert.ErrorIs(t, err, domain.ErrDateRangeNotFound)
	assert.Equal(t, 0, f.members.count())
}

func TestPaymentStatusAndStats(t *testing.T) {
	f := setupLedger(t, nil)
	ctx := context.Background()

	paid, err := f.ledger.AddMember(ctx, enrollment("Ana", 500, 500))
	require.NoError(t, err)
	pending, err := f.ledger.AddMember(ctx, enrollment("Budi", 500, 200))
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus())
	assert.Equal(t, domain.PaymentStatusPending, pending.PaymentStatus())

	stats, err := f.ledger.GetMemberStats(ctx, "1", "dr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMembers)
	assert.Equal(t, domain.ParseMoney(1000), stats.TotalRevenue)
	assert.Equal(t, domain.ParseMoney(700), stats.TotalPaid)
	assert.Equal(t, domain.ParseMoney(300), stats.PendingPayment)
}

func TestGetMembersByDateRange_NewestFirst(t *testing.T) {
	f := setupLedger(t, nil)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	f.ledger.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	for _, name := range []string{"first", "second", "third"} {
		_, err := f.ledger.AddMember(ctx, enrollment(name, 100, 0))
		require.NoError(t, err)
	}
	f.members.insert(domain.TripMember{Name: "other range", PackageID: "1", DateRangeID: "dr-2"})

	members, err := f.ledger.GetMembersByDateRange(ctx, "1", "dr-1")
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "third", members[0].Name)
	assert.Equal(t, "second", members[1].Name)
	assert.Equal(t, "first", members[2].Name)
}

func TestUpdateMember_RecomputesPaymentAndKeepsKeys(t *testing.T) {
	f := setupLedger(t, nil)
	ctx := context.Background()

	member, err := f.ledger.AddMember(ctx, enrollment("Ana", 500, 200))
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, member.PaymentStatus())

	in := enrollment("Ana Maria", 500, 500)
	in.DateRangeID = "dr-elsewhere"
	updated, err := f.ledger.UpdateMember(ctx, member.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus())
	assert.Equal(t, "dr-1", updated.DateRangeID)
	assert.Equal(t, member.RegistrationDate, updated.RegistrationDate)

	stored, err := f.members.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ParseMoney(500), stored.AmountPaid)
}

func TestUpdateMember_OmittedAmountsKeepStoredValues(t *testing.T) {
	f := setupLedger(t, nil)
	ctx := context.Background()

	member, err := f.ledger.AddMember(ctx, enrollment("Ana", 500, 200))
	require.NoError(t, err)

	in := enrollment("Ana Maria", 0, 0)
	in.TotalAmount = nil
	in.AmountPaid = nil
	updated, err := f.ledger.UpdateMember(ctx, member.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, domain.ParseMoney(500), updated.TotalAmount)
	assert.Equal(t, domain.ParseMoney(200), updated.AmountPaid)
	assert.Equal(t, domain.PaymentStatusPending, updated.PaymentStatus())
}

func TestUpdateAndDeleteMember_MissingIDIsNotFound(t *testing.T) {
	f := setupLedger(t, nil)
	ctx := context.Background()

	_, err := f.ledger.UpdateMember(ctx, "ghost", enrollment("Ana", 1, 1))
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)

	err = f.ledger.DeleteMember(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestDeleteMember_RefreshesCount(t *testing.T) {
	f := setupLedger(t, nil)
	ctx := context.Background()

	a, err := f.ledger.AddMember(ctx, enrollment("Ana", 100, 0))
	require.NoError(t, err)
	_, err = f.ledger.AddMember(ctx, enrollment("Budi", 100, 0))
	require.NoError(t, err)
	require.Equal(t, 2, f.packages.stored(domain.PackageTypeSurf, "1").DateRanges[0].CurrentParticipants)

	require.NoError(t, f.ledger.DeleteMember(ctx, a.ID))

	assert.Equal(t, 1, f.members.count())
	assert.Equal(t, 1, f.packages.stored(domain.PackageTypeSurf, "1").DateRanges[0].CurrentParticipants)
}
