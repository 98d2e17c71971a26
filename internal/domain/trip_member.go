package domain

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// PaymentStatus is derived from the two amounts on a TripMember
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

// TripMember is one person enrolled in one date range of one package.
// Members live in their own collection and reference the package by id.
type TripMember struct {
	ID               string      `json:"id" bson:"_id,omitempty" firestore:"-"`
	Name             string      `json:"name" bson:"name" firestore:"name"`
	Phone            string      `json:"phone" bson:"phone" firestore:"phone"`
	Email            string      `json:"email,omitempty" bson:"email,omitempty" firestore:"email,omitempty"`
	PackageID        string      `json:"packageId" bson:"packageId" firestore:"packageId"`
	PackageName      string      `json:"packageName" bson:"packageName" firestore:"packageName"`
	PackageType      PackageType `json:"packageType" bson:"packageType" firestore:"packageType"`
	DateRangeID      string      `json:"dateRangeId" bson:"dateRangeId" firestore:"dateRangeId"`
	StartDate        string      `json:"startDate" bson:"startDate" firestore:"startDate"`
	EndDate          string      `json:"endDate" bson:"endDate" firestore:"endDate"`
	TotalAmount      Money       `json:"totalAmount" bson:"totalAmount" firestore:"totalAmount"`
	AmountPaid       Money       `json:"amountPaid" bson:"amountPaid" firestore:"amountPaid"`
	Notes            string      `json:"notes,omitempty" bson:"notes,omitempty" firestore:"notes,omitempty"`
	RegistrationDate time.Time   `json:"registrationDate" bson:"registrationDate" firestore:"registrationDate"`
	UpdatedAt        time.Time   `json:"updatedAt" bson:"updatedAt" firestore:"updatedAt"`
}

// PaymentStatus is "paid" once amountPaid covers totalAmount
func (m *TripMember) PaymentStatus() PaymentStatus {
	if m.AmountPaid >= m.TotalAmount {
		return PaymentStatusPaid
	}
	return PaymentStatusPending
}

// Balance is the amount still owed, never negative
func (m *TripMember) Balance() Money {
	if m.AmountPaid >= m.TotalAmount {
		return 0
	}
	return m.TotalAmount - m.AmountPaid
}

// MarshalJSON adds the derived paymentStatus to the wire format.
func (m TripMember) MarshalJSON() ([]byte, error) {
	type member TripMember
	return json.Marshal(struct {
		member
		PaymentStatus PaymentStatus `json:"paymentStatus"`
	}{member(m), m.PaymentStatus()})
}

// MemberInput is the admin form for enrolling or editing a member.
// Amounts go through Money's lenient decoding. An amount that is absent or
// null leaves the stored value untouched, so a PUT without totalAmount
// does not zero the bill.
type MemberInput struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Phone       string      `json:"phone" validate:"required,max=40"`
	Email       string      `json:"email" validate:"omitempty,email"`
	PackageID   string      `json:"packageId"`
	PackageType PackageType `json:"packageType"`
	DateRangeID string      `json:"dateRangeId"`
	TotalAmount *Money      `json:"totalAmount"`
	AmountPaid  *Money      `json:"amountPaid"`
	Notes       string      `json:"notes"`
}

// Apply copies the editable fields onto m. Enrollment keys are left alone.
func (in MemberInput) Apply(m *TripMember) {
	m.Name = strings.TrimSpace(in.Name)
	m.Phone = strings.TrimSpace(in.Phone)
	m.Email = strings.TrimSpace(in.Email)
	if in.TotalAmount != nil {
		m.TotalAmount = ParseMoney(*in.TotalAmount)
	}
	if in.AmountPaid != nil {
		m.AmountPaid = ParseMoney(*in.AmountPaid)
	}
	m.Notes = strings.TrimSpace(in.Notes)
}

// MemberStats aggregates the ledger for one date range
type MemberStats struct {
	TotalMembers   int   `json:"totalMembers"`
	TotalRevenue   Money `json:"totalRevenue"`
	TotalPaid      Money `json:"totalPaid"`
	PendingPayment Money `json:"pendingPayment"`
}

// ComputeMemberStats sums amounts exactly; totals saturate at MaxMoney and
// pendingPayment is floored at zero.
func ComputeMemberStats(members []*TripMember) MemberStats {
	var stats MemberStats
	for _, m := range members {
		stats.TotalMembers++
		stats.TotalRevenue = stats.TotalRevenue.Add(ParseMoney(m.TotalAmount))
		stats.TotalPaid = stats.TotalPaid.Add(ParseMoney(m.AmountPaid))
	}
	if stats.TotalRevenue > stats.TotalPaid {
		stats.PendingPayment = stats.TotalRevenue - stats.TotalPaid
	}
	return stats
}

// SortMembersNewestFirst orders by registration date, most recent first
func SortMembersNewestFirst(members []*TripMember) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].RegistrationDate.After(members[j].RegistrationDate)
	})
}

// TripMemberRepository persists enrollment records in the flat tripMembers collection.
// Update and Delete return ErrMemberNotFound when the id is absent.
type TripMemberRepository interface {
	ListByDateRange(ctx context.Context, packageID, dateRangeID string) ([]*TripMember, error)
	CountByDateRange(ctx context.Context, packageID, dateRangeID string) (int, error)
	CountByPackage(ctx context.Context, pkgType PackageType, packageID string) (int, error)
	GetByID(ctx context.Context, id string) (*TripMember, error)
	Create(ctx context.Context, member *TripMember) error
	Update(ctx context.Context, member *TripMember) error
	Delete(ctx context.Context, id string) error
}
