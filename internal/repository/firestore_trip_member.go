package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreTripMemberRepository struct {
	client *firestore.Client
}

func NewFirestoreTripMemberRepository(client *firestore.Client) *FirestoreTripMemberRepository {
	return &FirestoreTripMemberRepository{client: client}
}

func (r *FirestoreTripMemberRepository) byDateRange(packageID, dateRangeID string) firestore.Query {
	return r.client.Collection(tripMembersCollection).
		Where("packageId", "==", packageID).
		Where("dateRangeId", "==", dateRangeID)
}

func (r *FirestoreTripMemberRepository) ListByDateRange(ctx context.Context, packageID, dateRangeID string) ([]*domain.TripMember, error) {
	snaps, err := r.byDateRange(packageID, dateRangeID).Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.NewStoreError("failed to list trip members", err)
	}

	members := make([]*domain.TripMember, 0, len(snaps))
	for _, snap := range snaps {
		m, err := decodeTripMember(snap)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	domain.SortMembersNewestFirst(members)
	return members, nil
}

// CountByDateRange fetches ids only; the member bodies are not needed for a headcount.
func (r *FirestoreTripMemberRepository) CountByDateRange(ctx context.Context, packageID, dateRangeID string) (int, error) {
	snaps, err := r.byDateRange(packageID, dateRangeID).Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, domain.NewStoreError("failed to count trip members", err)
	}
	return len(snaps), nil
}

func (r *FirestoreTripMemberRepository) CountByPackage(ctx context.Context, pkgType domain.PackageType, packageID string) (int, error) {
	snaps, err := r.client.Collection(tripMembersCollection).
		Where("packageType", "==", string(pkgType)).
		Where("packageId", "==", packageID).
		Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, domain.NewStoreError("failed to count trip members", err)
	}
	return len(snaps), nil
}

func (r *FirestoreTripMemberRepository) GetByID(ctx context.Context, id string) (*domain.TripMember, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	snap, err := r.client.Collection(tripMembersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrMemberNotFound
		}
		return nil, domain.NewStoreError("failed to get trip member", err)
	}
	return decodeTripMember(snap)
}

func (r *FirestoreTripMemberRepository) Create(ctx context.Context, member *domain.TripMember) error {
	if member.RegistrationDate.IsZero() {
		member.RegistrationDate = time.Now()
	}
	member.UpdatedAt = member.RegistrationDate

	ref := r.client.Collection(tripMembersCollection).NewDoc()
	if _, err := ref.Create(ctx, member); err != nil {
		return domain.NewStoreError("failed to create trip member", err)
	}
	member.ID = ref.ID
	return nil
}

func (r *FirestoreTripMemberRepository) Update(ctx context.Context, member *domain.TripMember) error {
	if member.ID == "" {
		return domain.ErrInvalidID
	}
	member.UpdatedAt = time.Now()

	_, err := r.client.Collection(tripMembersCollection).Doc(member.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: member.Name},
		{Path: "phone", Value: member.Phone},
		{Path: "email", Value: member.Email},
		{Path: "totalAmount", Value: int64(member.TotalAmount)},
		{Path: "amountPaid", Value: int64(member.AmountPaid)},
		{Path: "notes", Value: member.Notes},
		{Path: "updatedAt", Value: member.UpdatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrMemberNotFound
		}
		return domain.NewStoreError("failed to update trip member", err)
	}
	return nil
}

func (r *FirestoreTripMemberRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	_, err := r.client.Collection(tripMembersCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrMemberNotFound
		}
		return domain.NewStoreError("failed to delete trip member", err)
	}
	return nil
}

func decodeTripMember(snap *firestore.DocumentSnapshot) (*domain.TripMember, error) {
	var m domain.TripMember
	if err := snap.DataTo(&m); err != nil {
		return nil, domain.NewStoreError("failed to decode trip member "+snap.Ref.ID, err)
	}
	m.ID = snap.Ref.ID
	return &m, nil
}
