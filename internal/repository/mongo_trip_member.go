package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/tripdesk/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tripMembersCollection = "tripMembers"

type MongoTripMemberRepository struct {
	collection *mongo.Collection
}

func NewMongoTripMemberRepository(db *mongo.Database) *MongoTripMemberRepository {
	return &MongoTripMemberRepository{
		collection: db.Collection(tripMembersCollection),
	}
}

// EnsureIndexes creates the compound index used by headcount queries
func (r *MongoTripMemberRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "packageId", Value: 1}, {Key: "dateRangeId", Value: 1}},
	})
	if err != nil {
		return domain.NewStoreError("failed to create trip member index", err)
	}
	return nil
}

func (r *MongoTripMemberRepository) ListByDateRange(ctx context.Context, packageID, dateRangeID string) ([]*domain.TripMember, error) {
	filter := bson.M{"packageId": packageID, "dateRangeId": dateRangeID}
	opts := options.Find().SetSort(bson.D{{Key: "registrationDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, domain.NewStoreError("failed to list trip members", err)
	}
	defer cursor.Close(ctx)

	members := []*domain.TripMember{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, domain.NewStoreError("failed to decode trip members", err)
	}
	return members, nil
}

func (r *MongoTripMemberRepository) CountByDateRange(ctx context.Context, packageID, dateRangeID string) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"packageId": packageID, "dateRangeId": dateRangeID})
	if err != nil {
		return 0, domain.NewStoreError("failed to count trip members", err)
	}
	return int(count), nil
}

func (r *MongoTripMemberRepository) CountByPackage(ctx context.Context, pkgType domain.PackageType, packageID string) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"packageType": pkgType, "packageId": packageID})
	if err != nil {
		return 0, domain.NewStoreError("failed to count trip members", err)
	}
	return int(count), nil
}

func (r *MongoTripMemberRepository) GetByID(ctx context.Context, id string) (*domain.TripMember, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var member domain.TripMember
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrMemberNotFound
		}
		return nil, domain.NewStoreError("failed to get trip member", err)
	}
	return &member, nil
}

func (r *MongoTripMemberRepository) Create(ctx context.Context, member *domain.TripMember) error {
	member.ID = ""
	if member.RegistrationDate.IsZero() {
		member.RegistrationDate = time.Now()
	}
	member.UpdatedAt = member.RegistrationDate

	result, err := r.collection.InsertOne(ctx, member)
	if err != nil {
		return domain.NewStoreError("failed to create trip member", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		member.ID = oid.Hex()
	}
	return nil
}

func (r *MongoTripMemberRepository) Update(ctx context.Context, member *domain.TripMember) error {
	oid, err := primitive.ObjectIDFromHex(member.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	member.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":        member.Name,
			"phone":       member.Phone,
			"email":       member.Email,
			"totalAmount": member.TotalAmount,
			"amountPaid":  member.AmountPaid,
			"notes":       member.Notes,
			"updatedAt":   member.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return domain.NewStoreError("failed to update trip member", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *MongoTripMemberRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return domain.NewStoreError("failed to delete trip member", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
