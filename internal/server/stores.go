package server

import (
	"context"
	"fmt"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/mansoorceksport/tripdesk/internal/config"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// Stores bundles the document store repositories of the configured backend
type Stores struct {
	Packages domain.PackageRepository
	Members  domain.TripMemberRepository
	Schemas  domain.DetailSchemaRepository
	close    func(ctx context.Context) error
}

// Close releases the underlying client
func (s *Stores) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStores connects to MongoDB or Firestore depending on DOCUMENT_STORE.
// firebaseApp is only required for the firestore backend.
func OpenStores(ctx context.Context, cfg *config.Config, firebaseApp *firebase.App) (*Stores, error) {
	switch cfg.Store.Backend {
	case config.StoreFirestore:
		if firebaseApp == nil {
			return nil, fmt.Errorf("firestore backend requires Firebase")
		}
		client, err := firebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		log.Println("✓ Firestore connected")
		return &Stores{
			Packages: repository.NewFirestorePackageRepository(client),
			Members:  repository.NewFirestoreTripMemberRepository(client),
			Schemas:  repository.NewFirestoreDetailSchemaRepository(client),
			close:    func(context.Context) error { return client.Close() },
		}, nil

	default:
		ctxMongo, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
		// Add OTEL monitor for MongoDB tracing
		if cfg.OTEL.Enabled {
			mongoOpts.SetMonitor(otelmongo.NewMonitor())
		}

		client, err := mongo.Connect(ctxMongo, mongoOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := client.Ping(ctxMongo, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		log.Println("✓ MongoDB connected")

		db := client.Database(cfg.MongoDB.Database)
		members := repository.NewMongoTripMemberRepository(db)
		if err := members.EnsureIndexes(ctxMongo); err != nil {
			log.Printf("Warning: failed to create trip member indexes: %v", err)
		}

		return &Stores{
			Packages: repository.NewMongoPackageRepository(db),
			Members:  members,
			Schemas:  repository.NewMongoDetailSchemaRepository(db),
			close:    client.Disconnect,
		}, nil
	}
}
