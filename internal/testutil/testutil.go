package testutil

import (
	"context"
	"fmt"
	"log"
	"testing"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	tcfirestore "github.com/testcontainers/testcontainers-go/modules/gcloud/firestore"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupTestDB spins up a fresh MongoDB container and returns the database connection
// along with a cleanup function. Skipped with -short.
func SetupTestDB(t *testing.T) (*mongo.Database, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongodbContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	endpoint, err := mongodbContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	return mongoClient.Database("tripdesk_test"), func() {
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("failed to disconnect mongo: %v", err)
		}
		if err := mongodbContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}
}

// SetupFirestore starts the Firestore emulator and returns a client pointed at it.
// Skipped with -short.
func SetupFirestore(t *testing.T) (*firestore.Client, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Firestore emulator test in short mode")
	}
	ctx := context.Background()

	firestoreContainer, err := tcfirestore.Run(ctx, "gcr.io/google.com/cloudsdktool/cloud-sdk:513.0.0-emulators")
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %s", err)
	}

	// The client library switches to the emulator (no credentials) when this is set
	t.Setenv("FIRESTORE_EMULATOR_HOST", firestoreContainer.URI())

	client, err := firestore.NewClient(ctx, firestoreContainer.ProjectID())
	if err != nil {
		t.Fatalf("failed to create firestore client: %v", err)
	}

	return client, func() {
		if err := client.Close(); err != nil {
			log.Printf("failed to close firestore client: %v", err)
		}
		if err := firestoreContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}
}

// SetupRedis starts an in-memory Redis that is closed with the test
func SetupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// MockAuthClient implements middleware.FirebaseTokenVerifier for testing
type MockAuthClient struct {
	// Key: ID Token provided in header
	// Value: *auth.Token (what VerifyIDToken returns)
	ValidTokens map[string]*auth.Token
}

func NewMockAuthClient() *MockAuthClient {
	return &MockAuthClient{
		ValidTokens: make(map[string]*auth.Token),
	}
}

func (m *MockAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if token, ok := m.ValidTokens[idToken]; ok {
		return token, nil
	}
	return nil, fmt.Errorf("invalid mock token")
}

// AddMockUser registers a token for a user with a verified email
func (m *MockAuthClient) AddMockUser(tokenString string, uid string, email string) {
	m.ValidTokens[tokenString] = &auth.Token{
		UID: uid,
		Claims: map[string]interface{}{
			"email":          email,
			"email_verified": true,
		},
	}
}
