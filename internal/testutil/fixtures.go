package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateProfile creates a test profile with the given user ID and name.
func (f *Fixtures) CreateProfile(ctx context.Context, userID, displayName string) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		UserID:        userID,
		DisplayName:   displayName,
		DisplayNameCI: text.Fold(displayName),
		Email:         userID + "@test.example",
		AuthMethod:    "password",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateDateRecord creates a date record with explicit responses.
// available maps user ID to the response flag; display names mirror the IDs.
func (f *Fixtures) CreateDateRecord(ctx context.Context, date string, available map[string]bool) models.DateRecord {
	f.t.Helper()

	now := time.Now().UTC()
	rec := models.DateRecord{
		Date:      date,
		Responses: make(map[string]models.Response, len(available)),
		UpdatedAt: now,
	}
	for userID, v := range available {
		ts := now
		rec.Responses[userID] = models.Response{
			UserID:      userID,
			DisplayName: userID,
			Available:   v,
			RespondedAt: &ts,
		}
	}

	if _, err := f.db.Collection("availability").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create test date record: %v", err)
	}
	return rec
}
