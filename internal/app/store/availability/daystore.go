// internal/app/store/availability/daystore.go
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/whosinapp/whosin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no record exists for a date yet.
// Date records are created lazily on the first response.
var ErrNotFound = errors.New("date record not found")

// Store provides access to the availability collection. One document per
// calendar date, keyed by the YYYY-MM-DD date string.
type Store struct {
	c *mongo.Collection
}

// New creates a new availability store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("availability")}
}

// Collection exposes the underlying collection for the change-stream
// watcher.
func (s *Store) Collection() *mongo.Collection { return s.c }

// Get fetches the record for one date. Returns ErrNotFound when no one has
// responded for that date yet.
func (s *Store) Get(ctx context.Context, date string) (*models.DateRecord, error) {
	var rec models.DateRecord
	err := s.c.FindOne(ctx, bson.M{"_id": date}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.Responses == nil {
		rec.Responses = make(map[string]models.Response)
	}
	return &rec, nil
}

// Range returns all records whose date falls within [from, to], ordered by
// date. YYYY-MM-DD keys compare correctly as strings.
func (s *Store) Range(ctx context.Context, from, to string) ([]models.DateRecord, error) {
	filter := bson.M{"_id": bson.M{"$gte": from, "$lte": to}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []models.DateRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Put writes a full date record, creating it if absent. Last write wins:
// there is no version check, which is the accepted trade-off for this
// read-modify-write cycle.
func (s *Store) Put(ctx context.Context, rec models.DateRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": rec.Date}, rec, opts)
	return err
}

// Toggle flips one user's availability for a date and writes the whole
// record back.
//
// The record is read fresh from the store rather than from any cached
// snapshot to shrink the staleness window at the moment of write. A user
// with no prior response defaults to unavailable, so the first toggle
// always lands on available.
func (s *Store) Toggle(ctx context.Context, userID, displayName, date string) (models.DateRecord, error) {
	rec, err := s.Get(ctx, date)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = &models.DateRecord{
			Date:      date,
			Responses: make(map[string]models.Response),
		}
	case err != nil:
		return models.DateRecord{}, fmt.Errorf("read date record: %w", err)
	}

	prior := false
	if existing, ok := rec.Responses[userID]; ok {
		prior = existing.Available
	}

	now := time.Now().UTC()
	rec.Responses[userID] = models.Response{
		UserID:      userID,
		DisplayName: displayName,
		Available:   !prior,
		RespondedAt: &now,
	}

	if err := s.Put(ctx, *rec); err != nil {
		return models.DateRecord{}, fmt.Errorf("write date record: %w", err)
	}
	rec.UpdatedAt = now
	return *rec, nil
}

// RenameUser rewrites the denormalized display name inside the given dates'
// records for one user. Rename propagation is deliberately limited to the
// records the caller has loaded, not a retroactive full-collection rewrite.
func (s *Store) RenameUser(ctx context.Context, dates []string, userID, newName string) error {
	if len(dates) == 0 {
		return nil
	}
	field := "responses." + userID + ".display_name"
	filter := bson.M{
		"_id":                 bson.M{"$in": dates},
		"responses." + userID: bson.M{"$exists": true},
	}
	_, err := s.c.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{
			field:        newName,
			"updated_at": time.Now().UTC(),
		},
	})
	return err
}
