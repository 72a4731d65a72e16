// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/whosinapp/whosin/internal/app/system/normalize"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no profile document exists for a user.
	ErrNotFound = errors.New("profile not found")

	// ErrNameTaken is returned when a different user already holds the
	// requested display name (compared case-folded).
	ErrNameTaken = errors.New("display name already taken")

	// ErrEmptyName is returned when a display name is empty after trimming.
	ErrEmptyName = errors.New("display name is empty")

	// ErrEmailTaken is returned when an account already exists for the
	// email. Backed by the unique sparse index.
	ErrEmailTaken = errors.New("email already registered")
)

// Store provides access to the profiles collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new profile store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// EnsureIndexes creates the profile indexes.
//
// display_name_ci is indexed but NOT unique: name uniqueness is a soft
// constraint checked best-effort at rename/sign-up time, so a race can
// produce duplicates and the index must tolerate them.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "display_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_display_name_ci"),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).
				SetName("idx_email_unique"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// CreateInput carries the fields for a new profile document.
type CreateInput struct {
	UserID       string
	DisplayName  string
	Email        string
	AuthMethod   string // password | google
	PasswordHash *string
	DarkMode     bool
}

// Create inserts a new profile. The display name is normalized and folded
// here so every document carries a consistent display_name_ci. Name
// uniqueness is checked best-effort before the insert; email uniqueness is
// enforced by the index.
func (s *Store) Create(ctx context.Context, in CreateInput) error {
	name := normalize.Name(in.DisplayName)
	if name == "" {
		return ErrEmptyName
	}

	var holder models.Profile
	err := s.c.FindOne(ctx, bson.M{"display_name_ci": text.Fold(name)}).Decode(&holder)
	if err == nil {
		return ErrNameTaken
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	now := time.Now().UTC()
	p := models.Profile{
		UserID:        in.UserID,
		DisplayName:   name,
		DisplayNameCI: text.Fold(name),
		DarkMode:      in.DarkMode,
		Email:         normalize.Email(in.Email),
		AuthMethod:    normalize.AuthMethod(in.AuthMethod),
		PasswordHash:  in.PasswordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByID fetches a profile by user ID. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail fetches a profile by normalized email. Returns ErrNotFound
// when absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every profile, ordered by case-folded display name. Day
// views need the full known-profile set to synthesize not-responded
// entries.
func (s *Store) List(ctx context.Context) ([]models.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "display_name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Rename sets a new display name after a best-effort uniqueness check.
//
// The check and the write are not transactional: two racing renames to the
// same name can both pass the scan. That lost-update window is accepted;
// the index tolerates duplicates and the next rename attempt will flag the
// collision.
func (s *Store) Rename(ctx context.Context, userID, newName string) error {
	name := normalize.Name(newName)
	if name == "" {
		return ErrEmptyName
	}
	folded := text.Fold(name)

	// Scan for a different holder of the folded name.
	var holder struct {
		UserID string `bson:"_id"`
	}
	err := s.c.FindOne(ctx, bson.M{"display_name_ci": folded}).Decode(&holder)
	switch {
	case err == mongo.ErrNoDocuments:
		// free
	case err != nil:
		return err
	case holder.UserID != userID:
		return ErrNameTaken
	}

	res, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{
			"display_name":    name,
			"display_name_ci": folded,
			"updated_at":      time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDarkMode persists the dark-mode preference. The upsert touches
// only the preference fields so a stored display name is never disturbed,
// even when the document does not exist yet.
func (s *Store) UpdateDarkMode(ctx context.Context, userID string, v bool) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"dark_mode":  v,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, update, opts)
	return err
}

// UpsertResolved writes the resolved (name, dark mode) pair back to the
// remote store so future reads are authoritative. Used by the resolver when
// a fallback name was chosen; the merge upsert repairs a missing document
// or a document missing its display name without clobbering other fields.
func (s *Store) UpsertResolved(ctx context.Context, userID, displayName string, darkMode bool) error {
	name := normalize.Name(displayName)
	if name == "" {
		return ErrEmptyName
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"display_name":    name,
			"display_name_ci": text.Fold(name),
			"dark_mode":       darkMode,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, update, opts)
	return err
}
