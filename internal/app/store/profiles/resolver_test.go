package profilestore

import (
	"context"
	"errors"
	"testing"

	"github.com/whosinapp/whosin/internal/app/system/cache"
	"github.com/whosinapp/whosin/internal/app/system/metrics"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.uber.org/zap"
)

// fakeRemote scripts the remote store's behavior for resolver tests.
type fakeRemote struct {
	profile     *models.Profile
	getErr      error
	upserts     []string // display names persisted back
	upsertErr   error
	darkWrites  []bool // preference-only writes
	darkModeErr error
}

func (f *fakeRemote) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.profile, nil
}

func (f *fakeRemote) UpsertResolved(ctx context.Context, userID, displayName string, darkMode bool) error {
	f.upserts = append(f.upserts, displayName)
	return f.upsertErr
}

func (f *fakeRemote) UpdateDarkMode(ctx context.Context, userID string, v bool) error {
	f.darkWrites = append(f.darkWrites, v)
	return f.darkModeErr
}

func newResolverWith(remote remote) (*Resolver, *cache.Cache) {
	c := cache.Open("", zap.NewNop())
	r := &Resolver{remote: remote, cache: c, metrics: nil, log: zap.NewNop()}
	return r, c
}

func TestResolve_RemoteNameWins(t *testing.T) {
	remote := &fakeRemote{profile: &models.Profile{
		UserID: "u1", DisplayName: "Alice", DarkMode: true,
	}}
	r, c := newResolverWith(remote)
	c.Put("u1", "Stale Name", false)

	got, err := r.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Profile.DisplayName != "Alice" {
		t.Errorf("display name = %q, want Alice", got.Profile.DisplayName)
	}
	if got.Degraded {
		t.Error("remote success should not be degraded")
	}

	// Cache refreshed with the authoritative values.
	e, _ := c.Get("u1")
	if e.DisplayName != "Alice" || !e.DarkMode {
		t.Errorf("cache entry = %+v, want Alice/dark", e)
	}
	if len(remote.upserts) != 0 {
		t.Error("authoritative remote read should not trigger a repair write")
	}
}

func TestResolve_MissingRemote_UsesCache(t *testing.T) {
	remote := &fakeRemote{getErr: ErrNotFound}
	r, c := newResolverWith(remote)
	c.Put("u1", "Cached Alice", true)

	got, err := r.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Profile.DisplayName != "Cached Alice" {
		t.Errorf("display name = %q, want Cached Alice", got.Profile.DisplayName)
	}
	if got.Source != metrics.ResolveCache {
		t.Errorf("source = %q, want %q", got.Source, metrics.ResolveCache)
	}

	// The cached winner is persisted back to the remote store.
	if len(remote.upserts) != 1 || remote.upserts[0] != "Cached Alice" {
		t.Errorf("upserts = %v, want [Cached Alice]", remote.upserts)
	}
}

func TestResolve_EmptyRemoteName_UsesCache(t *testing.T) {
	remote := &fakeRemote{profile: &models.Profile{
		UserID: "u1", DisplayName: "", DarkMode: true, Email: "a@example.com",
	}}
	r, c := newResolverWith(remote)
	c.Put("u1", "Cached Alice", false)

	got, err := r.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Profile.DisplayName != "Cached Alice" {
		t.Errorf("display name = %q, want Cached Alice", got.Profile.DisplayName)
	}
	// Existing document fields survive the repair.
	if got.Profile.Email != "a@example.com" {
		t.Errorf("email = %q, want a@example.com", got.Profile.Email)
	}
	// Remote dark mode wins over the cached flag when the document exists.
	if !got.Profile.DarkMode {
		t.Error("dark mode should come from the remote document")
	}
}

func TestResolve_NoData_SynthesizesDefault(t *testing.T) {
	remote := &fakeRemote{getErr: ErrNotFound}
	r, _ := newResolverWith(remote)

	got, err := r.Resolve(context.Background(), "abcdef1234567890")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Profile.DisplayName != "user-abcdef12" {
		t.Errorf("display name = %q, want user-abcdef12", got.Profile.DisplayName)
	}
	if got.Source != metrics.ResolveFallback {
		t.Errorf("source = %q, want %q", got.Source, metrics.ResolveFallback)
	}
	if len(remote.upserts) != 1 {
		t.Errorf("synthesized default should be persisted back, upserts = %v", remote.upserts)
	}
}

func TestResolve_RemoteFailure_DegradedFromCache(t *testing.T) {
	remote := &fakeRemote{getErr: errors.New("connection refused")}
	r, c := newResolverWith(remote)
	c.Put("u1", "Cached Alice", true)

	got, err := r.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve should absorb a remote failure with a cache hit: %v", err)
	}
	if !got.Degraded {
		t.Error("expected degraded result")
	}
	if got.Profile.DisplayName != "Cached Alice" || !got.Profile.DarkMode {
		t.Errorf("profile = %+v, want cached values", got.Profile)
	}
	if len(remote.upserts) != 0 {
		t.Error("degraded resolution must not attempt a repair write")
	}
}

func TestResolve_RemoteFailure_NoCache_Fails(t *testing.T) {
	remote := &fakeRemote{getErr: errors.New("connection refused")}
	r, _ := newResolverWith(remote)

	_, err := r.Resolve(context.Background(), "u1")
	if !errors.Is(err, ErrProfileUnavailable) {
		t.Errorf("err = %v, want ErrProfileUnavailable", err)
	}
}

func TestResolve_RepairWriteFailure_StillSucceeds(t *testing.T) {
	remote := &fakeRemote{getErr: ErrNotFound, upsertErr: errors.New("write refused")}
	r, c := newResolverWith(remote)
	c.Put("u1", "Cached Alice", false)

	got, err := r.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("repair write failure must not fail the resolution: %v", err)
	}
	if got.Profile.DisplayName != "Cached Alice" {
		t.Errorf("display name = %q, want Cached Alice", got.Profile.DisplayName)
	}
}

func TestSetDarkMode_Optimistic(t *testing.T) {
	remote := &fakeRemote{getErr: ErrNotFound, darkModeErr: errors.New("write refused")}
	r, c := newResolverWith(remote)
	c.Put("u1", "Alice", false)

	// Remote failure is absorbed; the local value sticks regardless.
	r.SetDarkMode(context.Background(), "u1", true)

	e, _ := c.Get("u1")
	if !e.DarkMode {
		t.Error("dark mode should be set locally despite the remote failure")
	}
}

func TestSetDarkMode_ColdCacheLeavesNameAlone(t *testing.T) {
	remote := &fakeRemote{profile: &models.Profile{
		UserID: "u1", DisplayName: "Alice",
	}}
	r, _ := newResolverWith(remote)

	// No cache entry for u1: the preference write must not invent a name.
	r.SetDarkMode(context.Background(), "u1", true)

	if len(remote.upserts) != 0 {
		t.Errorf("SetDarkMode persisted display names %v; the stored name must be untouched", remote.upserts)
	}
	if len(remote.darkWrites) != 1 || !remote.darkWrites[0] {
		t.Errorf("dark writes = %v, want one write of true", remote.darkWrites)
	}
}

func TestDefaultName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"abcdef1234567890", "user-abcdef12"},
		{"short", "user-short"},
		{"", "user-"},
	}
	for _, tt := range tests {
		if got := DefaultName(tt.id); got != tt.want {
			t.Errorf("DefaultName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
