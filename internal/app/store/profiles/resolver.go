// internal/app/store/profiles/resolver.go
package profilestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/whosinapp/whosin/internal/app/system/cache"
	"github.com/whosinapp/whosin/internal/app/system/metrics"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.uber.org/zap"
)

// ErrProfileUnavailable is returned when neither the remote store nor the
// local cache can produce any profile data for the user. It is the only
// resolution outcome surfaced to the user as a blocking error.
var ErrProfileUnavailable = errors.New("no profile data available")

// remote is the slice of the profile store the resolver needs. Tests
// substitute a fake to exercise the fallback ladder without a database.
type remote interface {
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	UpsertResolved(ctx context.Context, userID, displayName string, darkMode bool) error
	UpdateDarkMode(ctx context.Context, userID string, v bool) error
}

// Resolved is the outcome of a profile resolution.
//
// Degraded means the remote store could not be reached and the values came
// from the durable local cache; the caller may render them normally but
// should expect a refresh on the next successful resolution.
type Resolved struct {
	Profile  models.Profile
	Degraded bool
	Source   string // metrics.Resolve* label for the winning source
}

// Resolver reconciles a user's profile across the remote store and the
// durable local cache.
//
// Policy (in order):
//  1. Remote document with a non-empty display name is authoritative; it
//     refreshes the cache, including the remote dark-mode preference.
//  2. Remote document missing or missing its name: fall back to the cached
//     name, then to a synthesized default, and persist the winner back so
//     future reads are authoritative.
//  3. Remote read failure: serve the cached value (Degraded) if one exists;
//     otherwise ErrProfileUnavailable.
//
// A resolution therefore never succeeds with an empty display name.
type Resolver struct {
	remote  remote
	cache   *cache.Cache
	metrics *metrics.Collector
	log     *zap.Logger
}

// NewResolver builds a resolver over the given store and cache.
func NewResolver(store *Store, c *cache.Cache, m *metrics.Collector, logger *zap.Logger) *Resolver {
	return &Resolver{remote: store, cache: c, metrics: m, log: logger}
}

// Cached returns the durable-cache entry for a user without touching the
// network. Callers use it to render immediately while a Resolve is in
// flight.
func (r *Resolver) Cached(userID string) (cache.Entry, bool) {
	return r.cache.Get(userID)
}

// Resolve produces the user's (display name, dark mode) pair per the policy
// above. The caller bounds the remote round trip via ctx.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Resolved, error) {
	cached, hasCache := r.cache.Get(userID)

	p, err := r.remote.GetByID(ctx, userID)
	switch {
	case err == nil && p.DisplayName != "":
		// Remote is authoritative.
		r.cache.Put(userID, p.DisplayName, p.DarkMode)
		r.record(metrics.ResolveRemote)
		return Resolved{Profile: *p, Source: metrics.ResolveRemote}, nil

	case err == nil || errors.Is(err, ErrNotFound):
		// Remote reachable but carries no usable name. Fall back.
		name := cached.DisplayName
		source := metrics.ResolveCache
		if name == "" {
			name = DefaultName(userID)
			source = metrics.ResolveFallback
		}

		dark := cached.DarkMode
		resolved := models.Profile{UserID: userID, DisplayName: name, DarkMode: dark}
		if err == nil {
			// Keep the rest of the existing document's fields in the result.
			resolved = *p
			resolved.DisplayName = name
			dark = p.DarkMode
			resolved.DarkMode = dark
		}

		// Persist the winner so the next read is authoritative. Best
		// effort: a failed repair write just means we fall back again next
		// time.
		if err := r.remote.UpsertResolved(ctx, userID, name, dark); err != nil {
			r.log.Warn("profile repair write failed",
				zap.String("user_id", userID), zap.Error(err))
		}
		r.cache.Put(userID, name, dark)
		r.record(source)
		return Resolved{Profile: resolved, Source: source}, nil

	default:
		// Remote failure. Absorb it if the cache can answer.
		if hasCache && cached.DisplayName != "" {
			r.log.Warn("profile fetch failed, serving cached value",
				zap.String("user_id", userID), zap.Error(err))
			r.record(metrics.ResolveDegraded)
			return Resolved{
				Profile: models.Profile{
					UserID:      userID,
					DisplayName: cached.DisplayName,
					DarkMode:    cached.DarkMode,
				},
				Degraded: true,
				Source:   metrics.ResolveDegraded,
			}, nil
		}
		r.log.Error("profile fetch failed with no cached fallback",
			zap.String("user_id", userID), zap.Error(err))
		r.record(metrics.ResolveFailed)
		return Resolved{}, ErrProfileUnavailable
	}
}

// SetDarkMode applies the preference optimistically: the cache updates
// first so the value sticks locally, and the remote write failure is
// logged, never surfaced. The remote write touches only the preference;
// the stored display name is left alone.
func (r *Resolver) SetDarkMode(ctx context.Context, userID string, v bool) {
	r.cache.SetDarkMode(userID, v)

	if err := r.remote.UpdateDarkMode(ctx, userID, v); err != nil {
		r.log.Warn("dark mode write failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}

// Warm seeds the cache with known-good identity data, typically right
// after sign-in or sign-up, so the first resolve never has to fall back.
func (r *Resolver) Warm(userID, displayName string, darkMode bool) {
	r.cache.Put(userID, displayName, darkMode)
}

// DefaultName synthesizes a deterministic display name from a user ID,
// used when no stored or cached name exists.
func DefaultName(userID string) string {
	id := userID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("user-%s", id)
}

func (r *Resolver) record(source string) {
	if r.metrics != nil {
		r.metrics.RecordResolve(source)
	}
}
