// internal/app/store/availability/board.go
package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/whosinapp/whosin/internal/app/system/metrics"
	"github.com/whosinapp/whosin/internal/domain/models"
	"go.uber.org/zap"
)

// ErrWriteFailed is returned when a toggle could not be persisted. The
// local snapshot has already been rolled back to its prior state by the
// time the caller sees this error.
var ErrWriteFailed = errors.New("availability write failed")

// recordStore is the slice of Store the board uses. Narrowed so tests can
// substitute a fake.
type recordStore interface {
	Get(ctx context.Context, date string) (*models.DateRecord, error)
	Range(ctx context.Context, from, to string) ([]models.DateRecord, error)
	Toggle(ctx context.Context, userID, displayName, date string) (models.DateRecord, error)
	RenameUser(ctx context.Context, dates []string, userID, newName string) error
}

// Board keeps an in-memory snapshot of date records on top of the store and
// fans change notifications out to subscribers. A single change-stream
// watcher keeps the snapshot current; subscribers each hold their own date
// range and receive the in-range records on every change.
type Board struct {
	store   recordStore
	watch   *Store
	metrics *metrics.Collector
	log     *zap.Logger

	mu      sync.RWMutex
	records map[string]models.DateRecord
	subs    map[int]*Subscription
	nextSub int
}

// Subscription delivers range-filtered snapshots. The channel carries the
// latest snapshot only: a slow consumer sees the newest state, not every
// intermediate one.
type Subscription struct {
	C     <-chan []models.DateRecord
	ch    chan []models.DateRecord
	from  string
	to    string
	id    int
	board *Board
	once  sync.Once
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.board.mu.Lock()
		delete(s.board.subs, s.id)
		s.board.mu.Unlock()
		close(s.ch)
		if s.board.metrics != nil {
			s.board.metrics.StreamClosed()
		}
	})
}

// NewBoard creates a board over the given store. Call Watch to start live
// updates.
func NewBoard(store *Store, collector *metrics.Collector, logger *zap.Logger) *Board {
	b := newBoard(store, collector, logger)
	b.watch = store
	return b
}

func newBoard(store recordStore, collector *metrics.Collector, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		store:   store,
		metrics: collector,
		log:     logger,
		records: make(map[string]models.DateRecord),
		subs:    make(map[int]*Subscription),
	}
}

// Subscribe loads the requested range into the snapshot and registers a
// subscriber for it. The initial snapshot is delivered on the returned
// channel before any change notifications.
func (b *Board) Subscribe(ctx context.Context, from, to string) (*Subscription, error) {
	recs, err := b.store.Range(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load range: %w", err)
	}

	b.mu.Lock()
	for _, rec := range recs {
		b.records[rec.Date] = rec
	}
	sub := &Subscription{
		ch:    make(chan []models.DateRecord, 1),
		from:  from,
		to:    to,
		id:    b.nextSub,
		board: b,
	}
	sub.C = sub.ch
	b.subs[sub.id] = sub
	b.nextSub++
	// Delivered under the lock so it cannot race a Close; deliver never
	// blocks.
	sub.deliver(b.rangeLocked(from, to))
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.StreamOpened()
	}
	return sub, nil
}

// Toggle flips the user's availability for a date. The local snapshot is
// updated and broadcast before the write is confirmed so subscribers see
// the change immediately; if the write fails the snapshot is rolled back,
// the rollback is broadcast, and ErrWriteFailed is returned.
func (b *Board) Toggle(ctx context.Context, userID, displayName, date string) (models.DateRecord, error) {
	if b.metrics != nil {
		b.metrics.RecordToggle()
	}

	b.mu.Lock()
	prior, hadPrior := b.records[date]
	optimistic := b.applyToggleLocked(userID, displayName, date)
	token := optimistic.Responses[userID].RespondedAt
	b.mu.Unlock()
	b.broadcast()

	rec, err := b.store.Toggle(ctx, userID, displayName, date)
	if err != nil {
		// Roll back only if the snapshot still holds our optimistic
		// entry. A change-stream snapshot that landed in the meantime
		// wins and must not be clobbered with the stale prior.
		b.mu.Lock()
		if cur, ok := b.records[date]; ok && cur.Responses[userID].RespondedAt == token {
			if hadPrior {
				b.records[date] = prior
			} else {
				delete(b.records, date)
			}
		}
		b.mu.Unlock()
		b.broadcast()

		if b.metrics != nil {
			b.metrics.RecordWriteFailure()
		}
		b.log.Error("availability toggle write failed",
			zap.String("date", date),
			zap.String("user_id", userID),
			zap.Error(err))
		return models.DateRecord{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	// The store's fresh read is authoritative; replace the optimistic
	// record so concurrent writers' responses are not lost locally.
	b.mu.Lock()
	b.records[date] = rec
	b.mu.Unlock()
	b.broadcast()
	return rec, nil
}

// applyToggleLocked flips the user's response in the local snapshot and
// returns the resulting record. The optimistic entry is stamped like a
// confirmed one: subscribers must see an explicit toggle as responded even
// before the write lands, and the stamp pointer doubles as an identity
// token for the rollback path. Caller holds b.mu.
func (b *Board) applyToggleLocked(userID, displayName, date string) models.DateRecord {
	rec, ok := b.records[date]
	if !ok {
		rec = models.DateRecord{Date: date, Responses: make(map[string]models.Response)}
	} else {
		rec = rec.Clone()
	}
	prior := false
	if existing, ok := rec.Responses[userID]; ok {
		prior = existing.Available
	}
	ts := time.Now().UTC()
	rec.Responses[userID] = models.Response{
		UserID:      userID,
		DisplayName: displayName,
		Available:   !prior,
		RespondedAt: &ts,
	}
	b.records[date] = rec
	return rec
}

// Record returns the snapshot record for a date, if loaded.
func (b *Board) Record(date string) (models.DateRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.records[date]
	if !ok {
		return models.DateRecord{}, false
	}
	return rec.Clone(), true
}

// Load fetches a single date record into the snapshot, tolerating a
// missing document.
func (b *Board) Load(ctx context.Context, date string) (models.DateRecord, error) {
	rec, err := b.store.Get(ctx, date)
	if errors.Is(err, ErrNotFound) {
		return models.DateRecord{Date: date, Responses: map[string]models.Response{}}, nil
	}
	if err != nil {
		return models.DateRecord{}, err
	}
	b.mu.Lock()
	b.records[rec.Date] = *rec
	b.mu.Unlock()
	return rec.Clone(), nil
}

// RenameUser rewrites the display name on the user's responses across all
// loaded records, persists the change for those dates, and notifies
// subscribers. Records never loaded keep the old name until they are next
// written.
func (b *Board) RenameUser(ctx context.Context, userID, newName string) error {
	b.mu.Lock()
	var dates []string
	for date, rec := range b.records {
		resp, ok := rec.Responses[userID]
		if !ok {
			continue
		}
		rec = rec.Clone()
		resp.DisplayName = newName
		rec.Responses[userID] = resp
		b.records[date] = rec
		dates = append(dates, date)
	}
	b.mu.Unlock()

	if len(dates) == 0 {
		return nil
	}
	b.broadcast()
	if err := b.store.RenameUser(ctx, dates, userID, newName); err != nil {
		return fmt.Errorf("propagate rename: %w", err)
	}
	return nil
}

// apply installs a record that arrived from the change stream. Remote state
// wins over whatever the local snapshot holds.
func (b *Board) apply(rec models.DateRecord) {
	if rec.Responses == nil {
		rec.Responses = make(map[string]models.Response)
	}
	b.mu.Lock()
	b.records[rec.Date] = rec
	b.mu.Unlock()
	b.broadcast()
}

// remove drops a record deleted remotely.
func (b *Board) remove(date string) {
	b.mu.Lock()
	delete(b.records, date)
	b.mu.Unlock()
	b.broadcast()
}

// broadcast pushes each subscriber its current in-range snapshot.
func (b *Board) broadcast() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		sub.deliver(b.rangeLocked(sub.from, sub.to))
	}
}

// rangeLocked returns the loaded records within [from, to] sorted by date.
// Caller holds b.mu.
func (b *Board) rangeLocked(from, to string) []models.DateRecord {
	out := make([]models.DateRecord, 0, len(b.records))
	for date, rec := range b.records {
		if date < from || date > to {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// deliver replaces any undelivered snapshot with the newest one.
func (s *Subscription) deliver(snapshot []models.DateRecord) {
	for {
		select {
		case s.ch <- snapshot:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
