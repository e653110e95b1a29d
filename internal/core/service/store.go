package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
	"github.com/alphabeta/chapter-portal/internal/pkg/metrics"
)

// Table names shared by every remote backend.
const (
	TableMembers    = "members"
	TableOrganizers = "organizers"
	TableAffiliates = "affiliates"
	TableHonorRoll  = "grandChancellors"
	TableProfiles   = "profiles"
	TablePages      = "content_pages"
	TableTimeline   = "timeline_events"
)

// record is the contract every stored kind satisfies through its pointer.
type record[T any] interface {
	*T
	EntityID() string
	Stamp(id string, now time.Time)
	LastUpdated() time.Time
	// UpdatedField names the update timestamp on the wire, or "" when the
	// kind carries none.
	UpdatedField() string
	Validate() error
}

// Store mirrors one remote table in memory. Mutations are admin-only and
// touch the local collection only after the remote write succeeded.
type Store[T any, P record[T]] struct {
	name   string
	remote ports.RemoteTable[T]
	caller IdentitySource
	clock  ports.Clock
	newID  func() string
	log    zerolog.Logger

	mu    sync.RWMutex
	items []T
}

func NewStore[T any, P record[T]](
	name string,
	remote ports.RemoteTable[T],
	caller IdentitySource,
	clock ports.Clock,
	log zerolog.Logger,
) *Store[T, P] {
	return &Store[T, P]{
		name:   name,
		remote: remote,
		caller: caller,
		clock:  clock,
		newID:  uuid.NewString,
		log:    log.With().Str("store", name).Logger(),
	}
}

func (s *Store[T, P]) Name() string { return s.name }

// Load replaces the collection with the remote contents. On failure the
// previous contents stay in place and the error is only logged.
func (s *Store[T, P]) Load(ctx context.Context) {
	start := time.Now()
	rows, err := s.remote.SelectAll(ctx)
	metrics.StoreLoadDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreLoadFailuresTotal.WithLabelValues(s.name).Inc()
		s.log.Error().Err(err).Msg("load failed, keeping previous contents")
		return
	}

	s.mu.Lock()
	s.items = rows
	s.mu.Unlock()
	s.log.Debug().Int("rows", len(rows)).Msg("store loaded")
}

// Reset drops the local collection.
func (s *Store[T, P]) Reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// List returns a snapshot in insertion order.
func (s *Store[T, P]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[T, P]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get looks up a record in the local collection.
func (s *Store[T, P]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Add assigns a fresh id and timestamps to rec, inserts it remotely and
// appends the server representation.
func (s *Store[T, P]) Add(ctx context.Context, rec T) (T, error) {
	return s.insert(ctx, "add", rec, s.newID())
}

func (s *Store[T, P]) insert(ctx context.Context, op string, rec T, id string) (T, error) {
	var zero T
	if err := RequireAdmin(s.caller.Identity()); err != nil {
		s.count(op, err)
		return zero, err
	}
	if err := P(&rec).Validate(); err != nil {
		s.count(op, err)
		return zero, fmt.Errorf("%s %s: %w", s.name, op, err)
	}
	P(&rec).Stamp(id, s.now())

	saved, err := s.remote.Insert(ctx, rec)
	if err != nil {
		err = s.remoteErr(op, err)
		s.count(op, err)
		return zero, err
	}

	s.mu.Lock()
	s.put(*saved)
	s.mu.Unlock()

	s.count(op, nil)
	s.log.Info().Str("id", P(saved).EntityID()).Msg("record added")
	return *saved, nil
}

// Update sends the supplied fields plus a refreshed update timestamp and
// replaces the local record with the server result.
func (s *Store[T, P]) Update(ctx context.Context, id string, patch domain.Patcher) (T, error) {
	return s.update(ctx, "update", id, patch)
}

func (s *Store[T, P]) update(ctx context.Context, op, id string, patch domain.Patcher) (T, error) {
	var zero T
	if err := RequireAdmin(s.caller.Identity()); err != nil {
		s.count(op, err)
		return zero, err
	}
	raw, err := patch.Fields()
	if err != nil {
		s.count(op, err)
		return zero, fmt.Errorf("%s %s %s: %w", s.name, op, id, err)
	}
	fields := maps.Clone(raw)
	if fields == nil {
		fields = map[string]any{}
	}
	delete(fields, "id")

	if field := P(new(T)).UpdatedField(); field != "" {
		fields[field] = s.nextStamp(id)
	}

	updated, err := s.remote.Update(ctx, id, fields)
	if err != nil {
		err = s.remoteErr(op, err)
		s.count(op, err)
		return zero, err
	}

	s.mu.Lock()
	s.put(*updated)
	s.mu.Unlock()

	s.count(op, nil)
	s.log.Info().Str("id", id).Int("fields", len(fields)).Msg("record updated")
	return *updated, nil
}

// Delete removes the record remotely, then locally.
func (s *Store[T, P]) Delete(ctx context.Context, id string) error {
	if err := RequireAdmin(s.caller.Identity()); err != nil {
		s.count("delete", err)
		return err
	}
	return s.remove(ctx, id)
}

func (s *Store[T, P]) remove(ctx context.Context, id string) error {
	if err := s.remote.Delete(ctx, id); err != nil {
		err = s.remoteErr("delete", err)
		s.count("delete", err)
		return err
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.mu.Unlock()

	s.count("delete", nil)
	s.log.Info().Str("id", id).Msg("record deleted")
	return nil
}

// nextStamp returns a timestamp strictly after the record's current one.
func (s *Store[T, P]) nextStamp(id string) time.Time {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		prev := P(&s.items[i]).LastUpdated()
		if !now.After(prev) {
			return prev.Add(time.Millisecond)
		}
	}
	return now
}

func (s *Store[T, P]) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// put replaces the record with the same id or appends it. Caller holds mu.
func (s *Store[T, P]) put(rec T) {
	if i := s.indexOf(P(&rec).EntityID()); i >= 0 {
		s.items[i] = rec
		return
	}
	s.items = append(s.items, rec)
}

// indexOf is a linear scan; collections are a chapter's worth of rows.
func (s *Store[T, P]) indexOf(id string) int {
	for i := range s.items {
		if P(&s.items[i]).EntityID() == id {
			return i
		}
	}
	return -1
}

func (s *Store[T, P]) remoteErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("%s %s: %w", s.name, op, err)
	}
	return fmt.Errorf("%s %s: %w: %w", s.name, op, domain.ErrRemote, err)
}

func (s *Store[T, P]) count(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSelfDeletion):
		result = "denied"
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	metrics.StoreOperationsTotal.WithLabelValues(s.name, op, result).Inc()
}
