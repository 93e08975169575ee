package session

import (
	"context"
	"log/slog"
	"sync"
)

// lastVisitKey is housekeeping noise, not session data; it is ignored when
// deciding whether local state is empty.
const lastVisitKey = "lastVisit"

// ProfileStore is the subset of the store the syncer needs.
type ProfileStore interface {
	UpsertProfileSessionData(ctx context.Context, email string, sessionData map[string]any) error
	GetProfileSessionData(ctx context.Context, email string) (map[string]any, error)
}

// Syncer pushes accumulated local session data to the user's profile, or
// hydrates from the profile when local state is empty. The two directions are
// mutually exclusive per call. Each authenticated user syncs at most once
// until Reset (logout); the flag is set regardless of outcome so a failing
// backend cannot cause a retry storm.
type Syncer struct {
	store ProfileStore
	log   *slog.Logger

	mu     sync.Mutex
	synced map[string]bool
}

// NewSyncer builds a syncer over the given profile store.
func NewSyncer(store ProfileStore, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{store: store, log: log, synced: make(map[string]bool)}
}

// Action values returned by SyncOrHydrate.
const (
	ActionSynced   = "synced"
	ActionHydrated = "hydrated"
	ActionSkipped  = "skipped"
)

// SyncOrHydrate runs the once-per-session sync decision for an authenticated
// user. Returns the action taken and, for hydrate, the stored snapshot.
// Failures are logged and reported as skipped; they never propagate.
func (s *Syncer) SyncOrHydrate(ctx context.Context, email string, sessionData map[string]any, reason string) (string, map[string]any) {
	s.mu.Lock()
	already := s.synced[email]
	s.synced[email] = true
	s.mu.Unlock()

	if already {
		return ActionSkipped, nil
	}

	if hasSessionData(sessionData) {
		if err := s.store.UpsertProfileSessionData(ctx, email, sessionData); err != nil {
			s.log.Warn("session sync failed",
				"component", "session",
				"email", email,
				"reason", reason,
				"error", err,
			)
			return ActionSkipped, nil
		}
		s.log.Info("session synced",
			"component", "session",
			"email", email,
			"reason", reason,
			"fields", len(sessionData),
		)
		return ActionSynced, nil
	}

	stored, err := s.store.GetProfileSessionData(ctx, email)
	if err != nil {
		s.log.Warn("session hydrate failed",
			"component", "session",
			"email", email,
			"error", err,
		)
		return ActionSkipped, nil
	}
	return ActionHydrated, stored
}

// Reset clears the synced flag for a user, typically on logout.
func (s *Syncer) Reset(email string) {
	s.mu.Lock()
	delete(s.synced, email)
	s.mu.Unlock()
}

// hasSessionData reports whether the payload carries anything beyond the
// lastVisit housekeeping field.
func hasSessionData(data map[string]any) bool {
	for k := range data {
		if k != lastVisitKey {
			return true
		}
	}
	return false
}
