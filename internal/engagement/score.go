// Package engagement accumulates per-session engagement points and fires
// one-shot threshold events used to signal ad-platform bidding systems.
package engagement

import (
	"sync"
	"time"
)

// Score thresholds. Each fires at most once per session.
const (
	HighIntentThreshold = 100
	QualifiedThreshold  = 150
)

// Event is one scored action.
type Event struct {
	Action    string    `json:"action"`
	Points    int       `json:"points"`
	ToolID    string    `json:"tool_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the per-session scoring state. The two fired flags are monotonic:
// once true they never reset within the session, so dropping back under a
// threshold cannot re-arm it.
type State struct {
	TotalScore      int     `json:"totalScore"`
	Events          []Event `json:"events"`
	HighIntentFired bool    `json:"highIntentFired"`
	QualifiedFired  bool    `json:"qualifiedFired"`
}

// StateStore persists scoring state per session. Injectable so tests stay
// isolated from any shared module-level cache.
type StateStore interface {
	Load(sessionID string) (State, bool)
	Save(sessionID string, s State)
}

// Threshold describes a threshold crossing produced by a Track call.
type Threshold struct {
	Name       string // "HighIntentUser" | "QualifiedProspect"
	Threshold  int
	TotalScore int
	LastAction string
}

// Scorer applies point deltas and detects threshold crossings.
type Scorer struct {
	store StateStore
	now   func() time.Time
}

// NewScorer builds a scorer over the given state store.
func NewScorer(store StateStore) *Scorer {
	return &Scorer{store: store, now: time.Now}
}

// Track adds points for an action and returns any thresholds crossed by this
// call. A corrupt or missing state loads as zeroed, matching first touch.
// Both checks are independent: a single large delta can cross both at once,
// and the 150 event can fire without the caller ever having observed the 100.
func (s *Scorer) Track(sessionID, action string, points int, toolID string) []Threshold {
	st, _ := s.store.Load(sessionID)

	st.TotalScore += points
	st.Events = append(st.Events, Event{
		Action:    action,
		Points:    points,
		ToolID:    toolID,
		Timestamp: s.now().UTC(),
	})

	var crossed []Threshold
	if !st.HighIntentFired && st.TotalScore >= HighIntentThreshold {
		st.HighIntentFired = true
		crossed = append(crossed, Threshold{
			Name:       "HighIntentUser",
			Threshold:  HighIntentThreshold,
			TotalScore: st.TotalScore,
			LastAction: action,
		})
	}
	if !st.QualifiedFired && st.TotalScore >= QualifiedThreshold {
		st.QualifiedFired = true
		crossed = append(crossed, Threshold{
			Name:       "QualifiedProspect",
			Threshold:  QualifiedThreshold,
			TotalScore: st.TotalScore,
			LastAction: action,
		})
	}

	s.store.Save(sessionID, st)
	return crossed
}

// MemoryStore is the default in-process StateStore. Load and Save are
// individually atomic but a Track's load-modify-save pair is not; interleaved
// calls can drop points. Tolerated: the score is an approximate engagement
// signal, not a billing-grade counter.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStore builds an empty in-memory state store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Load returns the state for a session, zeroed when unknown.
func (m *MemoryStore) Load(sessionID string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[sessionID]
	return s, ok
}

// Save stores the state for a session.
func (m *MemoryStore) Save(sessionID string, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[sessionID] = s
}
