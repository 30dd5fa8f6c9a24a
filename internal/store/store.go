// Package store keeps alignment sessions in memory for the HTTP server.
//
// Sessions are independent: each Entry serializes its own operations with a
// mutex, while the Store map is guarded separately so lookups on one session
// never wait on work in another. The store bounds both the number of
// sessions and the matrix cells they hold, and drops sessions left idle.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/metrics"
	"github.com/aria-lang/stepalign-go/internal/sequence"
)

var (
	// ErrSessionNotFound is returned for unknown or deleted session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreFull is returned when the session or cell budget is spent.
	ErrStoreFull = errors.New("session store is full")
)

// Limits bounds what a Store holds. Zero or less disables a limit.
type Limits struct {
	// MaxSessions caps the number of live sessions.
	MaxSessions int
	// MaxTotalCells caps the matrix cells, boundaries included, summed
	// over all live sessions.
	MaxTotalCells int
	// IdleTimeout is how long a session may go unused before ExpireIdle
	// removes it.
	IdleTimeout time.Duration
}

// Store is a concurrency-safe registry of sessions keyed by UUID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
	cells    int
	limits   Limits
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a store bounded by limits.
func New(limits Limits, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Entry),
		limits:   limits,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates the inputs, builds a session and registers it.
func (s *Store) Create(seq1, seq2 *sequence.Sequence, costs *alignment.CostModel) (*Entry, error) {
	session, err := alignment.NewSession(seq1, seq2, costs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	m := session.Matrix()
	entry := &Entry{
		ID:      uuid.NewString(),
		Created: now.UTC(),
		cells:   m.Rows() * m.Cols(),
		session: session,
	}
	entry.touch(now)

	s.mu.Lock()
	if limit := s.limits.MaxSessions; limit > 0 && len(s.sessions) >= limit {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d sessions", ErrStoreFull, limit)
	}
	if limit := s.limits.MaxTotalCells; limit > 0 && s.cells+entry.cells > limit {
		used := s.cells
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d of %d cells in use, session needs %d",
			ErrStoreFull, used, limit, entry.cells)
	}
	s.sessions[entry.ID] = entry
	s.cells += entry.cells
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Inc()
	a, b := session.Sequences()
	s.logger.Info("session created",
		slog.String("id", entry.ID),
		slog.Int("len1", a.Len()),
		slog.Int("len2", b.Len()),
		slog.Int("active", count))
	return entry, nil
}

// Get returns the session registered under id and marks it used.
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	entry.touch(s.now())
	return entry, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		s.cells -= entry.cells
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	metrics.SessionsActive.Dec()
	s.logger.Info("session deleted", slog.String("id", id))
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cells returns the matrix cells held by live sessions.
func (s *Store) Cells() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cells
}

// ExpireIdle removes sessions unused for longer than the idle timeout and
// returns how many it removed.
func (s *Store) ExpireIdle() int {
	if s.limits.IdleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.limits.IdleTimeout)

	var expired []string
	s.mu.Lock()
	for id, entry := range s.sessions {
		if entry.lastUsed().Before(cutoff) {
			delete(s.sessions, id)
			s.cells -= entry.cells
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		metrics.SessionsActive.Dec()
		s.logger.Info("session expired", slog.String("id", id))
	}
	return len(expired)
}

// Run expires idle sessions periodically until ctx is done. It returns
// at once when no idle timeout is configured.
func (s *Store) Run(ctx context.Context) {
	if s.limits.IdleTimeout <= 0 {
		return
	}
	interval := s.limits.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireIdle()
		}
	}
}

// Entry is one registered session. All methods are safe for concurrent use.
type Entry struct {
	ID      string
	Created time.Time

	cells int
	used  atomic.Int64 // unix nanoseconds of the last lookup

	mu      sync.Mutex
	session *alignment.Session
}

func (e *Entry) touch(now time.Time) {
	e.used.Store(now.UnixNano())
}

func (e *Entry) lastUsed() time.Time {
	return time.Unix(0, e.used.Load())
}

// View is a point-in-time description of a session.
type View struct {
	ID         string       `json:"id"`
	Created    time.Time    `json:"created"`
	Sequence1  string       `json:"sequence1"`
	Sequence2  string       `json:"sequence2"`
	State      string       `json:"state"`
	Rows       int          `json:"rows"`
	Cols       int          `json:"cols"`
	Cursor     [2]int       `json:"cursor"`
	Filled     int          `json:"filled"`
	HistoryLen int          `json:"history_len"`
	Scores     [][]*float64 `json:"scores"`
	FinalScore *float64     `json:"final_score,omitempty"`
}

// View snapshots the session.
func (e *Entry) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	s1, s2 := e.session.Sequences()
	m := e.session.Matrix()
	cursor := e.session.Cursor()

	v := View{
		ID:         e.ID,
		Created:    e.Created,
		Sequence1:  s1.Bases,
		Sequence2:  s2.Bases,
		State:      e.session.State().String(),
		Rows:       m.Rows(),
		Cols:       m.Cols(),
		Cursor:     [2]int{cursor.Row, cursor.Col},
		Filled:     m.Filled(),
		HistoryLen: e.session.HistoryLen(),
		Scores:     m.Snapshot(),
	}
	if score, ok := e.session.FinalScore(); ok {
		v.FinalScore = &score
	}
	return v
}

// Step fills one cell.
func (e *Entry) Step() (alignment.StepOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := e.session.Step()
	if err != nil {
		return out, err
	}
	if out.Advanced {
		metrics.ObserveSteps(metrics.ModeStep, 1)
	}
	return out, nil
}

// Finish completes the matrix, honoring ctx between rows.
func (e *Entry) Finish(ctx context.Context) (alignment.FinalOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.session.Matrix().Filled()
	start := time.Now()
	out, err := e.session.FinishContext(ctx)
	metrics.ObserveFinish(time.Since(start), e.session.Matrix().Filled()-before)
	return out, err
}

// Undo reverts the latest step.
func (e *Entry) Undo() (alignment.UndoOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := e.session.Undo()
	if err != nil {
		return out, err
	}
	metrics.UndoTotal.Inc()
	return out, nil
}

// Alignments enumerates up to limit optimal alignments.
func (e *Entry) Alignments(limit int) ([]*alignment.Alignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := e.session.Alignments(limit)
	if err != nil {
		return nil, err
	}
	metrics.AlignmentsEnumerated.Observe(float64(len(out)))
	return out, nil
}

// Costs returns the session's cost model.
func (e *Entry) Costs() *alignment.CostModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Costs()
}
