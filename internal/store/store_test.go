package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/logging"
	"github.com/aria-lang/stepalign-go/internal/sequence"
)

func newStore(limit int) *Store {
	return New(Limits{MaxSessions: limit}, logging.Discard())
}

func TestCreateAndGet(t *testing.T) {
	s := newStore(0)

	entry, err := s.Create(sequence.New("AATAAT"), sequence.New("AAGG"), nil)
	require.NoError(t, err)
	_, err = uuid.Parse(entry.ID)
	require.NoError(t, err)

	got, err := s.Get(entry.ID)
	require.NoError(t, err)
	assert.Same(t, entry, got)
	assert.Equal(t, 1, s.Len())

	view := entry.View()
	assert.Equal(t, "initialized", view.State)
	assert.Equal(t, 7, view.Rows)
	assert.Equal(t, 5, view.Cols)
	assert.Equal(t, [2]int{1, 1}, view.Cursor)
	assert.Nil(t, view.FinalScore)
	assert.Nil(t, view.Scores[1][1])
	require.NotNil(t, view.Scores[6][0])
	assert.Equal(t, -30.0, *view.Scores[6][0])
}

func TestCreateInvalid(t *testing.T) {
	s := newStore(0)

	_, err := s.Create(sequence.New("ACGT"), sequence.New("ACGN"), nil)
	assert.ErrorIs(t, err, alignment.ErrInvalidAlphabet)
	assert.Equal(t, 0, s.Len())
}

func TestCreateNilSequences(t *testing.T) {
	s := newStore(0)

	entry, err := s.Create(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "complete", entry.View().State)
}

func TestStoreFull(t *testing.T) {
	s := newStore(2)

	for i := 0; i < 2; i++ {
		_, err := s.Create(sequence.New("A"), sequence.New("A"), nil)
		require.NoError(t, err)
	}
	_, err := s.Create(sequence.New("A"), sequence.New("A"), nil)
	assert.True(t, errors.Is(err, ErrStoreFull))
}

func TestDelete(t *testing.T) {
	s := newStore(0)
	entry, err := s.Create(sequence.New("AC"), sequence.New("A"), nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(entry.ID))
	_, err = s.Get(entry.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.Delete(entry.ID), ErrSessionNotFound)
}

func TestEntryLifecycle(t *testing.T) {
	s := newStore(0)
	entry, err := s.Create(sequence.New("AATAAT"), sequence.New("AAGG"), alignment.DefaultNucleotide(-5))
	require.NoError(t, err)

	_, err = entry.Undo()
	assert.ErrorIs(t, err, alignment.ErrNoHistory)

	_, err = entry.Alignments(0)
	assert.ErrorIs(t, err, alignment.ErrIncompleteMatrix)

	out, err := entry.Step()
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.Score)
	assert.Equal(t, "stepping", entry.View().State)

	undo, err := entry.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, undo.Row)
	assert.Equal(t, 1, undo.Col)

	final, err := entry.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20.0, final.Score)

	view := entry.View()
	assert.Equal(t, "complete", view.State)
	require.NotNil(t, view.FinalScore)
	assert.Equal(t, 20.0, *view.FinalScore)

	alignments, err := entry.Alignments(10)
	require.NoError(t, err)
	require.Len(t, alignments, 1)
	assert.Equal(t, "AA-GG-", alignments[0].AlignedSeq2)
}

func TestConcurrentSessions(t *testing.T) {
	s := newStore(0)

	pairs := [][2]string{
		{"AATAAT", "AAGG"},
		{"ACGT", "ACGT"},
		{"AAAA", "AA"},
		{"GATTACA", "GCATGCT"},
	}
	want := []float64{20, 40, 10}

	entries := make([]*Entry, len(pairs))
	for i, p := range pairs {
		e, err := s.Create(sequence.New(p[0]), sequence.New(p[1]), nil)
		require.NoError(t, err)
		entries[i] = e
	}

	var wg sync.WaitGroup
	for _, e := range entries {
		for k := 0; k < 4; k++ {
			wg.Add(1)
			go func(e *Entry) {
				defer wg.Done()
				for {
					out, err := e.Step()
					if err != nil || out.IsComplete {
						return
					}
				}
			}(e)
		}
	}
	wg.Wait()

	for i, w := range want {
		view := entries[i].View()
		require.NotNil(t, view.FinalScore)
		assert.Equal(t, w, *view.FinalScore)
	}
	assert.Equal(t, "complete", entries[3].View().State)
}

func TestCellBudget(t *testing.T) {
	s := New(Limits{MaxTotalCells: 48}, logging.Discard())

	// 7x5 matrix
	first, err := s.Create(sequence.New("AATAAT"), sequence.New("AAGG"), nil)
	require.NoError(t, err)
	assert.Equal(t, 35, s.Cells())

	_, err = s.Create(sequence.New("AAAA"), sequence.New("AA"), nil) // 5x3
	assert.ErrorIs(t, err, ErrStoreFull)
	assert.Equal(t, 1, s.Len())

	_, err = s.Create(sequence.New("AA"), sequence.New("AAA"), nil) // 3x4
	require.NoError(t, err)
	assert.Equal(t, 47, s.Cells())

	require.NoError(t, s.Delete(first.ID))
	assert.Equal(t, 12, s.Cells())

	_, err = s.Create(sequence.New("AAAA"), sequence.New("AA"), nil)
	require.NoError(t, err)
}

func TestExpireIdle(t *testing.T) {
	s := New(Limits{IdleTimeout: time.Minute}, logging.Discard())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	stale, err := s.Create(sequence.New("AC"), sequence.New("A"), nil)
	require.NoError(t, err)
	fresh, err := s.Create(sequence.New("AC"), sequence.New("A"), nil)
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, err = s.Get(fresh.ID)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, s.ExpireIdle())

	_, err = s.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Cells())
}

func TestExpireIdleDisabled(t *testing.T) {
	s := newStore(0)
	_, err := s.Create(sequence.New("A"), sequence.New("A"), nil)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.Equal(t, 0, s.ExpireIdle())
	assert.Equal(t, 1, s.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx) // returns immediately without an idle timeout
}
