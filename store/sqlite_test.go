package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compile-time check
var _ interfaces.EntryRecorder = (*Store)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "timeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(seq uint64) timeline.Entry {
	return timeline.Entry{
		Timestamp:       1700000000000 + int64(seq),
		Sequence:        seq,
		EventType:       "Progress",
		FromState:       "Transferring",
		ToState:         "Transferring",
		ActionsProduced: []string{"UpdateProgress{transfer_id=t1 bytes=1024 total=4096 speed=0.0}"},
		Data:            "bytes=1024",
	}
}

func TestRecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, seq := range []uint64{3, 1, 2} {
		require.NoError(t, s.RecordEntry(ctx, entry(seq)))
	}

	entries, err := s.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, uint64(i+1), e.Sequence)
	}
	assert.Equal(t, entry(1), entries[0])
}

func TestListAfterAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for seq := uint64(1); seq <= 10; seq++ {
		require.NoError(t, s.RecordEntry(ctx, entry(seq)))
	}

	entries, err := s.ListEntries(ctx, 4, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(5), entries[0].Sequence)
	assert.Equal(t, uint64(7), entries[2].Sequence)
}

func TestEmptyActions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := entry(1)
	e.ActionsProduced = nil
	e.Data = ""
	require.NoError(t, s.RecordEntry(ctx, e))

	entries, err := s.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ActionsProduced)
	assert.Empty(t, entries[0].Data)
}

func TestCountAndPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for seq := uint64(1); seq <= 5; seq++ {
		require.NoError(t, s.RecordEntry(ctx, entry(seq)))
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	removed, err := s.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordEntry(ctx, entry(1)))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInMemory(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RecordEntry(context.Background(), entry(1)))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecorderWithTimeline(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tl := timeline.New(2)

	for i := 0; i < 5; i++ {
		e := entry(tl.NextSequence())
		tl.Record(e)
		require.NoError(t, s.RecordEntry(ctx, e))
	}

	// The ring buffer keeps the last two, the store keeps everything.
	assert.Equal(t, 2, tl.Len())
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestMaxSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	last, err := s.MaxSequence(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	for _, seq := range []uint64{5, 12, 7} {
		require.NoError(t, s.RecordEntry(ctx, entry(seq)))
	}
	last, err = s.MaxSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), last)
}

func TestContinuedTimelineKeepsStoredOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := func() {
		last, err := s.MaxSequence(ctx)
		require.NoError(t, err)
		tl := timeline.New(10, timeline.WithSequenceAfter(last))
		for i := 0; i < 3; i++ {
			e := entry(tl.NextSequence())
			tl.Record(e)
			require.NoError(t, s.RecordEntry(ctx, e))
		}
	}
	record()
	record()

	entries, err := s.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 6)
	for i, e := range entries {
		assert.Equal(t, uint64(i+1), e.Sequence)
	}
}
