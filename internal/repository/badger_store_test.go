package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"pointing-poker/internal/domain"
)

func newTestBadgerStore(t *testing.T) (*BadgerStore, *badger.DB) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := NewBadgerStore(db)
	require.NoError(t, err)
	return s, db
}

func setRaw(t *testing.T, db *badger.DB, key string, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), b)
	}))
}

func TestBadgerStore_CreateThenGetRoundTrip(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	ctx := context.Background()
	want := testSession("s-1")

	require.NoError(t, s.Create(ctx, want))
	got, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, want, *got)
}

func TestBadgerStore_GetMissingIsAbsent(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	got, err := s.Get(context.Background(), "never-created")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestBadgerStore_PartitionsDoNotLeak(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testSession("s-1")))
	require.NoError(t, s.Create(ctx, testSession("s-10")))
	require.NoError(t, s.AddParticipant(ctx, "s-10", domain.Participant{ID: "p-1", Name: "Alice"}))

	got, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	require.Empty(t, got.Participants)

	got, err = s.Get(ctx, "s-10")
	require.NoError(t, err)
	require.Len(t, got.Participants, 1)
}

func TestBadgerStore_AddGetRemoveParticipant(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testSession("s-1")))

	vote := 2
	p := domain.Participant{ID: "p-1", Name: "Alice", CurrentVote: &vote}
	require.NoError(t, s.AddParticipant(ctx, "s-1", p))

	got, err := s.GetParticipant(ctx, "s-1", "p-1")
	require.NoError(t, err)
	require.Equal(t, p, *got)

	sess, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, []domain.Participant{p}, sess.Participants)

	require.NoError(t, s.RemoveParticipant(ctx, "s-1", "p-1"))
	require.NoError(t, s.RemoveParticipant(ctx, "s-1", "p-1"))

	got, err = s.GetParticipant(ctx, "s-1", "p-1")
	require.NoError(t, err)
	require.Nil(t, got)

	sess, err = s.Get(ctx, "s-1")
	require.NoError(t, err)
	require.Empty(t, sess.Participants)
}

func TestBadgerStore_GetParticipantOnSessionKeyIsAbsent(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testSession("s-1")))

	got, err := s.GetParticipant(ctx, "s-1", "s-1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestBadgerStore_ParticipantsWithoutSession(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddParticipant(ctx, "s-1", domain.Participant{ID: "p-1", Name: "Alice"}))

	_, err := s.Get(ctx, "s-1")
	require.ErrorIs(t, err, ErrInconsistentState)
}

func TestBadgerStore_UnknownRecordType(t *testing.T) {
	s, db := newTestBadgerStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testSession("s-1")))
	setRaw(t, db, "session#s-1#x", recordKey{SessionID: "s-1", ID: "x", Type: "ballot"})

	_, err := s.Get(ctx, "s-1")
	require.ErrorIs(t, err, ErrInconsistentState)
}

func TestBadgerStore_UndecodableRecords(t *testing.T) {
	s, db := newTestBadgerStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testSession("s-1")))
	setRaw(t, db, "session#s-1#p-1", map[string]any{
		"sessionID": "s-1", "id": "p-1", "type": "participant", "name": "Alice", "currentVote": "five",
	})

	_, err := s.Get(ctx, "s-1")
	require.ErrorIs(t, err, ErrInconsistentState)

	_, err = s.GetParticipant(ctx, "s-1", "p-1")
	require.ErrorIs(t, err, ErrInconsistentState)
}

func TestBadgerStore_RejectsSeparatorInIDs(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	ctx := context.Background()

	err := s.Create(ctx, testSession("a#b"))
	require.Error(t, err)

	err = s.AddParticipant(ctx, "s-1", domain.Participant{ID: "p#1", Name: "Alice"})
	require.Error(t, err)

	got, err := s.Get(ctx, "a#b")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestBadgerStore_CreateOverwrites(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	ctx := context.Background()
	sess := testSession("s-1")
	require.NoError(t, s.Create(ctx, sess))
	sess.IsOpen = false
	require.NoError(t, s.Create(ctx, sess))

	got, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	require.False(t, got.IsOpen)
}

func TestBadgerStore_CanceledContext(t *testing.T) {
	s, _ := newTestBadgerStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Create(ctx, testSession("s-1"))
	require.ErrorIs(t, err, context.Canceled)
	_, err = s.Get(ctx, "s-1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewBadgerStore_NilDB(t *testing.T) {
	_, err := NewBadgerStore(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}
