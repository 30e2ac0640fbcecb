package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ai-character-chat/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	created atomic.Int64
	deleted atomic.Int64
}

func (o *countingObserver) ArtifactCreated(context.Context, int64) { o.created.Add(1) }
func (o *countingObserver) ArtifactDeleted(context.Context, error) { o.deleted.Add(1) }

func newTestStore(t *testing.T, ttl time.Duration, ledger Ledger) *Store {
	t.Helper()
	store, err := NewStore(Config{
		Dir:       filepath.Join(t.TempDir(), "audio"),
		URLPrefix: "http://localhost:3001/public/audio/",
		TTL:       ttl,
	}, ledger, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(false) })
	return store
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	store := newTestStore(t, time.Minute, nil)

	info, err := os.Stat(store.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStoreRejectsZeroTTL(t *testing.T) {
	_, err := NewStore(Config{Dir: t.TempDir()}, nil, logger.Discard())
	assert.Error(t, err)
}

func TestSaveWritesUniqueFilesAndURL(t *testing.T) {
	store := newTestStore(t, time.Minute, nil)
	ctx := context.Background()

	first, err := store.Save(ctx, []byte("one"), "audio/mpeg")
	require.NoError(t, err)
	second, err := store.Save(ctx, []byte("two"), "audio/mpeg")
	require.NoError(t, err)

	assert.NotEqual(t, first.Name, second.Name)
	assert.True(t, strings.HasSuffix(first.Name, ".mp3"))
	assert.Equal(t, "http://localhost:3001/public/audio/"+first.Name, first.URL)
	assert.Equal(t, time.Minute, first.ExpiresAt.Sub(first.CreatedAt))

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
	assert.Equal(t, 2, store.Pending())
}

func TestArtifactDeletedAfterTTL(t *testing.T) {
	ledger := NewMemoryLedger()
	store := newTestStore(t, 50*time.Millisecond, ledger)
	observer := &countingObserver{}
	store.SetObserver(observer)

	art, err := store.Save(context.Background(), []byte("audio"), "audio/mpeg")
	require.NoError(t, err)

	_, err = os.Stat(art.Path)
	require.NoError(t, err, "artifact must be servable right after save")
	assert.Equal(t, 1, ledger.Len())

	assert.Eventually(t, func() bool {
		_, statErr := os.Stat(art.Path)
		return os.IsNotExist(statErr)
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return store.Pending() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, ledger.Len())
	assert.EqualValues(t, 1, observer.created.Load())
	assert.EqualValues(t, 1, observer.deleted.Load())
}

func TestDeletionToleratesMissingFile(t *testing.T) {
	store := newTestStore(t, 30*time.Millisecond, nil)

	art, err := store.Save(context.Background(), []byte("audio"), "audio/mpeg")
	require.NoError(t, err)
	require.NoError(t, os.Remove(art.Path))

	assert.Eventually(t, func() bool { return store.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSweepReschedulesLiveAndRemovesOrphans(t *testing.T) {
	ledger := NewMemoryLedger()
	store := newTestStore(t, time.Minute, ledger)
	ctx := context.Background()

	live := filepath.Join(store.Dir(), "live.mp3")
	orphan := filepath.Join(store.Dir(), "orphan.mp3")
	expired := filepath.Join(store.Dir(), "expired.mp3")
	for _, p := range []string{live, orphan, expired} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ".gitkeep"), nil, 0o644))

	require.NoError(t, ledger.Put(ctx, Record{Name: "live.mp3", ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, ledger.Put(ctx, Record{Name: "expired.mp3", ExpiresAt: time.Now().Add(-time.Second)}))

	rescheduled, removed, err := store.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, rescheduled)
	assert.Equal(t, 2, removed)
	assert.FileExists(t, live)
	assert.NoFileExists(t, orphan)
	assert.NoFileExists(t, expired)
	assert.FileExists(t, filepath.Join(store.Dir(), ".gitkeep"))
	assert.Equal(t, 1, store.Pending())

	again, _, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again, "a second sweep must not add another deletion task")
	assert.Equal(t, 1, store.Pending())
}

func TestClosePurgesPendingFiles(t *testing.T) {
	store := newTestStore(t, time.Minute, nil)

	art, err := store.Save(context.Background(), []byte("audio"), "audio/mpeg")
	require.NoError(t, err)

	store.Close(true)

	assert.NoFileExists(t, art.Path)
	assert.Zero(t, store.Pending())

	_, err = store.Save(context.Background(), []byte("late"), "audio/mpeg")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseWithoutPurgeKeepsFiles(t *testing.T) {
	store := newTestStore(t, time.Minute, nil)

	art, err := store.Save(context.Background(), []byte("audio"), "audio/mpeg")
	require.NoError(t, err)

	store.Close(false)

	assert.FileExists(t, art.Path)
}

// closingLedger closes the store while Save is between its write and scheduling
type closingLedger struct {
	*MemoryLedger
	store *Store
}

func (l *closingLedger) Put(ctx context.Context, rec Record) error {
	l.store.Close(false)
	return l.MemoryLedger.Put(ctx, rec)
}

func TestSaveRacingCloseLeavesNoFile(t *testing.T) {
	ledger := &closingLedger{MemoryLedger: NewMemoryLedger()}
	store := newTestStore(t, time.Minute, ledger)
	ledger.store = store

	art, err := store.Save(context.Background(), []byte("audio"), "audio/mpeg")

	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, art)
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, store.Pending())
}
