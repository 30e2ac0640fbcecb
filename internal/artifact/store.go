// Package artifact manages short-lived generated files (synthesized audio)
// that are served statically until their deletion timer fires.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ai-character-chat/backend/pkg/logger"

	"github.com/google/uuid"
)

// ErrClosed is returned by Save after Close
var ErrClosed = errors.New("artifact store is closed")

// Artifact is a file written by Save together with its retrieval URL
type Artifact struct {
	Name        string
	Path        string
	URL         string
	Size        int64
	ContentType string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Observer is notified about artifact lifecycle events
type Observer interface {
	ArtifactCreated(ctx context.Context, size int64)
	ArtifactDeleted(ctx context.Context, err error)
}

// Config describes where artifacts live and how long they survive
type Config struct {
	// Dir is the served directory; created if absent
	Dir string
	// URLPrefix is the absolute URL the directory is served under
	URLPrefix string
	// TTL is the delay between write completion and deletion
	TTL time.Duration
	// Extension is appended to every generated name
	Extension string
}

// Store writes uniquely named files and deletes each one exactly once after TTL.
type Store struct {
	cfg      Config
	ledger   Ledger
	log      *logger.Logger
	observer Observer

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewStore creates the directory if needed and returns a ready store
func NewStore(cfg Config, ledger Ledger, log *logger.Logger) (*Store, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("artifact TTL must be positive, got %s", cfg.TTL)
	}
	if cfg.Extension == "" {
		cfg.Extension = ".mp3"
	}
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", cfg.Dir, err)
	}

	return &Store{
		cfg:    cfg,
		ledger: ledger,
		log:    log.WithComponent("artifact_store"),
		timers: make(map[string]*time.Timer),
	}, nil
}

// SetObserver registers a lifecycle observer; call before serving traffic
func (s *Store) SetObserver(o Observer) {
	s.observer = o
}

// Dir returns the directory artifacts are written to
func (s *Store) Dir() string {
	return s.cfg.Dir
}

// Save writes data under a fresh random name and schedules its deletion.
func (s *Store) Save(ctx context.Context, data []byte, contentType string) (*Artifact, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	name := uuid.New().String() + s.cfg.Extension
	path := filepath.Join(s.cfg.Dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write artifact %s: %w", name, err)
	}

	createdAt := time.Now()
	art := &Artifact{
		Name:        name,
		Path:        path,
		URL:         s.URL(name),
		Size:        int64(len(data)),
		ContentType: contentType,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(s.cfg.TTL),
	}

	if err := s.ledger.Put(ctx, Record{Name: name, Size: art.Size, CreatedAt: createdAt, ExpiresAt: art.ExpiresAt}); err != nil {
		s.log.LogError(err, "Failed to record artifact in ledger", "artifact", name)
	}

	// Close may have run while the file was being written; nothing would delete it
	if !s.schedule(name, s.cfg.TTL) {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.LogError(err, "Error deleting unscheduled audio file", "path", path)
		}
		if err := s.ledger.Delete(ctx, name); err != nil {
			s.log.LogError(err, "Failed to drop artifact from ledger", "artifact", name)
		}
		return nil, ErrClosed
	}

	if s.observer != nil {
		s.observer.ArtifactCreated(ctx, art.Size)
	}

	return art, nil
}

// URL returns the absolute retrieval URL for name
func (s *Store) URL(name string) string {
	return strings.TrimRight(s.cfg.URLPrefix, "/") + "/" + name
}

// Pending returns the number of artifacts awaiting deletion
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// schedule arms the single deletion timer for name. A second call for the
// same name is ignored.
func (s *Store) schedule(name string, delay time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, exists := s.timers[name]; exists {
		return false
	}
	s.timers[name] = time.AfterFunc(delay, func() { s.expire(name) })
	return true
}

func (s *Store) expire(name string) {
	s.mu.Lock()
	delete(s.timers, name)
	s.mu.Unlock()

	s.remove(context.Background(), name)
}

// remove deletes the file and its ledger entry. Failures are logged only.
func (s *Store) remove(ctx context.Context, name string) {
	path := filepath.Join(s.cfg.Dir, name)

	err := os.Remove(path)
	switch {
	case err == nil:
		s.log.Info("Cleaned up audio file", "artifact", name)
	case errors.Is(err, os.ErrNotExist):
		s.log.Warn("Audio file already gone", "artifact", name)
		err = nil
	default:
		s.log.LogError(err, "Error deleting audio file", "path", path)
	}

	if ledgerErr := s.ledger.Delete(ctx, name); ledgerErr != nil {
		s.log.LogError(ledgerErr, "Failed to drop artifact from ledger", "artifact", name)
	}

	if s.observer != nil {
		s.observer.ArtifactDeleted(ctx, err)
	}
}

// Sweep reconciles files left on disk by a previous process. Files with a
// live ledger record get a deletion timer for their remaining lifetime; the
// rest are removed immediately.
func (s *Store) Sweep(ctx context.Context) (rescheduled int, removed int, err error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read artifact directory: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		rec, ok, getErr := s.ledger.Get(ctx, name)
		if getErr != nil {
			s.log.LogError(getErr, "Ledger lookup failed during sweep, leaving file", "artifact", name)
			continue
		}

		if ok && rec.ExpiresAt.After(now) {
			if s.schedule(name, rec.ExpiresAt.Sub(now)) {
				rescheduled++
			}
			continue
		}

		s.remove(ctx, name)
		removed++
	}

	s.log.Info("Artifact sweep finished", "rescheduled", rescheduled, "removed", removed)
	return rescheduled, removed, nil
}

// Close stops every pending timer. With purge set the pending files are
// deleted as well; otherwise they are left for the next startup sweep.
func (s *Store) Close(purge bool) {
	s.mu.Lock()
	s.closed = true
	names := make([]string, 0, len(s.timers))
	for name, timer := range s.timers {
		if timer.Stop() {
			names = append(names, name)
		}
	}
	s.timers = make(map[string]*time.Timer)
	s.mu.Unlock()

	if !purge {
		return
	}
	for _, name := range names {
		s.remove(context.Background(), name)
	}
}
