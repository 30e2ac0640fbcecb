package artifact

import (
	"context"
	"sync"
	"time"
)

// Record is what the ledger remembers about a live artifact
type Record struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Ledger tracks artifacts that still have a pending deletion. The Store uses
// it on startup to tell live artifacts apart from orphans.
type Ledger interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, name string) (Record, bool, error)
	Delete(ctx context.Context, name string) error
}

// MemoryLedger is the process-local ledger. It starts empty, so every file
// found by a startup sweep is treated as an orphan.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]Record)}
}

func (l *MemoryLedger) Put(_ context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[rec.Name] = rec
	return nil
}

func (l *MemoryLedger) Get(_ context.Context, name string) (Record, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[name]
	return rec, ok, nil
}

func (l *MemoryLedger) Delete(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, name)
	return nil
}

// Len returns the number of tracked records
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
