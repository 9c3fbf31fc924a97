// Package storage keeps resolved quote runs so a client can fetch a run by
// ID or compare two runs after a discount or rate change. The engine itself
// stays stateless; this is the HTTP surface's cache.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"esim-pricing/core/engine"
	perrors "esim-pricing/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// Store is the storage interface
type Store interface {
	// Save stores a run; a zero RunID is assigned
	Save(ctx context.Context, result *engine.Result) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id uuid.UUID) (*engine.Result, error)

	// List returns run summaries, newest first
	List(ctx context.Context, limit int) ([]Summary, error)

	// Delete removes a run
	Delete(ctx context.Context, id uuid.UUID) error

	// Close closes the store
	Close() error
}

// Summary describes a stored run without its quotes
type Summary struct {
	RunID      uuid.UUID `json:"run_id"`
	ResolvedAt time.Time `json:"resolved_at"`
	Currency   string    `json:"currency"`
	Quotes     int       `json:"quotes"`
	Hidden     int       `json:"hidden"`
	ConfigHash string    `json:"config_hash"`
}

func summarize(r *engine.Result) Summary {
	return Summary{
		RunID:      r.RunID,
		ResolvedAt: r.ResolvedAt,
		Currency:   r.Currency.String(),
		Quotes:     len(r.Quotes),
		Hidden:     len(r.Hidden),
		ConfigHash: r.ConfigHash.Short(),
	}
}

// PriceChange is one package whose quote differs between two runs
type PriceChange struct {
	PackageCode string          `json:"package_code"`
	Old         decimal.Decimal `json:"old"`
	New         decimal.Decimal `json:"new"`
	Delta       decimal.Decimal `json:"delta"`
}

// CompareResult lists what changed between two runs
type CompareResult struct {
	OldID   uuid.UUID     `json:"old_id"`
	NewID   uuid.UUID     `json:"new_id"`
	Changed []PriceChange `json:"changed,omitempty"`
	Added   []string      `json:"added,omitempty"`
	Removed []string      `json:"removed,omitempty"`

	// ConfigChanged is true when the runs read different discount configs
	ConfigChanged bool `json:"config_changed"`
}

// Compare diffs two runs by package code on the unrounded USD final price,
// so runs in different display currencies still compare.
func Compare(ctx context.Context, s Store, oldID, newID uuid.UUID) (*CompareResult, error) {
	oldRun, err := s.Get(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newRun, err := s.Get(ctx, newID)
	if err != nil {
		return nil, err
	}

	out := &CompareResult{
		OldID:         oldID,
		NewID:         newID,
		ConfigChanged: oldRun.ConfigHash != newRun.ConfigHash,
	}
	before := make(map[string]decimal.Decimal, len(oldRun.Quotes))
	for _, q := range oldRun.Quotes {
		before[q.PackageCode] = q.FinalUSD
	}
	for _, q := range newRun.Quotes {
		prev, ok := before[q.PackageCode]
		if !ok {
			out.Added = append(out.Added, q.PackageCode)
			continue
		}
		delete(before, q.PackageCode)
		if !prev.Equal(q.FinalUSD) {
			out.Changed = append(out.Changed, PriceChange{
				PackageCode: q.PackageCode,
				Old:         prev,
				New:         q.FinalUSD,
				Delta:       q.FinalUSD.Sub(prev),
			})
		}
	}
	for _, q := range oldRun.Quotes {
		if _, gone := before[q.PackageCode]; gone {
			out.Removed = append(out.Removed, q.PackageCode)
		}
	}
	return out, nil
}

func notFound(id uuid.UUID) error {
	return perrors.NotFound("quote run", id.String())
}

// FileStore is a file-based storage backend, one JSON file per run
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.basePath, id.String()+".json")
}

func (s *FileStore) Save(ctx context.Context, result *engine.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.RunID == uuid.Nil {
		result.RunID = uuid.New()
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := os.WriteFile(s.path(result.RunID), data, 0644); err != nil {
		return fmt.Errorf("failed to write run: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id uuid.UUID) (*engine.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.path(id), id)
}

func (s *FileStore) read(path string, id uuid.UUID) (*engine.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	var result engine.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, perrors.Parsing("decode stored run", err).WithContext("run_id", id.String())
	}
	return &result, nil
}

func (s *FileStore) List(ctx context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id, err := uuid.Parse(entry.Name()[:len(entry.Name())-len(".json")])
		if err != nil {
			continue
		}
		result, err := s.read(filepath.Join(s.basePath, entry.Name()), id)
		if err != nil {
			continue // skip unreadable files
		}
		out = append(out, summarize(result))
	}
	return newestFirst(out, limit), nil
}

func (s *FileStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// MemoryStore is an in-memory backend holding at most maxRuns runs. The
// oldest run is evicted first.
type MemoryStore struct {
	results map[uuid.UUID]*engine.Result
	order   []uuid.UUID
	maxRuns int
	mu      sync.RWMutex
}

// NewMemoryStore creates a memory store; maxRuns <= 0 means unbounded
func NewMemoryStore(maxRuns int) *MemoryStore {
	return &MemoryStore{
		results: make(map[uuid.UUID]*engine.Result),
		maxRuns: maxRuns,
	}
}

func (s *MemoryStore) Save(ctx context.Context, result *engine.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.RunID == uuid.Nil {
		result.RunID = uuid.New()
	}
	if _, exists := s.results[result.RunID]; !exists {
		s.order = append(s.order, result.RunID)
	}
	s.results[result.RunID] = result

	for s.maxRuns > 0 && len(s.order) > s.maxRuns {
		delete(s.results, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*engine.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[id]
	if !ok {
		return nil, notFound(id)
	}
	return result, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, summarize(s.results[id]))
	}
	return newestFirst(out, limit), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[id]; !ok {
		return notFound(id)
	}
	delete(s.results, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func newestFirst(runs []Summary, limit int) []Summary {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].ResolvedAt.After(runs[j].ResolvedAt)
	})
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs
}

// StoreFactory creates stores by backend type
func StoreFactory(backend Backend, path string, maxRuns int) (Store, error) {
	switch backend {
	case BackendFile:
		if path == "" {
			path = ".esim-pricing/runs"
		}
		return NewFileStore(path)
	case BackendMemory, "":
		return NewMemoryStore(maxRuns), nil
	default:
		return nil, perrors.Newf(perrors.TypeConfig, "unsupported store backend: %s", backend)
	}
}

// Ensure interfaces are implemented
var _ io.Closer = (*FileStore)(nil)
var _ io.Closer = (*MemoryStore)(nil)
var _ Store = (*FileStore)(nil)
var _ Store = (*MemoryStore)(nil)
