package favorites

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/i474232898/country-insights/internal/country"
)

// SavedCountry is a favorited country and the moment it was saved.
type SavedCountry struct {
	country.CountrySummary
	SavedAt time.Time `json:"savedAt"`
}

// Snapshot is the persisted form of the store: { saved: { [code]: SavedCountry } }.
type Snapshot struct {
	Saved map[string]SavedCountry `json:"saved"`
}

// Persister is the storage boundary of the favorites store. Load is called
// once when the store is created, Save after every mutation.
type Persister interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}

func cloneSaved(in map[string]SavedCountry) map[string]SavedCountry {
	out := make(map[string]SavedCountry, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// MemoryPersister keeps the snapshot in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	snap  Snapshot
	saves int
}

// NewMemoryPersister creates a persister seeded with initial entries.
func NewMemoryPersister(initial map[string]SavedCountry) *MemoryPersister {
	return &MemoryPersister{snap: Snapshot{Saved: cloneSaved(initial)}}
}

func (p *MemoryPersister) Load() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{Saved: cloneSaved(p.snap.Saved)}, nil
}

func (p *MemoryPersister) Save(s Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = Snapshot{Saved: cloneSaved(s.Saved)}
	p.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// FilePersister stores the snapshot as a JSON document on disk.
type FilePersister struct {
	Path string
}

// NewFilePersister creates a persister backed by path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

// Load reads the snapshot. A missing file is an empty store.
func (p *FilePersister) Load() (Snapshot, error) {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{Saved: map[string]SavedCountry{}}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read favorites: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode favorites: %w", err)
	}
	if snap.Saved == nil {
		snap.Saved = map[string]SavedCountry{}
	}
	return snap, nil
}

// Save writes the snapshot through a temporary file and renames it into place.
func (p *FilePersister) Save(s Snapshot) error {
	if s.Saved == nil {
		s.Saved = map[string]SavedCountry{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create favorites dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.Path); err != nil {
		return fmt.Errorf("failed to replace favorites: %w", err)
	}
	return nil
}
