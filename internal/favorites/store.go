package favorites

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/i474232898/country-insights/internal/country"
	"github.com/i474232898/country-insights/internal/logging"
	"github.com/i474232898/country-insights/internal/metrics"
)

var (
	// ErrInvalidCountry is returned when a country cannot be saved.
	ErrInvalidCountry = errors.New("invalid country")

	validate = validator.New()
)

// Store is the set of saved countries, keyed by country code. Every mutation
// is applied in memory first and then written through the Persister; a
// persistence error is returned but does not roll the mutation back.
type Store struct {
	mu        sync.RWMutex
	saved     map[string]SavedCountry
	persister Persister
	now       func() time.Time
}

// NewStore loads the persisted snapshot and returns a ready store.
func NewStore(p Persister) (*Store, error) {
	if p == nil {
		p = NewMemoryPersister(nil)
	}
	snap, err := p.Load()
	if err != nil {
		return nil, err
	}

	saved := make(map[string]SavedCountry, len(snap.Saved))
	for code, sc := range snap.Saved {
		code = normalize(code)
		if code == "" {
			continue
		}
		sc.Code = code
		saved[code] = sc
	}

	s := &Store{saved: saved, persister: p, now: time.Now}
	metrics.SetFavorites(len(saved))
	return s, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Add saves c, overwriting any existing entry for the same code with a fresh
// savedAt.
func (s *Store) Add(c country.CountrySummary) (SavedCountry, error) {
	c.Code = normalize(c.Code)
	if err := validate.Struct(c); err != nil {
		return SavedCountry{}, fmt.Errorf("%w: %v", ErrInvalidCountry, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc := SavedCountry{CountrySummary: c, SavedAt: s.now().UTC()}
	s.saved[c.Code] = sc
	return sc, s.commitLocked()
}

// Remove deletes code. Removing a code that is not saved is a no-op.
func (s *Store) Remove(code string) error {
	code = normalize(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.saved[code]; !ok {
		return nil
	}
	delete(s.saved, code)
	return s.commitLocked()
}

// Toggle saves c when it is absent and removes it when present. It reports
// whether c is saved afterwards.
func (s *Store) Toggle(c country.CountrySummary) (bool, error) {
	c.Code = normalize(c.Code)
	if err := validate.Struct(c); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidCountry, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.saved[c.Code]; ok {
		delete(s.saved, c.Code)
		return false, s.commitLocked()
	}
	s.saved[c.Code] = SavedCountry{CountrySummary: c, SavedAt: s.now().UTC()}
	return true, s.commitLocked()
}

// Clear removes every saved country.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saved = make(map[string]SavedCountry)
	return s.commitLocked()
}

// IsSaved reports whether code is saved.
func (s *Store) IsSaved(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.saved[normalize(code)]
	return ok
}

// Get returns the saved entry for code.
func (s *Store) Get(code string) (SavedCountry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.saved[normalize(code)]
	return sc, ok
}

// Len returns the number of saved countries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.saved)
}

// ToArray returns all saved countries ordered by display name using
// locale-aware collation. Equal names are ordered by code.
func (s *Store) ToArray() []SavedCountry {
	s.mu.RLock()
	out := make([]SavedCountry, 0, len(s.saved))
	for _, sc := range s.saved {
		out = append(out, sc)
	}
	s.mu.RUnlock()

	// collate.Collator is not safe for concurrent use.
	col := collate.New(language.Und)
	sort.Slice(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func (s *Store) commitLocked() error {
	metrics.SetFavorites(len(s.saved))
	if err := s.persister.Save(Snapshot{Saved: cloneSaved(s.saved)}); err != nil {
		logging.For("favorites").WithError(err).Error("failed to persist favorites")
		return err
	}
	return nil
}
