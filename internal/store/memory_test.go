package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(max int) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(max)
	s.now = clock.Now
	return s, clock
}

func TestMemoryStore_SaveGet(t *testing.T) {
	s, _ := newTestStore(0)
	s.Save("https://example.test/all", []byte(`[]`), time.Minute)

	body, err := s.Get("https://example.test/all")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), body)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(0)
	_, err := s.Get("nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s, clock := newTestStore(0)
	s.Save("k", []byte("v"), 30*time.Minute)

	clock.Advance(29 * time.Minute)
	_, err := s.Get("k")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, s.Prune())
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_ZeroTTLSkipsCaching(t *testing.T) {
	s, _ := newTestStore(0)
	s.Save("k", []byte("v"), 0)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_SaveCopiesBody(t *testing.T) {
	s, _ := newTestStore(0)
	body := []byte("abc")
	s.Save("k", body, time.Minute)
	body[0] = 'z'

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryStore_EvictsOldestWhenFull(t *testing.T) {
	s, clock := newTestStore(2)
	s.Save("a", []byte("1"), time.Hour)
	clock.Advance(time.Second)
	s.Save("b", []byte("2"), time.Hour)
	clock.Advance(time.Second)
	s.Save("c", []byte("3"), time.Hour)

	assert.Equal(t, 2, s.Len())
	_, err := s.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("c")
	assert.NoError(t, err)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			s.Save(key, []byte(key), time.Minute)
			_, _ = s.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
