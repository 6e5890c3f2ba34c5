package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := NewMemory()

	_, ok, err := m.Get("theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set("theme", "dark"))
	v, ok, err := m.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestMemoryConcurrentWrites(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = m.Set("theme", "dark")
			} else {
				_ = m.Set("theme", "light")
			}
		}(i)
	}
	wg.Wait()

	v, ok, _ := m.Get("theme")
	assert.True(t, ok)
	assert.Contains(t, []string{"dark", "light"}, v)
}

func TestPrefixed(t *testing.T) {
	m := NewMemory()
	a := WithPrefix(m, "visitor-a")
	b := WithPrefix(m, "visitor-b")

	require.NoError(t, a.Set("theme", "dark"))

	v, ok, _ := a.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	_, ok, _ = b.Get("theme")
	assert.False(t, ok)

	v, ok, _ = m.Get("visitor-a:theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "prefs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundTripAndUpsert(t *testing.T) {
	s := openTestDB(t)

	_, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("theme", "light"))
	require.NoError(t, s.Set("theme", "dark"))

	v, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.Delete("theme"))
	require.NoError(t, s.Delete("theme"))
	_, ok, err = s.Get("theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("theme", "dark"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, nil)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestSQLitePruneOlderThan(t *testing.T) {
	s := openTestDB(t)
	require.NoError(t, s.Set("a:theme", "dark"))
	require.NoError(t, s.Set("b:theme", "light"))

	n, err := s.PruneOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.PruneOlderThan(-time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, _ := s.Get("a:theme")
	assert.False(t, ok)
}
