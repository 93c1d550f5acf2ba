package dbaccess

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultAndNamed(t *testing.T) {
	r := NewRegistry()
	def := &Handle{Dialect: SQLite}
	rep := &Handle{Dialect: Postgres}

	require.NoError(t, r.Register("", def))
	require.NoError(t, r.Register("reporting", rep))

	h, err := r.Lookup("")
	require.NoError(t, err)
	assert.Same(t, def, h)

	h, err = r.Lookup("reporting")
	require.NoError(t, err)
	assert.Same(t, rep, h)

	assert.Equal(t, []string{"", "reporting"}, r.Names())
}

func TestRegistry_DuplicateIsFirstWins(t *testing.T) {
	r := NewRegistry()
	first := &Handle{Dialect: SQLite}
	require.NoError(t, r.Register("main", first))

	err := r.Register("main", &Handle{Dialect: Postgres})
	require.Error(t, err)

	h, err := r.Lookup("main")
	require.NoError(t, err)
	assert.Same(t, first, h)
}

func TestRegistry_UnknownName(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default")

	_, err = r.Lookup("reporting")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reporting")
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("", &Handle{Dialect: SQLite}))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := r.Lookup("")
			assert.NoError(t, err)
			assert.NotNil(t, h)
		}()
	}
	wg.Wait()
}
