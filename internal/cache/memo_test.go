package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo_GetOrCompute(t *testing.T) {
	t.Parallel()

	m, err := NewMemo[string, int](16)
	require.NoError(t, err)
	defer m.Close()

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := m.GetOrCompute("a", compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = m.GetOrCompute("a", compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestMemo_ErrorsNotCached(t *testing.T) {
	t.Parallel()

	m := MustMemo[string, *int](0)
	defer m.Close()

	boom := errors.New("boom")
	_, err := m.GetOrCompute("k", func() (*int, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := m.Get("k")
	assert.False(t, ok)
}

func TestMemo_NilValuesCached(t *testing.T) {
	t.Parallel()

	m := MustMemo[string, *int](8)
	defer m.Close()

	m.Set("missing", nil)
	v, ok := m.Get("missing")
	assert.True(t, ok)
	assert.Nil(t, v)
}
