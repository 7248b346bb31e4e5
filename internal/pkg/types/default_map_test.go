package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMap(t *testing.T) {
	t.Run("get creates missing values once", func(t *testing.T) {
		calls := 0
		m := NewDefaultMap[int](func() Set[string] {
			calls++
			return NewSet[string]()
		})

		m.Get(1).Add("a")
		m.Get(1).Add("b")

		assert.Equal(t, 1, calls)
		assert.Equal(t, 2, m.Get(1).Len())
		assert.Equal(t, 1, m.Len())
	})

	t.Run("peek does not create", func(t *testing.T) {
		m := NewDefaultMap[string](func() int { return 7 })

		_, ok := m.Peek("k")
		assert.False(t, ok)
		assert.Zero(t, m.Len())

		assert.Equal(t, 7, m.Get("k"))
		v, ok := m.Peek("k")
		require.True(t, ok)
		assert.Equal(t, 7, v)
	})

	t.Run("set overrides the default", func(t *testing.T) {
		m := NewDefaultMap[string](func() int { return 0 })

		m.Set("k", 42)
		assert.Equal(t, 42, m.Get("k"))
	})

	t.Run("delete", func(t *testing.T) {
		m := NewDefaultMap[string](func() []int { return nil })

		m.Set("k", []int{1})
		m.Delete("k")
		m.Delete("missing")

		assert.Zero(t, m.Len())
		assert.Nil(t, m.Get("k"))
	})
}
