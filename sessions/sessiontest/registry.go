// Package sessiontest holds behaviour tests shared by every sessions.Registry implementation.
package sessiontest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jrsteele09/go-expense-tracker/sessions"
	"github.com/stretchr/testify/require"
)

// RunRegistryTests exercises the Registry contract against registries built by newRegistry
func RunRegistryTests(t *testing.T, newRegistry func(t *testing.T) sessions.Registry) {
	t.Helper()
	ctx := context.Background()

	t.Run("get absent", func(t *testing.T) {
		r := newRegistry(t)
		_, ok, err := r.Get(ctx, 1)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("put overwrites", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Put(ctx, 1, "first"))
		require.NoError(t, r.Put(ctx, 1, "second"))

		got, ok, err := r.Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "second", got)
	})

	t.Run("entries are per user", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Put(ctx, 1, "one"))
		require.NoError(t, r.Put(ctx, 2, "two"))
		require.NoError(t, r.Remove(ctx, 1))

		_, ok, err := r.Get(ctx, 1)
		require.NoError(t, err)
		require.False(t, ok)

		got, ok, err := r.Get(ctx, 2)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "two", got)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Remove(ctx, 7))
		require.NoError(t, r.Put(ctx, 7, "token"))
		require.NoError(t, r.Remove(ctx, 7))
		require.NoError(t, r.Remove(ctx, 7))
	})

	t.Run("compare and swap", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Put(ctx, 1, "r1"))

		swapped, err := r.CompareAndSwap(ctx, 1, "stale", "r2")
		require.NoError(t, err)
		require.False(t, swapped)

		swapped, err = r.CompareAndSwap(ctx, 1, "r1", "r2")
		require.NoError(t, err)
		require.True(t, swapped)

		swapped, err = r.CompareAndSwap(ctx, 1, "r1", "r3")
		require.NoError(t, err)
		require.False(t, swapped)

		got, _, err := r.Get(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "r2", got)
	})

	t.Run("compare and swap absent", func(t *testing.T) {
		r := newRegistry(t)
		swapped, err := r.CompareAndSwap(ctx, 9, "r1", "r2")
		require.NoError(t, err)
		require.False(t, swapped)

		_, ok, err := r.Get(ctx, 9)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("concurrent swaps have one winner", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Put(ctx, 1, "r1"))

		const workers = 16
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				swapped, err := r.CompareAndSwap(ctx, 1, "r1", fmt.Sprintf("next-%d", i))
				if err == nil && swapped {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		require.Equal(t, 1, wins)
	})
}
