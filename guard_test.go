package sud

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardExecuteRunsWhenSet(t *testing.T) {
	var g Guard[int]
	v := 42
	g.Set(&v)

	var ran bool
	ok := g.Execute(func(p *int) { ran = true; require.Equal(t, 42, *p) })
	require.True(t, ok)
	require.True(t, ran)
}

func TestGuardExecuteNoopWhenNil(t *testing.T) {
	var g Guard[int]
	ok := g.Execute(func(p *int) { t.Fatal("should not run") })
	require.False(t, ok)
}

func TestGuardConcurrentExecuteAndClear(t *testing.T) {
	var g Guard[int]
	v := 7
	g.Set(&v)

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Execute(func(p *int) { calls.Add(1) })
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.Set(nil)
	}()
	wg.Wait()

	require.Nil(t, g.Get())
}
