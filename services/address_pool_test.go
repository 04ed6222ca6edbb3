package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateScansInOrder(t *testing.T) {
	pool := NewAddressPool()

	first, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "239.0.0.0", first.String())

	second, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "239.0.0.1", second.String())
}

func TestAllocateWrapsOctets(t *testing.T) {
	pool := NewAddressPool()
	pool.cursor = 255 // next allocation ends the lowest octet

	addr, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "239.0.0.255", addr.String())

	addr, err = pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "239.0.1.0", addr.String())
}

func TestAllocateConcurrentDisjoint(t *testing.T) {
	pool := NewAddressPool()

	const n = 100
	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := make(map[string]bool)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr, err := pool.Allocate()
			assert.NoError(t, err)
			mu.Lock()
			seen[addr.String()] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n, "concurrent allocations must not overlap")
	assert.Equal(t, n, pool.Held())
}

func TestExhaustionAndReuse(t *testing.T) {
	pool := NewAddressPool()
	pool.space = 2

	a1, err := pool.Allocate()
	require.NoError(t, err)
	a2, err := pool.Allocate()
	require.NoError(t, err)
	require.NotEqual(t, a1.String(), a2.String())

	_, err = pool.Allocate()
	assert.ErrorIs(t, err, ErrExhausted)

	pool.Free(a1)
	reused, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, a1.String(), reused.String())
}

func TestFreeIsIdempotent(t *testing.T) {
	pool := NewAddressPool()

	addr, err := pool.Allocate()
	require.NoError(t, err)

	pool.Free(addr)
	pool.Free(addr)
	assert.Equal(t, 0, pool.Held())
}
