package frame

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagekit/mem"
)

func TestRegistryRoutesReleaseByFrameNumber(t *testing.T) {
	m, err := mem.New(64)
	require.NoError(t, err)
	reg := NewRegistry()

	// Two pools, disjoint ranges, bitmaps in external frames.
	kernel := reg.NewPool(m, 8, 16, 1)
	process := reg.NewPool(m, 32, 24, 2)

	a := kernel.Allocate(3)
	b := process.Allocate(5)

	// The caller releases by number alone; the registry finds the owner.
	reg.Release(b)
	require.EqualValues(t, 24, process.FreeFrames())
	require.EqualValues(t, 13, kernel.FreeFrames())

	reg.Release(a)
	require.EqualValues(t, 16, kernel.FreeFrames())
}

func TestRegistryOrderAndLookup(t *testing.T) {
	m, err := mem.New(64)
	require.NoError(t, err)
	reg := NewRegistry()

	first := reg.NewPool(m, 8, 8, 1)
	second := reg.NewPool(m, 16, 8, 2)

	pools := reg.Pools()
	require.Equal(t, []*Pool{first, second}, pools)

	require.Same(t, first, reg.PoolFor(10))
	require.Same(t, second, reg.PoolFor(16))
	require.Nil(t, reg.PoolFor(60))
}

func TestReleaseUnknownFrameIsFatal(t *testing.T) {
	m, err := mem.New(64)
	require.NoError(t, err)
	reg := NewRegistry()
	reg.NewPool(m, 8, 8, 1)

	require.Panics(t, func() { reg.Release(40) })
}
