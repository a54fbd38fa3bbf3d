package vmpool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagekit/internal/format"
	"github.com/joshuapare/pagekit/internal/testutil"
	"github.com/joshuapare/pagekit/mem/vmpool"
)

const (
	poolBase = uint32(64 << 20)
	poolSize = uint32(1 << 20)
)

func newPool(t *testing.T) (*testutil.Env, *vmpool.Pool) {
	t.Helper()
	env := testutil.Boot(t)
	p, err := vmpool.New(poolBase, poolSize, env.Ctx)
	require.NoError(t, err)
	return env, p
}

func TestNewValidatesRange(t *testing.T) {
	env := testutil.Boot(t)

	_, err := vmpool.New(poolBase, poolSize, nil)
	require.ErrorIs(t, err, vmpool.ErrNoContext)
	_, err = vmpool.New(poolBase+1, poolSize, env.Ctx)
	require.ErrorIs(t, err, vmpool.ErrBadRegion)
	_, err = vmpool.New(poolBase, format.PageSize, env.Ctx)
	require.ErrorIs(t, err, vmpool.ErrBadRegion)
}

func TestNewClaimsBookkeepingPage(t *testing.T) {
	env, p := newPool(t)

	// The record write demand-paged exactly one page.
	require.Equal(t, 1, env.Mach.Faults())
	require.Equal(t, poolSize-format.PageSize, p.Available())
	require.Equal(t, []vmpool.Region{{Base: poolBase, Size: format.PageSize}}, p.Regions())
}

func TestContainsIsHalfOpen(t *testing.T) {
	_, p := newPool(t)

	require.True(t, p.Contains(poolBase))
	require.True(t, p.Contains(poolBase+poolSize-1))
	require.False(t, p.Contains(poolBase-1))
	require.False(t, p.Contains(poolBase+poolSize))
}

func TestAllocateRoundsUpToPages(t *testing.T) {
	_, p := newPool(t)

	a := p.Allocate(100)
	require.Equal(t, poolBase+format.PageSize, a)
	b := p.Allocate(format.PageSize + 1)
	require.Equal(t, a+format.PageSize, b)

	require.Equal(t, []vmpool.Region{
		{Base: poolBase, Size: format.PageSize},
		{Base: a, Size: format.PageSize},
		{Base: b, Size: 2 * format.PageSize},
	}, p.Regions())
	require.Equal(t, poolSize-4*format.PageSize, p.Available())
}

func TestAllocateConsumesNoFramesUntilTouched(t *testing.T) {
	env, p := newPool(t)
	freeBefore := env.Process.FreeFrames()

	a := p.Allocate(8 * format.PageSize)
	require.Equal(t, freeBefore, env.Process.FreeFrames())

	env.Mach.WriteU32(a, 1)
	require.Equal(t, freeBefore-1, env.Process.FreeFrames())
}

func TestFaultInsidePoolButOutsideRegionsIsServiced(t *testing.T) {
	env, p := newPool(t)

	// Legitimacy is the pool's whole range, not its allocated regions.
	env.Mach.WriteU32(p.Base()+poolSize-format.PageSize, 0xBEEF)
	require.Equal(t, uint32(0xBEEF), env.Mach.ReadU32(p.Base()+poolSize-format.PageSize))
}

func TestReleaseReturnsTouchedFrames(t *testing.T) {
	env, p := newPool(t)

	a := p.Allocate(2 * format.PageSize)
	env.Mach.WriteU32(a, 1)
	env.Mach.WriteU32(a+format.PageSize, 2)
	freeBefore := env.Process.FreeFrames()

	p.Release(a)

	require.Equal(t, freeBefore+2, env.Process.FreeFrames())
	require.Equal(t, poolSize-format.PageSize, p.Available())
	_, ok := env.Mach.Translate(a)
	require.False(t, ok)
}

func TestReleaseSkipsUntouchedPages(t *testing.T) {
	env, p := newPool(t)

	a := p.Allocate(4 * format.PageSize)
	env.Mach.WriteU32(a, 1) // only the first page gets a frame
	freeBefore := env.Process.FreeFrames()

	p.Release(a)
	require.Equal(t, freeBefore+1, env.Process.FreeFrames())
}

func TestReleaseCompactsAndAllocateReusesGap(t *testing.T) {
	_, p := newPool(t)

	a := p.Allocate(3 * format.PageSize)
	b := p.Allocate(2 * format.PageSize)
	c := p.Allocate(4 * format.PageSize)

	p.Release(a)
	require.Equal(t, []vmpool.Region{
		{Base: poolBase, Size: format.PageSize},
		{Base: b, Size: 2 * format.PageSize},
		{Base: c, Size: 4 * format.PageSize},
	}, p.Regions())

	// First fit lands in a's old gap, then the leftover page, then past c.
	require.Equal(t, a, p.Allocate(2*format.PageSize))
	require.Equal(t, c+4*format.PageSize, p.Allocate(2*format.PageSize))
	require.Equal(t, a+2*format.PageSize, p.Allocate(format.PageSize))
}

func TestReleaseUnknownAddressIsFatal(t *testing.T) {
	_, p := newPool(t)
	a := p.Allocate(2 * format.PageSize)

	require.PanicsWithError(t,
		"vmpool: no such region: no region starts at 0x4002000",
		func() { p.Release(a + format.PageSize) })

	// The bookkeeping page is not a releasable region.
	require.Panics(t, func() { p.Release(poolBase) })
}

func TestAllocateZeroIsFatal(t *testing.T) {
	_, p := newPool(t)
	require.PanicsWithError(t, "vmpool: zero-size allocation",
		func() { p.Allocate(0) })
}

func TestAllocateBeyondAvailableIsFatal(t *testing.T) {
	_, p := newPool(t)
	require.PanicsWithError(t,
		"vmpool: not enough address space: 0x200000 requested, 0xff000 available",
		func() { p.Allocate(2 << 20) })
}

func TestRegionTableFullIsFatal(t *testing.T) {
	env := testutil.Boot(t)
	p, err := vmpool.New(poolBase, 4<<20, env.Ctx)
	require.NoError(t, err)

	for i := 1; i < format.RegionsPerPage; i++ {
		p.Allocate(format.PageSize)
	}
	require.Positive(t, p.Available())
	require.PanicsWithError(t, "vmpool: region table full: 512 regions",
		func() { p.Allocate(format.PageSize) })
}

func TestTwoPoolsShareOneContext(t *testing.T) {
	env, p1 := newPool(t)
	p2, err := vmpool.New(128<<20, poolSize, env.Ctx)
	require.NoError(t, err)

	a := p1.Allocate(format.PageSize)
	b := p2.Allocate(format.PageSize)
	env.Mach.WriteU32(a, 0x11)
	env.Mach.WriteU32(b, 0x22)

	require.Equal(t, uint32(0x11), env.Mach.ReadU32(a))
	require.Equal(t, uint32(0x22), env.Mach.ReadU32(b))
}
