package paging_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagekit/internal/format"
	"github.com/joshuapare/pagekit/internal/testutil"
	"github.com/joshuapare/pagekit/mem"
	"github.com/joshuapare/pagekit/mem/frame"
	"github.com/joshuapare/pagekit/mem/machine"
	"github.com/joshuapare/pagekit/mem/paging"
)

func TestInitRejectsBadSharedSize(t *testing.T) {
	m, err := mem.New(testutil.TotalFrames)
	require.NoError(t, err)
	reg := frame.NewRegistry()
	kernel := reg.NewPool(m, testutil.KernelBase, testutil.KernelFrames, 0)
	process := reg.NewPool(m, testutil.ProcessBase, testutil.ProcessFrames, kernel.Allocate(1))
	c := machine.New(m)

	_, err = paging.Init(c, reg, kernel, process, 0)
	require.ErrorIs(t, err, paging.ErrBadSharedSize)
	_, err = paging.Init(c, reg, kernel, process, format.TableSpan+format.PageSize)
	require.ErrorIs(t, err, paging.ErrBadSharedSize)
	_, err = paging.Init(nil, reg, kernel, process, format.TableSpan)
	require.ErrorIs(t, err, paging.ErrNoMachine)
	_, err = paging.Init(c, reg, kernel, nil, format.TableSpan)
	require.ErrorIs(t, err, paging.ErrNoPool)
}

func TestDirectoryLayout(t *testing.T) {
	env := testutil.Boot(t)
	dirBase := env.Space.DirFrame() * format.FrameSize

	pde0 := format.Entry(env.Mem.ReadU32(dirBase))
	require.True(t, pde0.Present())
	require.True(t, pde0.Writable())

	// First shared table identity-maps the low frames.
	pte := format.Entry(env.Mem.ReadU32(pde0.FrameAddr() + 100*format.EntrySize))
	require.True(t, pte.Present())
	require.Equal(t, uint32(100), pte.Frame())

	// Slots above the shared region are writable but not yet backed.
	mid := format.Entry(env.Mem.ReadU32(dirBase + 512*format.EntrySize))
	require.False(t, mid.Present())
	require.True(t, mid.Writable())

	// Last slot points the directory at itself.
	self := format.Entry(env.Mem.ReadU32(dirBase + (format.EntriesPerTable-1)*format.EntrySize))
	require.True(t, self.Present())
	require.Equal(t, env.Space.DirFrame(), self.Frame())
}

func TestIdentityMappingSurvivesPagingSwitch(t *testing.T) {
	env := testutil.Boot(t)

	addr := uint32(100*format.FrameSize + 4)
	phys, ok := env.Mach.Translate(addr)
	require.True(t, ok)
	require.Equal(t, addr, phys)

	env.Mach.WriteU32(addr, 0xFEEDFACE)
	require.Equal(t, uint32(0xFEEDFACE), env.Mem.ReadU32(addr))
	require.Equal(t, 0, env.Mach.Faults())
}

func TestDemandPagingMapsOnFirstTouch(t *testing.T) {
	env := testutil.Boot(t)
	freeBefore := env.Process.FreeFrames()

	addr := uint32(64 << 20) // well above the shared region
	env.Mach.WriteU32(addr, 0xA5A5A5A5)

	require.Equal(t, 1, env.Mach.Faults())
	require.Equal(t, uint32(0xA5A5A5A5), env.Mach.ReadU32(addr))
	// One frame for the new page table, one for the page itself.
	require.Equal(t, freeBefore-2, env.Process.FreeFrames())

	// The mapping stays: touching the same page again faults nothing.
	env.Mach.WriteU32(addr+8, 7)
	require.Equal(t, 1, env.Mach.Faults())
}

func TestSecondPageReusesPageTable(t *testing.T) {
	env := testutil.Boot(t)

	addr := uint32(64 << 20)
	env.Mach.Touch(addr)
	freeAfterFirst := env.Process.FreeFrames()

	env.Mach.Touch(addr + format.PageSize)
	require.Equal(t, 2, env.Mach.Faults())
	require.Equal(t, freeAfterFirst-1, env.Process.FreeFrames())
}

// span claims one half-open address range.
type span struct{ base, size uint32 }

func (s span) Contains(addr uint32) bool {
	return addr >= s.base && addr < s.base+s.size
}

func TestFaultOutsideRegisteredPoolsIsFatal(t *testing.T) {
	env := testutil.Boot(t)
	env.Ctx.RegisterPool(span{base: 64 << 20, size: format.TableSpan})

	env.Mach.Touch(64 << 20) // claimed, serviced
	freeBefore := env.Process.FreeFrames()

	require.PanicsWithError(t,
		"paging: fault outside any registered pool: address 0x8000000",
		func() { env.Mach.Touch(128 << 20) })
	require.Equal(t, freeBefore, env.Process.FreeFrames(), "fatal fault must not consume frames")
}

func TestProtectionFaultIsFatal(t *testing.T) {
	env := testutil.Boot(t)

	require.PanicsWithError(t,
		"paging: protection fault: address 0x0",
		func() { env.Ctx.HandleFault(&machine.Regs{ErrCode: machine.ErrCodePresent}) })
}

func TestFreePageReturnsFrameAndClearsPresent(t *testing.T) {
	env := testutil.Boot(t)

	addr := uint32(64 << 20)
	env.Mach.WriteU32(addr, 1)
	pte := format.Entry(env.Mach.ReadU32(format.TableEntryAddr(format.DirIndex(addr), format.TableIndex(addr))))
	require.True(t, pte.Present())
	freeBefore := env.Process.FreeFrames()

	env.Ctx.FreePage(addr)

	require.Equal(t, freeBefore+1, env.Process.FreeFrames())
	_, ok := env.Mach.Translate(addr)
	require.False(t, ok)

	// The entry loses only its present bit; the stale frame bits remain.
	after := format.Entry(env.Mach.ReadU32(format.TableEntryAddr(format.DirIndex(addr), format.TableIndex(addr))))
	require.False(t, after.Present())
	require.Equal(t, pte.Frame(), after.Frame())

	// The next touch demand-pages the address again.
	faults := env.Mach.Faults()
	env.Mach.Touch(addr)
	require.Equal(t, faults+1, env.Mach.Faults())
}

func TestFreePageIgnoresUnmappedAddresses(t *testing.T) {
	env := testutil.Boot(t)
	freeBefore := env.Process.FreeFrames()

	env.Ctx.FreePage(200 << 20) // directory slot never populated
	require.Equal(t, freeBefore, env.Process.FreeFrames())

	env.Mach.Touch(64 << 20)
	env.Ctx.FreePage(64<<20 + 8*format.PageSize) // table exists, entry does not
	require.Equal(t, freeBefore-2, env.Process.FreeFrames())
}

func TestAddressSpacesShareLowRegionOnly(t *testing.T) {
	env := testutil.Boot(t)

	addr := uint32(64 << 20)
	env.Mach.WriteU32(addr, 0x11111111)

	other := env.Ctx.NewAddressSpace()
	other.Load()

	// The shared region is the same physical memory in both spaces.
	low := uint32(100 * format.FrameSize)
	env.Mach.WriteU32(low, 0x22222222)
	require.Equal(t, uint32(0x22222222), env.Mem.ReadU32(low))

	// The private mapping did not come along.
	_, ok := env.Mach.Translate(addr)
	require.False(t, ok)

	env.Space.Load()
	require.Equal(t, uint32(0x11111111), env.Mach.ReadU32(addr))
}
