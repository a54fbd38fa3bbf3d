package paging

import (
	"github.com/joshuapare/pagekit/internal/format"
)

// AddressSpace is one page directory and the tables hanging off it. The
// shared low region is identity mapped and present in every address space;
// everything above it starts out unmapped and fills in on demand.
type AddressSpace struct {
	ctx      *Context
	dirFrame uint32
}

// NewAddressSpace allocates and wires a fresh directory: identity mappings
// for the shared region, empty writable slots above it, and the directory
// itself installed in the last slot. Construction writes physical memory
// directly, so it works before and after the paging switch.
func (ctx *Context) NewAddressSpace() *AddressSpace {
	m := ctx.mach.Mem()

	dirFrame := ctx.kernel.Allocate(1)
	dirBase := dirFrame * format.FrameSize

	sharedTables := ctx.sharedSize / format.TableSpan
	for i := uint32(0); i < sharedTables; i++ {
		tbl := ctx.process.Allocate(1)
		tblBase := tbl * format.FrameSize
		for j := uint32(0); j < format.EntriesPerTable; j++ {
			m.WriteU32(tblBase+j*format.EntrySize,
				uint32(format.NewEntry(i*format.EntriesPerTable+j, format.FlagPresent|format.FlagWritable)))
		}
		m.WriteU32(dirBase+i*format.EntrySize,
			uint32(format.NewEntry(tbl, format.FlagPresent|format.FlagWritable)))
	}

	for i := sharedTables; i < format.EntriesPerTable-1; i++ {
		m.WriteU32(dirBase+i*format.EntrySize,
			uint32(format.NewEntry(0, format.FlagWritable)))
	}

	// Last slot points back at the directory. Through it the directory is
	// its own page table, which is what makes the entry windows resolve.
	m.WriteU32(dirBase+(format.EntriesPerTable-1)*format.EntrySize,
		uint32(format.NewEntry(dirFrame, format.FlagPresent|format.FlagWritable)))

	return &AddressSpace{ctx: ctx, dirFrame: dirFrame}
}

// DirFrame returns the frame number holding the directory.
func (as *AddressSpace) DirFrame() uint32 { return as.dirFrame }

// Load makes this the machine's active address space.
func (as *AddressSpace) Load() {
	as.ctx.mach.LoadCR3(as.dirFrame * format.FrameSize)
	as.ctx.current = as
}
