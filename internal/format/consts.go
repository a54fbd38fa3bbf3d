// Package format houses the bit-exact layouts used by the simulated memory
// system: 32-bit page directory/table entries, the two-bit frame-state
// bitmap, and the virtual-region records kept inside a VM pool's first page.
// The goal is to keep the encoding focused and allocation-free so the
// higher-level packages can orchestrate the data in a more ergonomic form.
package format

const (
	// FrameSize is the size of a physical frame in bytes.
	FrameSize = 4096

	// PageSize is the size of a linear page in bytes. The architecture ties
	// it to the frame size.
	PageSize = FrameSize

	// FrameShift converts between frame numbers and physical addresses.
	FrameShift = 12

	// EntriesPerTable is the number of 32-bit slots in a page directory or
	// page table. One table therefore spans 4 MiB of linear address space.
	EntriesPerTable = 1024

	// EntrySize is the size of one directory/table slot in bytes.
	EntrySize = 4

	// DirShift and TableShift extract the directory and table indices from
	// a 32-bit linear address: top 10 bits, next 10 bits, low 12 offset.
	DirShift   = 22
	TableShift = 12

	// IndexMask masks a 10-bit directory or table index.
	IndexMask = 0x3FF

	// OffsetMask masks the in-page offset of a linear address.
	OffsetMask = 0xFFF

	// RecursiveIndex is the directory slot reserved for the self-referential
	// mapping. With the directory mapped onto itself at this slot, every
	// page-table page becomes reachable at a fixed synthetic linear address.
	RecursiveIndex = 1023

	// TableSpan is the linear address range covered by one page table.
	TableSpan = EntriesPerTable * PageSize
)

const (
	// FlagPresent marks a directory/table entry as backed by a frame.
	FlagPresent = 1 << 0

	// FlagWritable marks the referenced page as writable.
	FlagWritable = 1 << 1

	// FlagUser marks the referenced page as user-accessible.
	FlagUser = 1 << 2

	// EntryFrameMask extracts the page-aligned frame address from an entry.
	// Bits 12-31 hold the frame address; the layout is fixed by the target
	// architecture's two-level paging convention.
	EntryFrameMask = 0xFFFFF000
)

const (
	// StateBits is the number of bitmap bits recording one frame's state.
	StateBits = 2

	// StatesPerByte is the number of frame states packed into one bitmap byte.
	StatesPerByte = 8 / StateBits

	// StatesPerFrame is the number of frame states one management frame can
	// record. Pools larger than this need additional management frames.
	StatesPerFrame = FrameSize * StatesPerByte
)

const (
	// RegionRecordSize is the size of one {base, length} region record in a
	// VM pool's directory page.
	RegionRecordSize = 8

	// RegionsPerPage is the number of region records a directory page holds.
	RegionsPerPage = PageSize / RegionRecordSize
)
