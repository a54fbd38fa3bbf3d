package format

// Entry is one 32-bit page directory or page table slot. The low bits carry
// present/writable/user flags; bits 12-31 hold a page-aligned frame address.
type Entry uint32

// NewEntry builds an entry referencing the given frame number with the given
// flag bits.
func NewEntry(frame uint32, flags uint32) Entry {
	return Entry(frame<<FrameShift | flags)
}

// Present reports whether the entry references a populated frame.
func (e Entry) Present() bool { return e&FlagPresent != 0 }

// Writable reports whether the referenced page is writable.
func (e Entry) Writable() bool { return e&FlagWritable != 0 }

// User reports whether the referenced page is user-accessible.
func (e Entry) User() bool { return e&FlagUser != 0 }

// Frame returns the frame number the entry references.
func (e Entry) Frame() uint32 { return uint32(e&EntryFrameMask) >> FrameShift }

// FrameAddr returns the physical address of the referenced frame.
func (e Entry) FrameAddr() uint32 { return uint32(e & EntryFrameMask) }

// WithoutPresent returns the entry with only the present bit cleared. The
// frame bits are retained so a freed slot stays identifiable but inert.
func (e Entry) WithoutPresent() Entry { return e &^ FlagPresent }

// DirIndex extracts the page directory index from a linear address.
func DirIndex(addr uint32) uint32 { return addr >> DirShift }

// TableIndex extracts the page table index from a linear address.
func TableIndex(addr uint32) uint32 { return (addr >> TableShift) & IndexMask }

// PageOffset extracts the in-page offset from a linear address.
func PageOffset(addr uint32) uint32 { return addr & OffsetMask }

// PageBase returns the linear address rounded down to its page boundary.
func PageBase(addr uint32) uint32 { return addr &^ OffsetMask }

// PagesFor returns the number of whole pages needed to hold size bytes.
func PagesFor(size uint32) uint32 {
	return (size + PageSize - 1) / PageSize
}

// DirectoryWindow is the synthetic linear address at which the recursive
// mapping exposes the page directory itself: both the directory and table
// index select the recursive slot, so the walk lands back on the directory
// frame.
const DirectoryWindow = RecursiveIndex<<DirShift | RecursiveIndex<<TableShift

// DirEntryAddr returns the linear address of directory slot dirIdx, reached
// through the recursive mapping.
func DirEntryAddr(dirIdx uint32) uint32 {
	return DirectoryWindow | dirIdx*EntrySize
}

// TableWindow returns the synthetic linear base address at which the page
// table serving directory slot dirIdx is visible. The directory index of the
// synthetic address selects the recursive slot, so the final page resolved by
// the walk is the table frame itself.
func TableWindow(dirIdx uint32) uint32 {
	return RecursiveIndex<<DirShift | dirIdx<<TableShift
}

// TableEntryAddr returns the linear address of slot tblIdx inside the page
// table serving directory slot dirIdx, reached through the recursive mapping.
func TableEntryAddr(dirIdx, tblIdx uint32) uint32 {
	return TableWindow(dirIdx) | tblIdx*EntrySize
}
