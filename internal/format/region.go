package format

// Region-record layout inside a VM pool's directory page.
//
// A pool bootstraps its own bookkeeping: the first page of the pool's window
// holds an array of {base, length} records, 8 bytes each, and record 0
// describes the directory page itself. Records are addressed through the
// pool's linear window, never through external storage.

// RegionBaseAddr returns the linear address of the base field of record slot.
func RegionBaseAddr(dirPage uint32, slot int) uint32 {
	return dirPage + uint32(slot)*RegionRecordSize
}

// RegionLenAddr returns the linear address of the length field of record slot.
func RegionLenAddr(dirPage uint32, slot int) uint32 {
	return dirPage + uint32(slot)*RegionRecordSize + 4
}
