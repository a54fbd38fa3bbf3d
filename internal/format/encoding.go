package format

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// Directory and table entries are 32-bit little-endian words, as are the
// region records in a VM pool's directory page.
//
// Implementation: Uses encoding/binary.LittleEndian. The standard library
// implementation is already highly optimized by the compiler; unsafe pointer
// variants provide no measurable benefit here.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}
