// Package mem provides the simulated physical memory that everything else in
// this module operates on: a frame-granular byte arena, optionally backed by
// a memory-mapped image file.
//
// # Overview
//
// Memory is addressed physically, in bytes, with frames as the unit of
// allocation (4096 bytes). The frame allocator stores its state bitmap in
// management frames inside the arena, and the paging structures live in
// arena frames as bit-exact little-endian 32-bit entries, so an image file
// written by one process can be reopened and inspected by another.
//
// # Image files
//
// Create and Open back the arena with a file. On unix builds the file is
// memory-mapped and Sync flushes dirty frame ranges with msync; elsewhere the
// file is read into memory and Sync writes the dirty ranges back. Mutating
// accessors record dirty ranges; the tracker coalesces them into page-aligned
// runs at flush time.
//
// # Thread safety
//
// Memory is not thread-safe. The surrounding system must serialize access,
// which matches the single-logical-thread model of the rest of the module.
package mem
