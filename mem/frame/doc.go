// Package frame implements the contiguous physical-frame allocator.
//
// # Overview
//
// A Pool manages a contiguous range of frame numbers with a two-bit state per
// frame: Free, Allocated (interior member of a run), or HeadOfSequence (first
// frame of a run). Run lengths are never stored; a release sweeps forward
// from the head until it meets the next Free or HeadOfSequence frame. The
// bitmap itself lives in management frames inside the pool's memory arena,
// either the pool's own first frames or an externally supplied frame.
//
// # Registry
//
// Pools are created through a Registry, which keeps them in registration
// order and owns the release operation: at release time the caller knows only
// a frame number, not the pool it came from, so the registry performs the
// range lookup. Individual pools never field release calls directly.
//
// # Failure semantics
//
// Exhaustion and contract violations (releasing a non-head frame, marking an
// in-use range, a pool size that does not fill whole bitmap bytes) are
// unrecoverable: there is no safe way to unwind a half-mutated bitmap, so the
// operations panic with an error wrapping the matching sentinel from
// errors.go. Failure paths mutate no state before panicking.
//
// # Thread safety
//
// Pools and registries are not thread-safe. The allocator's scan-then-mark
// sequence is a single critical section the caller must protect.
package frame
