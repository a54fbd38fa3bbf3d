package mem

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/joshuapare/pagekit/internal/format"
)

// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
const defaultRangeCapacity = 64

// Memory is a simulated physical memory arena, sized in whole frames.
type Memory struct {
	data   []byte
	frames uint32

	f      *os.File
	mapped bool

	ranges []Range // dirty byte ranges, coalesced at sync time
}

// Range is a dirty byte range (absolute arena offsets).
type Range struct {
	Off int64
	Len int64
}

// New returns an in-memory arena of the given number of frames.
func New(frames uint32) (*Memory, error) {
	if frames == 0 {
		return nil, ErrBadSize
	}
	return &Memory{
		data:   make([]byte, int(frames)*format.FrameSize),
		frames: frames,
		ranges: make([]Range, 0, defaultRangeCapacity),
	}, nil
}

// Frames returns the number of frames in the arena.
func (m *Memory) Frames() uint32 { return m.frames }

// Bytes returns the raw arena contents.
func (m *Memory) Bytes() []byte { return m.data }

// FrameBytes returns a view of n consecutive frames starting at frame.
// Writers through the view must call MarkDirty themselves.
func (m *Memory) FrameBytes(frame, n uint32) []byte {
	if frame+n < frame || frame+n > m.frames {
		panic(fmt.Errorf("%w: frames [%d, %d) of %d", ErrOutOfBounds, frame, frame+n, m.frames))
	}
	start := int(frame) * format.FrameSize
	return m.data[start : start+int(n)*format.FrameSize]
}

// ReadU32 reads the little-endian 32-bit word at physical address addr.
func (m *Memory) ReadU32(addr uint32) uint32 {
	m.check(addr, 4)
	return format.ReadU32(m.data, int(addr))
}

// WriteU32 writes the little-endian 32-bit word at physical address addr and
// records the range as dirty.
func (m *Memory) WriteU32(addr, v uint32) {
	m.check(addr, 4)
	format.PutU32(m.data, int(addr), v)
	m.MarkDirty(int(addr), 4)
}

// ReadByte reads the byte at physical address addr.
func (m *Memory) ReadByte(addr uint32) byte {
	m.check(addr, 1)
	return m.data[addr]
}

// WriteByte writes the byte at physical address addr and records it dirty.
func (m *Memory) WriteByte(addr uint32, v byte) {
	m.check(addr, 1)
	m.data[addr] = v
	m.MarkDirty(int(addr), 1)
}

func (m *Memory) check(addr, n uint32) {
	if int64(addr)+int64(n) > int64(len(m.data)) {
		panic(fmt.Errorf("%w: address %#x+%d beyond %#x", ErrOutOfBounds, addr, n, len(m.data)))
	}
}

// MarkDirty records a modified byte range. Ranges are page-aligned and
// coalesced at sync time; recording is a plain append.
func (m *Memory) MarkDirty(off, length int) {
	m.ranges = append(m.ranges, Range{Off: int64(off), Len: int64(length)})
}

// Sync flushes dirty ranges to the backing image, if any, and clears the
// tracker. For a purely in-memory arena it only clears the tracker. The
// context can cancel a flush between ranges; cancelled flushes leave some
// ranges written and the remainder still marked dirty is not tracked, so a
// cancelled sync should be followed by a full retry.
func (m *Memory) Sync(ctx context.Context) error {
	if len(m.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.f != nil {
		for _, r := range m.coalesce() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.flushRange(r); err != nil {
				return err
			}
		}
		if err := m.f.Sync(); err != nil {
			return err
		}
	}
	m.ranges = m.ranges[:0]
	return nil
}

// DirtyRanges returns the coalesced dirty ranges (for tests and inspection).
func (m *Memory) DirtyRanges() []Range {
	return m.coalesce()
}

// coalesce frame-aligns all ranges, sorts them, and merges overlapping or
// adjacent ranges into a minimal set.
func (m *Memory) coalesce() []Range {
	if len(m.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(m.ranges))
	for i, r := range m.ranges {
		start := (r.Off / format.FrameSize) * format.FrameSize
		end := r.Off + r.Len
		if end%format.FrameSize != 0 {
			end = (end/format.FrameSize + 1) * format.FrameSize
		}
		if end > int64(len(m.data)) {
			end = int64(len(m.data))
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool { return aligned[i].Off < aligned[j].Off })

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.Off+current.Len {
			if end := next.Off + next.Len; end > current.Off+current.Len {
				current.Len = end - current.Off
			}
		} else {
			merged = append(merged, current)
			current = next
		}
	}
	return append(merged, current)
}

// Close releases the backing image, if any. Dirty ranges that were never
// synced are discarded on unmapped (fallback) backings.
func (m *Memory) Close() error {
	if m.f == nil {
		return nil
	}
	err := m.unmap()
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	m.f = nil
	m.data = nil
	return err
}
