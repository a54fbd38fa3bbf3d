package frame

import (
	"fmt"

	"github.com/joshuapare/pagekit/internal/format"
	"github.com/joshuapare/pagekit/mem"
)

// Pool is a contiguous-frame allocator over one range of physical frames.
// Construct pools through Registry.NewPool.
type Pool struct {
	mem  *mem.Memory
	base uint32 // first frame number owned by the pool
	n    uint32 // total frames, multiple of 8
	free uint32

	bitmap    []byte // two bits per frame, inside management frames
	bitmapOff int    // arena byte offset of the bitmap, for dirty marking
	infoFrame uint32 // first management frame (absolute)

	stats Stats
}

// Stats holds allocation counters for instrumentation and tests.
type Stats struct {
	AllocCalls     int   // successful Allocate calls
	ReleaseCalls   int   // runs released through the registry
	FramesAlloced  int64 // frames handed out by Allocate
	FramesReleased int64 // frames returned by release
	FramesReserved int64 // frames taken by MarkInaccessible and bitmap storage
}

// NeededInfoFrames returns the number of whole management frames required to
// hold a two-bit-per-frame bitmap for n frames.
func NeededInfoFrames(n uint32) uint32 {
	return (n + format.StatesPerFrame - 1) / format.StatesPerFrame
}

// newPool is the Registry-internal constructor; see Registry.NewPool.
func newPool(m *mem.Memory, baseFrame, nFrames, infoFrame uint32) *Pool {
	if nFrames == 0 || nFrames%8 != 0 {
		panic(fmt.Errorf("%w: got %d", ErrBadPoolSize, nFrames))
	}
	if baseFrame+nFrames < baseFrame || baseFrame+nFrames > m.Frames() {
		panic(fmt.Errorf("%w: frames [%d, %d) of %d", ErrOutOfRange, baseFrame, baseFrame+nFrames, m.Frames()))
	}

	infoFrames := NeededInfoFrames(nFrames)
	p := &Pool{
		mem:  m,
		base: baseFrame,
		n:    nFrames,
		free: nFrames,
	}

	if infoFrame == 0 {
		// Bitmap lives in the pool's own first frames.
		p.infoFrame = baseFrame
	} else {
		p.infoFrame = infoFrame
	}
	p.bitmap = m.FrameBytes(p.infoFrame, infoFrames)
	p.bitmapOff = int(p.infoFrame) * format.FrameSize

	// All frames start Free.
	clear(p.bitmap[:(nFrames+format.StatesPerByte-1)/format.StatesPerByte])
	m.MarkDirty(p.bitmapOff, len(p.bitmap))

	if infoFrame == 0 {
		// The management frames are recorded as a normal allocated run so
		// the one-head-per-run invariant holds for every non-free frame.
		p.markRun(0, infoFrames)
		p.free -= infoFrames
		p.stats.FramesReserved += int64(infoFrames)
	}
	return p
}

// BaseFrame returns the pool's first frame number.
func (p *Pool) BaseFrame() uint32 { return p.base }

// TotalFrames returns the number of frames the pool manages.
func (p *Pool) TotalFrames() uint32 { return p.n }

// FreeFrames returns the current free-frame count.
func (p *Pool) FreeFrames() uint32 { return p.free }

// Stats returns the pool's allocation counters.
func (p *Pool) Stats() Stats { return p.stats }

// Contains reports whether the absolute frame number lies in the pool.
func (p *Pool) Contains(frameNo uint32) bool {
	return frameNo >= p.base && frameNo < p.base+p.n
}

// StateOf returns the recorded state of the absolute frame number.
func (p *Pool) StateOf(frameNo uint32) format.FrameState {
	if !p.Contains(frameNo) {
		panic(fmt.Errorf("%w: frame %d not in [%d, %d)", ErrOutOfRange, frameNo, p.base, p.base+p.n))
	}
	return p.state(frameNo - p.base)
}

// Allocate finds the first run of at least n consecutive free frames, marks
// it allocated, and returns the absolute frame number of the run's first
// frame. Exhaustion is fatal and mutates nothing.
func (p *Pool) Allocate(n uint32) uint32 {
	if n == 0 {
		panic(fmt.Errorf("%w: Allocate(0)", ErrBadRequest))
	}
	if n > p.free {
		panic(fmt.Errorf("%w: %d requested, %d free", ErrNoFrames, n, p.free))
	}

	start, ok := p.findRun(n)
	if !ok {
		panic(fmt.Errorf("%w: %d contiguous requested, %d free but fragmented", ErrNoRun, n, p.free))
	}

	p.markRun(start, n)
	p.free -= n
	p.stats.AllocCalls++
	p.stats.FramesAlloced += int64(n)
	return p.base + start
}

// MarkInaccessible records the exact frame range [baseFrame, baseFrame+n) as
// an allocated run without searching for it. It reserves frames already
// consumed by boot-time structures before the pool learned about them. The
// range must lie inside the pool and be entirely free.
func (p *Pool) MarkInaccessible(baseFrame, n uint32) {
	if n == 0 {
		panic(fmt.Errorf("%w: MarkInaccessible of 0 frames", ErrBadRequest))
	}
	first := baseFrame - p.base
	if baseFrame < p.base || first+n < first || first+n > p.n {
		panic(fmt.Errorf("%w: frames [%d, %d) not in [%d, %d)", ErrOutOfRange, baseFrame, baseFrame+n, p.base, p.base+p.n))
	}
	for idx := first; idx < first+n; idx++ {
		if p.state(idx) != format.StateFree {
			panic(fmt.Errorf("%w: frame %d is %v", ErrRangeInUse, p.base+idx, p.state(idx)))
		}
	}

	p.markRun(first, n)
	p.free -= n
	p.stats.FramesReserved += int64(n)
}

// findRun returns the pool-relative index of the first run of n free frames.
func (p *Pool) findRun(n uint32) (uint32, bool) {
	var runLen uint32
	for idx := uint32(0); idx < p.n; idx++ {
		if p.state(idx) != format.StateFree {
			runLen = 0
			continue
		}
		runLen++
		if runLen == n {
			return idx + 1 - n, true
		}
	}
	return 0, false
}

// markRun marks index start as head-of-sequence and the following n-1 frames
// as allocated.
func (p *Pool) markRun(start, n uint32) {
	p.setState(start, format.StateHead)
	for idx := start + 1; idx < start+n; idx++ {
		p.setState(idx, format.StateAllocated)
	}
}

// release frees the run headed by the absolute frame number. Called by the
// registry after the range lookup.
func (p *Pool) release(firstFrame uint32) {
	idx := firstFrame - p.base
	if p.state(idx) != format.StateHead {
		panic(fmt.Errorf("%w: frame %d is %v", ErrNotHead, firstFrame, p.state(idx)))
	}

	p.setState(idx, format.StateFree)
	p.free++
	released := int64(1)

	// Sweep forward over the run's interior. The first Free or
	// HeadOfSequence frame is either the end of this run or the start of
	// the next one; it stays untouched.
	for idx++; idx < p.n && p.state(idx) == format.StateAllocated; idx++ {
		p.setState(idx, format.StateFree)
		p.free++
		released++
	}

	p.stats.ReleaseCalls++
	p.stats.FramesReleased += released
}

func (p *Pool) state(idx uint32) format.FrameState {
	return format.StateAt(p.bitmap, idx)
}

func (p *Pool) setState(idx uint32, s format.FrameState) {
	format.SetStateAt(p.bitmap, idx, s)
	p.mem.MarkDirty(p.bitmapOff+int(idx/format.StatesPerByte), 1)
}
