package frame

import (
	"fmt"

	"github.com/joshuapare/pagekit/mem"
)

// Registry owns every Pool created for a machine, in registration order. It
// is the only holder of the release capability: a frame is released by
// number alone, and the registry finds the pool whose range covers it.
type Registry struct {
	pools []*Pool
}

// NewRegistry returns an empty pool registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewPool constructs a pool over frames [baseFrame, baseFrame+nFrames) of m
// and appends it to the registry. nFrames must be a positive multiple of 8 so
// the bitmap fills whole bytes. If infoFrame is zero the bitmap occupies the
// pool's own first management frames, which are recorded as an allocated run;
// otherwise it occupies the externally supplied frame, whose bookkeeping is
// the supplier's concern.
func (r *Registry) NewPool(m *mem.Memory, baseFrame, nFrames, infoFrame uint32) *Pool {
	p := newPool(m, baseFrame, nFrames, infoFrame)
	r.pools = append(r.pools, p)
	return p
}

// Release frees the allocated run headed by firstFrame, whichever pool it
// came from. Naming a frame outside every pool, or one that is not a run
// head, is fatal.
func (r *Registry) Release(firstFrame uint32) {
	p := r.PoolFor(firstFrame)
	if p == nil {
		panic(fmt.Errorf("%w: frame %d", ErrUnknownFrame, firstFrame))
	}
	p.release(firstFrame)
}

// PoolFor returns the registered pool whose range covers the frame, or nil.
func (r *Registry) PoolFor(frameNo uint32) *Pool {
	for _, p := range r.pools {
		if p.Contains(frameNo) {
			return p
		}
	}
	return nil
}

// Pools returns the registered pools in registration order.
func (r *Registry) Pools() []*Pool {
	out := make([]*Pool, len(r.pools))
	copy(out, r.pools)
	return out
}
