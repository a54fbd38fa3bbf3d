package vmpool

import (
	"fmt"

	"github.com/joshuapare/pagekit/internal/format"
	"github.com/joshuapare/pagekit/mem/paging"
)

// Region is one allocated address range, page granular.
type Region struct {
	Base uint32
	Size uint32
}

// Pool manages one linear address range. Region records live in the range's
// first page and are read and written through the machine, so they are
// demand-paged like everything else. Records stay sorted by base address.
type Pool struct {
	ctx  *paging.Context
	base uint32
	size uint32

	count     int    // records in the table, including the bookkeeping region
	available uint32 // bytes not covered by any region
}

// New carves a pool out of [base, base+size), registers it with the paging
// context, and claims the first page for its own region records. The record
// write is the pool's only eager page-in.
func New(base, size uint32, ctx *paging.Context) (*Pool, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	if base%format.PageSize != 0 || size%format.PageSize != 0 || size < 2*format.PageSize {
		return nil, fmt.Errorf("%w: base %#x size %#x", ErrBadRegion, base, size)
	}

	p := &Pool{ctx: ctx, base: base, size: size}
	ctx.RegisterPool(p)

	p.writeRecord(0, Region{Base: base, Size: format.PageSize})
	p.count = 1
	p.available = size - format.PageSize
	return p, nil
}

// Base returns the pool's first linear address.
func (p *Pool) Base() uint32 { return p.base }

// Size returns the extent of the pool's range in bytes.
func (p *Pool) Size() uint32 { return p.size }

// Available returns the bytes not covered by any region.
func (p *Pool) Available() uint32 { return p.available }

// Contains reports whether addr lies inside the pool's range. The paging
// fault handler calls this to vet faulting addresses.
func (p *Pool) Contains(addr uint32) bool {
	return addr >= p.base && addr < p.base+p.size
}

// Regions returns a snapshot of the record table, bookkeeping region first.
func (p *Pool) Regions() []Region {
	out := make([]Region, p.count)
	for i := range out {
		out[i] = p.record(i)
	}
	return out
}

// Allocate reserves the first gap that fits size rounded up to whole pages
// and returns the region's base address. No frames are consumed until the
// region is touched. Exhaustion and a full record table are fatal.
func (p *Pool) Allocate(size uint32) uint32 {
	if size == 0 {
		panic(ErrBadSize)
	}
	length := format.PagesFor(size) * format.PageSize
	if length > p.available {
		panic(fmt.Errorf("%w: %#x requested, %#x available", ErrNoSpace, length, p.available))
	}
	if p.count == format.RegionsPerPage {
		panic(fmt.Errorf("%w: %d regions", ErrPoolFull, p.count))
	}

	insert := -1
	var start uint32
	for i := 0; i < p.count; i++ {
		r := p.record(i)
		end := r.Base + r.Size
		next := p.base + p.size
		if i+1 < p.count {
			next = p.record(i + 1).Base
		}
		if next-end >= length {
			start = end
			insert = i + 1
			break
		}
	}
	if insert < 0 {
		panic(fmt.Errorf("%w: %#x requested, %#x available but fragmented", ErrNoSpace, length, p.available))
	}

	for i := p.count; i > insert; i-- {
		p.writeRecord(i, p.record(i-1))
	}
	p.writeRecord(insert, Region{Base: start, Size: length})
	p.count++
	p.available -= length
	return start
}

// Release dissolves the region starting at start: every populated page goes
// back to its frame pool and the record table compacts. Releasing anything
// but a region base, including the bookkeeping page, is fatal.
func (p *Pool) Release(start uint32) {
	for i := 1; i < p.count; i++ {
		r := p.record(i)
		if r.Base != start {
			continue
		}
		for addr := r.Base; addr < r.Base+r.Size; addr += format.PageSize {
			p.ctx.FreePage(addr)
		}
		for j := i; j < p.count-1; j++ {
			p.writeRecord(j, p.record(j+1))
		}
		p.count--
		p.available += r.Size
		return
	}
	panic(fmt.Errorf("%w: no region starts at %#x", ErrNoSuchRegion, start))
}

func (p *Pool) record(i int) Region {
	m := p.ctx.Machine()
	return Region{
		Base: m.ReadU32(format.RegionBaseAddr(p.base, i)),
		Size: m.ReadU32(format.RegionLenAddr(p.base, i)),
	}
}

func (p *Pool) writeRecord(i int, r Region) {
	m := p.ctx.Machine()
	m.WriteU32(format.RegionBaseAddr(p.base, i), r.Base)
	m.WriteU32(format.RegionLenAddr(p.base, i), r.Size)
}
