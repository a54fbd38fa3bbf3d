package paging

import (
	"fmt"

	"github.com/joshuapare/pagekit/internal/format"
	"github.com/joshuapare/pagekit/mem/frame"
	"github.com/joshuapare/pagekit/mem/machine"
)

// Pool is the view the fault handler has of a virtual-memory region manager:
// whether a linear address lies inside a region handed out to the workload.
type Pool interface {
	Contains(addr uint32) bool
}

// Context ties a machine to the frame pools that back its address spaces and
// services its page faults. Directory frames come from the kernel pool, page
// tables and data frames from the process pool.
type Context struct {
	mach    *machine.Machine
	reg     *frame.Registry
	kernel  *frame.Pool
	process *frame.Pool

	sharedSize uint32
	current    *AddressSpace
	pools      []Pool
}

// Init validates the paging configuration, installs the context as the
// machine's fault handler and returns it. sharedSize is the extent of the
// identity-mapped low region every address space shares; it must be a
// positive multiple of the 4 MiB a directory entry spans.
func Init(m *machine.Machine, reg *frame.Registry, kernel, process *frame.Pool, sharedSize uint32) (*Context, error) {
	if m == nil {
		return nil, ErrNoMachine
	}
	if kernel == nil || process == nil {
		return nil, ErrNoPool
	}
	if sharedSize == 0 || sharedSize%format.TableSpan != 0 {
		return nil, fmt.Errorf("%w: got %#x", ErrBadSharedSize, sharedSize)
	}
	ctx := &Context{
		mach:       m,
		reg:        reg,
		kernel:     kernel,
		process:    process,
		sharedSize: sharedSize,
	}
	m.SetFaultHandler(ctx)
	return ctx, nil
}

// Machine returns the machine this context services.
func (ctx *Context) Machine() *machine.Machine { return ctx.mach }

// Current returns the loaded address space, or nil before the first Load.
func (ctx *Context) Current() *AddressSpace { return ctx.current }

// EnablePaging flips the machine to translated addressing. An address space
// must have been loaded first.
func (ctx *Context) EnablePaging() {
	if ctx.current == nil {
		panic(ErrNoAddressSpace)
	}
	ctx.mach.EnablePaging()
}

// RegisterPool adds a region manager to the legitimacy check. Until the
// first pool registers, every fault is serviced; afterwards a fault outside
// all registered pools is fatal.
func (ctx *Context) RegisterPool(p Pool) {
	ctx.pools = append(ctx.pools, p)
}

// HandleFault demand-pages the address in CR2: it installs a page table if
// the directory slot is empty, then maps a fresh process frame. Table edits
// go through the recursive window of the running address space.
func (ctx *Context) HandleFault(r *machine.Regs) {
	addr := ctx.mach.CR2()
	if r.ErrCode&machine.ErrCodePresent != 0 {
		panic(fmt.Errorf("%w: address %#x", ErrProtectionFault, addr))
	}
	if len(ctx.pools) > 0 && !ctx.claimed(addr) {
		panic(fmt.Errorf("%w: address %#x", ErrUnclaimedAddress, addr))
	}

	dirIdx := format.DirIndex(addr)
	pde := format.Entry(ctx.mach.ReadU32(format.DirEntryAddr(dirIdx)))
	if !pde.Present() {
		tbl := ctx.process.Allocate(1)
		ctx.mach.WriteU32(format.DirEntryAddr(dirIdx),
			uint32(format.NewEntry(tbl, format.FlagPresent|format.FlagWritable)))
		for j := uint32(0); j < format.EntriesPerTable; j++ {
			ctx.mach.WriteU32(format.TableEntryAddr(dirIdx, j),
				uint32(format.NewEntry(0, format.FlagUser)))
		}
	}

	data := ctx.process.Allocate(1)
	ctx.mach.WriteU32(format.TableEntryAddr(dirIdx, format.TableIndex(addr)),
		uint32(format.NewEntry(data, format.FlagPresent|format.FlagWritable)))
}

// FreePage unmaps the page containing addr in the running address space and
// returns its frame to whichever pool issued it. Pages never populated are
// left alone. The entry keeps its frame bits and loses only the present bit,
// and the translation base is reloaded to flush stale translations.
func (ctx *Context) FreePage(addr uint32) {
	if ctx.current == nil {
		panic(ErrNoAddressSpace)
	}
	dirIdx := format.DirIndex(addr)
	pde := format.Entry(ctx.mach.ReadU32(format.DirEntryAddr(dirIdx)))
	if !pde.Present() {
		return
	}
	pteAddr := format.TableEntryAddr(dirIdx, format.TableIndex(addr))
	pte := format.Entry(ctx.mach.ReadU32(pteAddr))
	if !pte.Present() {
		return
	}
	ctx.reg.Release(pte.Frame())
	ctx.mach.WriteU32(pteAddr, uint32(pte.WithoutPresent()))
	ctx.mach.LoadCR3(ctx.mach.CR3())
}

func (ctx *Context) claimed(addr uint32) bool {
	for _, p := range ctx.pools {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
