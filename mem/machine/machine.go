// Package machine models the slice of hardware the memory system talks to:
// the translation-base and fault-address registers, the paging enable bit,
// the two-level MMU walk, and trap dispatch into a registered page-fault
// handler.
//
// A fault is a forced procedure call: an access that misses translation
// invokes the handler synchronously on the same logical thread and then
// retries the access exactly once. The handler must leave the mapping for
// the faulting address present; a second miss for the same access is fatal.
package machine

import (
	"fmt"

	"github.com/joshuapare/pagekit/internal/format"
	"github.com/joshuapare/pagekit/mem"
)

// Hardware error-code bits reported to the fault handler.
const (
	// ErrCodePresent is set when the fault was a protection violation on a
	// present page rather than a missing mapping.
	ErrCodePresent = 1 << 0

	// ErrCodeWrite is set when the faulting access was a write.
	ErrCodeWrite = 1 << 1
)

// Regs is the register snapshot handed to a fault handler.
type Regs struct {
	ErrCode uint32
}

// FaultHandler services page faults. The faulting linear address and the
// active translation base are read from the machine's registers, as on the
// real hardware.
type FaultHandler interface {
	HandleFault(r *Regs)
}

// Machine is one simulated processor context: registers plus the physical
// memory arena. Exactly one translation table is active at a time.
type Machine struct {
	mem *mem.Memory

	cr0 uint32 // bit 31 = paging enable
	cr2 uint32 // faulting linear address
	cr3 uint32 // physical address of the active page directory

	handler FaultHandler
	faults  int
}

const cr0PagingBit = 1 << 31

// New returns a machine over the given arena, paging disabled.
func New(m *mem.Memory) *Machine {
	return &Machine{mem: m}
}

// Mem returns the machine's physical memory arena.
func (c *Machine) Mem() *mem.Memory { return c.mem }

// SetFaultHandler installs the page-fault entry point.
func (c *Machine) SetFaultHandler(h FaultHandler) { c.handler = h }

// LoadCR3 installs the physical address of a page directory as the active
// translation base. Reloading also stands in for the coarse whole-TLB flush
// of the real register write; the simulation holds no translation cache, so
// the flush is implicit.
func (c *Machine) LoadCR3(addr uint32) {
	if addr%format.FrameSize != 0 {
		panic(fmt.Errorf("%w: %#x", ErrUnalignedDirectory, addr))
	}
	c.cr3 = addr
}

// CR3 returns the active translation-base physical address.
func (c *Machine) CR3() uint32 { return c.cr3 }

// CR2 returns the most recent faulting linear address.
func (c *Machine) CR2() uint32 { return c.cr2 }

// EnablePaging sets the paging bit. A directory must be loaded first. There
// is no way back: the architecture switch is irreversible within this core.
func (c *Machine) EnablePaging() {
	if c.cr3 == 0 {
		panic(ErrNoDirectory)
	}
	c.cr0 |= cr0PagingBit
}

// PagingEnabled reports whether linear addresses are being translated.
func (c *Machine) PagingEnabled() bool { return c.cr0&cr0PagingBit != 0 }

// Faults returns the number of page faults dispatched so far.
func (c *Machine) Faults() int { return c.faults }

// Translate walks the active tables for addr and returns the physical
// address, or false if the directory or table entry is not present. It never
// faults; paging must be enabled.
func (c *Machine) Translate(addr uint32) (uint32, bool) {
	pde := format.Entry(c.mem.ReadU32(c.cr3 + format.DirIndex(addr)*format.EntrySize))
	if !pde.Present() {
		return 0, false
	}
	pte := format.Entry(c.mem.ReadU32(pde.FrameAddr() + format.TableIndex(addr)*format.EntrySize))
	if !pte.Present() {
		return 0, false
	}
	return pte.FrameAddr() | format.PageOffset(addr), true
}

// ReadU32 reads the 32-bit word at a linear address, faulting in the mapping
// if needed.
func (c *Machine) ReadU32(addr uint32) uint32 {
	return c.mem.ReadU32(c.access(addr, false))
}

// WriteU32 writes the 32-bit word at a linear address, faulting in the
// mapping if needed.
func (c *Machine) WriteU32(addr, v uint32) {
	c.mem.WriteU32(c.access(addr, true), v)
}

// ReadByte reads the byte at a linear address.
func (c *Machine) ReadByte(addr uint32) byte {
	return c.mem.ReadByte(c.access(addr, false))
}

// WriteByte writes the byte at a linear address.
func (c *Machine) WriteByte(addr uint32, v byte) {
	c.mem.WriteByte(c.access(addr, true), v)
}

// Touch performs a read access at a linear address, discarding the value.
// It exists so workloads can fault pages in without caring about contents.
func (c *Machine) Touch(addr uint32) {
	c.access(addr, false)
}

// access resolves a linear address to a physical one, dispatching a fault
// and retrying once when translation misses.
func (c *Machine) access(addr uint32, write bool) uint32 {
	if !c.PagingEnabled() {
		return addr
	}
	if phys, ok := c.Translate(addr); ok {
		return phys
	}

	c.dispatchFault(addr, write)

	phys, ok := c.Translate(addr)
	if !ok {
		panic(fmt.Errorf("%w: address %#x still unmapped after fault service", ErrRefault, addr))
	}
	return phys
}

func (c *Machine) dispatchFault(addr uint32, write bool) {
	if c.handler == nil {
		panic(fmt.Errorf("%w: fault at %#x", ErrNoHandler, addr))
	}
	c.cr2 = addr
	var code uint32
	if write {
		code |= ErrCodeWrite
	}
	c.faults++
	c.handler.HandleFault(&Regs{ErrCode: code})
}
