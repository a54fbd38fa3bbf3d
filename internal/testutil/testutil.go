// Package testutil assembles the booted machine layout the package tests
// share: a small arena split into a kernel pool inside the identity-mapped
// region and a process pool above it.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagekit/internal/format"
	"github.com/joshuapare/pagekit/mem"
	"github.com/joshuapare/pagekit/mem/frame"
	"github.com/joshuapare/pagekit/mem/machine"
	"github.com/joshuapare/pagekit/mem/paging"
)

// Test layout, a scaled-down version of the classic split: the low 4 MiB is
// identity mapped, the kernel pool sits in its upper half, and the process
// pool is the memory above it.
const (
	TotalFrames   = 1280
	KernelBase    = 512
	KernelFrames  = 512
	ProcessBase   = 1024
	ProcessFrames = 256
	SharedSize    = format.TableSpan
)

// Env is a machine booted into paging with an address space loaded.
type Env struct {
	Mem     *mem.Memory
	Mach    *machine.Machine
	Reg     *frame.Registry
	Kernel  *frame.Pool
	Process *frame.Pool
	Ctx     *paging.Context
	Space   *paging.AddressSpace
}

// Boot builds the full stack: arena, pools, paging context, one address
// space, loaded and with paging enabled.
func Boot(t *testing.T) *Env {
	t.Helper()

	m, err := mem.New(TotalFrames)
	require.NoError(t, err)

	reg := frame.NewRegistry()
	kernel := reg.NewPool(m, KernelBase, KernelFrames, 0)
	process := reg.NewPool(m, ProcessBase, ProcessFrames, kernel.Allocate(1))

	c := machine.New(m)
	ctx, err := paging.Init(c, reg, kernel, process, SharedSize)
	require.NoError(t, err)

	space := ctx.NewAddressSpace()
	space.Load()
	ctx.EnablePaging()

	return &Env{
		Mem:     m,
		Mach:    c,
		Reg:     reg,
		Kernel:  kernel,
		Process: process,
		Ctx:     ctx,
		Space:   space,
	}
}
