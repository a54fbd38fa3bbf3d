package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagekit/internal/format"
	"github.com/joshuapare/pagekit/mem"
	"github.com/joshuapare/pagekit/mem/frame"
	"github.com/joshuapare/pagekit/mem/machine"
	"github.com/joshuapare/pagekit/mem/paging"
	"github.com/joshuapare/pagekit/mem/vmpool"
)

// Machine layout: the low 4 MiB is identity mapped, the kernel pool sits in
// its upper half, and everything above feeds the process pool.
const (
	kernelBase   = 512
	kernelFrames = 512
	processBase  = 1024

	poolBase = 64 << 20
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	var (
		frames  uint32
		regions int
		pages   int
		poolMB  uint32
		image   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot a paged machine and run a demand-paging workload",
		Long: `The run command boots a simulated machine, enables two-level paging
with an identity-mapped low region, and drives a virtual-memory pool through
an allocate, touch, release, and reuse cycle. With --image the physical
memory is backed by a file and the dirtied frames are synced on completion.

Example:
  pagectl run --regions 16 --pages 8
  pagectl run --image run.mem --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload(frames, regions, pages, poolMB, image)
		},
	}

	cmd.Flags().Uint32Var(&frames, "frames", 1280, "Physical frames in the arena")
	cmd.Flags().IntVar(&regions, "regions", 8, "Regions to allocate")
	cmd.Flags().IntVar(&pages, "pages", 4, "Pages to touch per region")
	cmd.Flags().Uint32Var(&poolMB, "pool-mb", 4, "Virtual pool size in MiB")
	cmd.Flags().StringVar(&image, "image", "", "Back physical memory with this file")
	return cmd
}

type runReport struct {
	Frames      uint32 `json:"frames"`
	Faults      int    `json:"faults"`
	KernelFree  uint32 `json:"kernel_free_frames"`
	ProcessFree uint32 `json:"process_free_frames"`
	PoolRegions int    `json:"pool_regions"`
	PoolFree    uint32 `json:"pool_free_bytes"`
	Image       string `json:"image,omitempty"`
}

func runWorkload(frames uint32, regions, pages int, poolMB uint32, image string) error {
	if frames < processBase+8 || (frames-processBase)%8 != 0 {
		return fmt.Errorf("--frames must be at least %d and leave a multiple of 8 above it", processBase+8)
	}
	if regions < 1 || pages < 1 {
		return fmt.Errorf("--regions and --pages must be positive")
	}

	var (
		m   *mem.Memory
		err error
	)
	if image != "" {
		m, err = mem.Create(image, frames)
	} else {
		m, err = mem.New(frames)
	}
	if err != nil {
		return fmt.Errorf("failed to create arena: %w", err)
	}
	defer m.Close()

	reg := frame.NewRegistry()
	kernel := reg.NewPool(m, kernelBase, kernelFrames, 0)
	process := reg.NewPool(m, processBase, frames-processBase, kernel.Allocate(1))

	mach := machine.New(m)
	ctx, err := paging.Init(mach, reg, kernel, process, format.TableSpan)
	if err != nil {
		return fmt.Errorf("failed to initialize paging: %w", err)
	}

	space := ctx.NewAddressSpace()
	space.Load()
	ctx.EnablePaging()
	log.Debug("paging enabled", "directory_frame", space.DirFrame())

	pool, err := vmpool.New(poolBase, poolMB<<20, ctx)
	if err != nil {
		return fmt.Errorf("failed to create vm pool: %w", err)
	}

	regionSize := uint32(pages) * format.PageSize
	bases := make([]uint32, 0, regions)
	for i := 0; i < regions; i++ {
		base := pool.Allocate(regionSize)
		for p := 0; p < pages; p++ {
			mach.WriteU32(base+uint32(p)*format.PageSize, uint32(i*pages+p))
		}
		bases = append(bases, base)
		log.Debug("region populated", "base", fmt.Sprintf("%#x", base), "pages", pages)
	}

	// Give back every other region, then allocate once more so the reuse
	// path runs too.
	for i := 0; i < len(bases); i += 2 {
		pool.Release(bases[i])
	}
	reused := pool.Allocate(regionSize)
	mach.WriteU32(reused, 0xFFFFFFFF)
	log.Debug("gap reused", "base", fmt.Sprintf("%#x", reused))

	if image != "" {
		if err := m.Sync(context.Background()); err != nil {
			return fmt.Errorf("failed to sync image: %w", err)
		}
	}

	report := runReport{
		Frames:      frames,
		Faults:      mach.Faults(),
		KernelFree:  kernel.FreeFrames(),
		ProcessFree: process.FreeFrames(),
		PoolRegions: len(pool.Regions()),
		PoolFree:    pool.Available(),
		Image:       image,
	}
	if jsonOut {
		return printJSON(report)
	}

	printInfo("Workload complete:\n")
	printInfo("  Frames: %d\n", report.Frames)
	printInfo("  Page faults: %d\n", report.Faults)
	printInfo("  Kernel pool free: %d frames\n", report.KernelFree)
	printInfo("  Process pool free: %d frames\n", report.ProcessFree)
	printInfo("  Pool regions: %d\n", report.PoolRegions)
	printInfo("  Pool free: %d bytes\n", report.PoolFree)
	if image != "" {
		printInfo("  Image: %s\n", image)
	}
	return nil
}
