package vmpool

import "errors"

var (
	// ErrBadRegion is returned when the pool's own range is unaligned or too
	// small to hold its region records.
	ErrBadRegion = errors.New("vmpool: pool range must be page aligned and at least two pages")

	// ErrNoContext is returned when a pool is created without a paging
	// context.
	ErrNoContext = errors.New("vmpool: nil paging context")

	// ErrBadSize is the panic cause for a zero-size allocation.
	ErrBadSize = errors.New("vmpool: zero-size allocation")

	// ErrNoSpace is the panic cause when no gap in the pool can hold the
	// requested region.
	ErrNoSpace = errors.New("vmpool: not enough address space")

	// ErrPoolFull is the panic cause when the region record page is full.
	ErrPoolFull = errors.New("vmpool: region table full")

	// ErrNoSuchRegion is the panic cause for releasing an address that is
	// not the start of an allocated region.
	ErrNoSuchRegion = errors.New("vmpool: no such region")
)
