package paging

import "errors"

var (
	// ErrBadSharedSize is returned when the identity-mapped region is zero
	// or not a whole number of directory spans.
	ErrBadSharedSize = errors.New("paging: shared region size must be a positive multiple of 4 MiB")

	// ErrNoMachine is returned when a context is created without a machine.
	ErrNoMachine = errors.New("paging: nil machine")

	// ErrNoPool is returned when a context is created without both frame
	// pools.
	ErrNoPool = errors.New("paging: missing frame pool")

	// ErrProtectionFault is the panic cause for a fault on a present page.
	// The demand pager populates missing mappings only.
	ErrProtectionFault = errors.New("paging: protection fault")

	// ErrUnclaimedAddress is the panic cause for a fault on an address no
	// registered pool claims.
	ErrUnclaimedAddress = errors.New("paging: fault outside any registered pool")

	// ErrNoAddressSpace is the panic cause for operations that need a loaded
	// address space before one has been loaded.
	ErrNoAddressSpace = errors.New("paging: no address space loaded")
)
