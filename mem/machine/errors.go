package machine

import "errors"

var (
	// ErrNoDirectory is the panic cause when paging is enabled before a
	// directory has been loaded.
	ErrNoDirectory = errors.New("machine: paging enabled with no directory loaded")

	// ErrUnalignedDirectory is the panic cause for a translation base that
	// is not frame aligned.
	ErrUnalignedDirectory = errors.New("machine: directory address not frame aligned")

	// ErrNoHandler is the panic cause for a page fault with no handler
	// installed.
	ErrNoHandler = errors.New("machine: page fault with no handler installed")

	// ErrRefault is the panic cause when an access still misses translation
	// after its fault was serviced.
	ErrRefault = errors.New("machine: refault")
)
