package mem

import "errors"

var (
	// ErrBadSize indicates a requested arena size of zero frames.
	ErrBadSize = errors.New("mem: frame count must be positive")

	// ErrBadImage indicates an image file whose size is not a whole number
	// of frames.
	ErrBadImage = errors.New("mem: image size is not frame-aligned")

	// ErrOutOfBounds indicates a physical access outside the arena. There is
	// no recovery from addressing memory that does not exist; accessors
	// panic with an error wrapping this sentinel.
	ErrOutOfBounds = errors.New("mem: physical access out of bounds")
)
