package frame

import "errors"

var (
	// ErrBadPoolSize indicates a frame count that is zero or does not fill
	// whole bitmap bytes (must be a multiple of 8).
	ErrBadPoolSize = errors.New("frame: pool size must be a positive multiple of 8")

	// ErrBadRequest indicates an allocation request for zero frames.
	ErrBadRequest = errors.New("frame: frame count must be positive")

	// ErrNoFrames indicates a request exceeding the pool's free-frame count.
	ErrNoFrames = errors.New("frame: not enough free frames")

	// ErrNoRun indicates that no sufficiently long run of free frames exists
	// even though enough individual frames are free.
	ErrNoRun = errors.New("frame: no contiguous run of free frames")

	// ErrOutOfRange indicates a frame range outside the pool being addressed.
	ErrOutOfRange = errors.New("frame: frame range outside pool")

	// ErrRangeInUse indicates an attempt to reserve frames that are not free.
	ErrRangeInUse = errors.New("frame: frame range overlaps allocated frames")

	// ErrNotHead indicates a release naming a frame that is not the head of
	// an allocated run.
	ErrNotHead = errors.New("frame: release of non-head frame")

	// ErrUnknownFrame indicates a release naming a frame no registered pool
	// covers.
	ErrUnknownFrame = errors.New("frame: no pool owns frame")
)
