package format

// Frame-state bitmap encoding: two bits per frame, four frames per byte.
//
// A plain free/used bitmap cannot express where a multi-frame run ends, so a
// release operation would not know how far to sweep. The head-of-sequence
// state is the minimal extra information needed: exactly one head marks the
// lowest-numbered frame of every allocated run.

// FrameState is the allocation state of a single frame.
type FrameState uint8

const (
	// StateFree marks a frame available for allocation.
	StateFree FrameState = 0b00

	// StateAllocated marks an interior member of an allocated run.
	StateAllocated FrameState = 0b01

	// StateHead marks the first frame of an allocated run. It is the only
	// state a release operation accepts.
	StateHead FrameState = 0b10

	stateMask = 0b11
)

// String returns the conventional name of the state.
func (s FrameState) String() string {
	switch s {
	case StateFree:
		return "Free"
	case StateAllocated:
		return "Allocated"
	case StateHead:
		return "HeadOfSequence"
	default:
		return "Invalid"
	}
}

// StateAt reads the state of frame idx from a packed bitmap.
func StateAt(bitmap []byte, idx uint32) FrameState {
	shift := (idx % StatesPerByte) * StateBits
	return FrameState(bitmap[idx/StatesPerByte]>>shift) & stateMask
}

// SetStateAt writes the state of frame idx into a packed bitmap.
func SetStateAt(bitmap []byte, idx uint32, s FrameState) {
	byteIdx := idx / StatesPerByte
	shift := (idx % StatesPerByte) * StateBits
	bitmap[byteIdx] = bitmap[byteIdx]&^(uint8(stateMask)<<shift) | uint8(s)<<shift
}
