//go:build !unix

package mem

import (
	"os"

	"github.com/joshuapare/pagekit/internal/format"
)

// Create creates an image file of the given number of frames and returns an
// arena over an in-memory copy; Sync writes dirty ranges back to the file.
func Create(path string, frames uint32) (*Memory, error) {
	if frames == 0 {
		return nil, ErrBadSize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	size := int64(frames) * format.FrameSize
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, err
	}
	return &Memory{
		data:   make([]byte, size),
		frames: frames,
		f:      f,
		ranges: make([]Range, 0, defaultRangeCapacity),
	}, nil
}

// Open loads an existing image file into memory. The file size must be a
// whole number of frames.
func Open(path string) (*Memory, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 || info.Size()%format.FrameSize != 0 {
		f.Close()
		return nil, ErrBadImage
	}
	data := make([]byte, info.Size())
	if _, err := f.ReadAt(data, 0); err != nil {
		f.Close()
		return nil, err
	}
	return &Memory{
		data:   data,
		frames: uint32(info.Size() / format.FrameSize),
		f:      f,
		ranges: make([]Range, 0, defaultRangeCapacity),
	}, nil
}

// flushRange writes one coalesced dirty range back to the image file.
func (m *Memory) flushRange(r Range) error {
	_, err := m.f.WriteAt(m.data[r.Off:r.Off+r.Len], r.Off)
	return err
}

func (m *Memory) unmap() error { return nil }
