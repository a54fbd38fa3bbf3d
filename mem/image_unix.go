//go:build unix

package mem

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/pagekit/internal/format"
)

// Create creates an image file of the given number of frames, zero-filled,
// and returns a memory-mapped arena over it.
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
	return mapFile(f, frames)
}

// Open maps an existing image file. The file size must be a whole number of
// frames.
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
	return mapFile(f, uint32(info.Size()/format.FrameSize))
}

func mapFile(f *os.File, frames uint32) (*Memory, error) {
	size := int(frames) * format.FrameSize
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Memory{
		data:   data,
		frames: frames,
		f:      f,
		mapped: true,
		ranges: make([]Range, 0, defaultRangeCapacity),
	}, nil
}

// flushRange msyncs one coalesced dirty range in place.
func (m *Memory) flushRange(r Range) error {
	return unix.Msync(m.data[r.Off:r.Off+r.Len], unix.MS_SYNC)
}

func (m *Memory) unmap() error {
	if !m.mapped || m.data == nil {
		return nil
	}
	m.mapped = false
	return unix.Munmap(m.data)
}
