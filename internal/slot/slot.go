// Package slot allocates numbered recording directories and keeps the
// persisted first/next counters that make slot numbering survive restarts.
package slot

import (
	"errors"
	"fmt"
	"time"

	"github.com/raoulx24/recpush/internal/config"
	"github.com/raoulx24/recpush/internal/storage"
)

var (
	// ErrResourceExhausted means there is not enough free space for a
	// recording and nothing more can be reclaimed.
	ErrResourceExhausted = errors.New("slot: storage exhausted")

	// ErrBufferOverflow means a formatted path does not fit in MaxPath.
	ErrBufferOverflow = errors.New("slot: formatted path exceeds capacity")
)

// Slot is one recording: its id, directory and per-channel file paths.
type Slot struct {
	ID    uint64
	Dir   string
	Files []string
}

// Layout formats slot directories and channel file names.
type Layout struct {
	DirTemplate  string
	FileTemplate string
	MaxPath      int
	Channels     int
}

func NewLayout(s config.StorageConfig, channels int) Layout {
	return Layout{
		DirTemplate:  s.DirTemplate,
		FileTemplate: s.FileTemplate,
		MaxPath:      s.MaxPath,
		Channels:     channels,
	}
}

func (l Layout) fit(p string) (string, error) {
	if l.MaxPath > 0 && len(p) > l.MaxPath {
		return "", fmt.Errorf("%w: %q is %d bytes, limit %d", ErrBufferOverflow, p, len(p), l.MaxPath)
	}
	return p, nil
}

// Dir returns the directory of slot id.
func (l Layout) Dir(id uint64) (string, error) {
	return l.fit(fmt.Sprintf(l.DirTemplate, id))
}

// ChannelFile returns the file of channel ch inside dir.
func (l Layout) ChannelFile(dir string, ch int) (string, error) {
	return l.fit(fmt.Sprintf(l.FileTemplate, dir, ch))
}

// Slot formats the full descriptor of slot id.
func (l Layout) Slot(id uint64) (Slot, error) {
	dir, err := l.Dir(id)
	if err != nil {
		return Slot{}, err
	}
	s := Slot{ID: id, Dir: dir, Files: make([]string, 0, l.Channels)}
	for ch := 0; ch < l.Channels; ch++ {
		f, err := l.ChannelFile(dir, ch)
		if err != nil {
			return Slot{}, err
		}
		s.Files = append(s.Files, f)
	}
	return s, nil
}

// RequiredBlocks is the number of sectors one recording of 16-bit samples
// needs, plus margin sectors for the counter files.
func RequiredBlocks(channels, sampleRate int, length time.Duration, margin uint64) uint64 {
	samples := uint64(length.Milliseconds()) * uint64(sampleRate) / 1000
	perChannel := (samples*2 + storage.SectorSize - 1) / storage.SectorSize
	return uint64(channels)*perChannel + margin
}
