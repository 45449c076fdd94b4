// Package storage is the local filesystem that recording slots live on.
// It provides the FS interface, the OS implementation and the IOError type
// shared by the slot, retention, capture and upload packages.
package storage

import (
	"fmt"
	"io"
)

// SectorSize is the unit free space is accounted in.
const SectorSize = 512

// Mode selects how Open opens a file.
type Mode int

const (
	// ModeRead opens an existing file read-only.
	ModeRead Mode = iota
	// ModeWrite creates or truncates a file write-only.
	ModeWrite
)

type File interface {
	io.Reader
	io.Writer
	io.Closer
}

// FS paths are slash-separated and rooted, e.g. "/rec5/chan0.raw".
type FS interface {
	Exists(path string) bool
	Mkdir(path string) error
	Rmdir(path string) error
	Remove(path string) error
	Open(path string, mode Mode) (File, error)
	// ReadDir returns the names of the entries in a directory, sorted.
	ReadDir(path string) ([]string, error)

	// FreeClusterCount and SectorsPerCluster estimate free space;
	// free sectors = FreeClusterCount * SectorsPerCluster.
	FreeClusterCount() (uint64, error)
	SectorsPerCluster() uint64
}

// IOError is a local file operation that failed.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FreeBlocks returns the free space of fs in sectors.
func FreeBlocks(fs FS) (uint64, error) {
	clusters, err := fs.FreeClusterCount()
	if err != nil {
		return 0, err
	}
	return clusters * fs.SectorsPerCluster(), nil
}
