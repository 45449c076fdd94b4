package storage

import (
	"errors"
	"os"
	"path"
	"path/filepath"
)

// OS is an FS backed by a directory on the local filesystem.
// Platform-specific free space queries live in build-tagged files.
type OS struct {
	root              string
	sectorsPerCluster uint64
}

// New returns an FS rooted at root, creating the directory if needed.
func New(root string) (*OS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: root, Err: err}
	}

	return newOS(root), nil
}

func newOS(root string) *OS {
	o := &OS{root: root, sectorsPerCluster: 8}
	if _, blockSize, err := diskSpace(root); err == nil && blockSize >= SectorSize {
		o.sectorsPerCluster = blockSize / SectorSize
	}
	return o
}

// Existing returns an FS rooted at root without creating anything.
func Existing(root string) (*OS, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, &IOError{Op: "stat", Path: root, Err: err}
	}
	if !st.IsDir() {
		return nil, &IOError{Op: "stat", Path: root, Err: errors.New("not a directory")}
	}
	return newOS(root), nil
}

func (o *OS) Root() string { return o.root }

// resolve maps a slash path onto the root; ".." cannot escape it.
func (o *OS) resolve(p string) string {
	return filepath.Join(o.root, filepath.FromSlash(path.Clean("/"+p)))
}

func (o *OS) Exists(p string) bool {
	_, err := os.Stat(o.resolve(p))
	return err == nil
}

func (o *OS) Mkdir(p string) error {
	if err := os.Mkdir(o.resolve(p), 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: p, Err: err}
	}
	return nil
}

func (o *OS) Rmdir(p string) error {
	full := o.resolve(p)
	st, err := os.Stat(full)
	if err != nil {
		return &IOError{Op: "rmdir", Path: p, Err: err}
	}
	if !st.IsDir() {
		return &IOError{Op: "rmdir", Path: p, Err: errors.New("not a directory")}
	}
	if err := os.Remove(full); err != nil {
		return &IOError{Op: "rmdir", Path: p, Err: err}
	}
	return nil
}

func (o *OS) Remove(p string) error {
	if err := os.Remove(o.resolve(p)); err != nil {
		return &IOError{Op: "remove", Path: p, Err: err}
	}
	return nil
}

func (o *OS) Open(p string, mode Mode) (File, error) {
	var (
		f   *os.File
		err error
	)
	switch mode {
	case ModeRead:
		f, err = os.Open(o.resolve(p))
	case ModeWrite:
		f, err = os.OpenFile(o.resolve(p), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	default:
		err = errors.New("unknown mode")
	}
	if err != nil {
		return nil, &IOError{Op: "open", Path: p, Err: err}
	}
	return f, nil
}

func (o *OS) ReadDir(p string) ([]string, error) {
	entries, err := os.ReadDir(o.resolve(p))
	if err != nil {
		return nil, &IOError{Op: "readdir", Path: p, Err: err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (o *OS) FreeClusterCount() (uint64, error) {
	free, blockSize, err := diskSpace(o.root)
	if err != nil {
		return 0, &IOError{Op: "statfs", Path: o.root, Err: err}
	}
	// report in this FS's cluster unit even if the block size moved
	return free * (blockSize / SectorSize) / o.sectorsPerCluster, nil
}

func (o *OS) SectorsPerCluster() uint64 { return o.sectorsPerCluster }

// Size returns the length of the file at p.
func (o *OS) Size(p string) (int64, error) {
	st, err := os.Stat(o.resolve(p))
	if err != nil {
		return 0, &IOError{Op: "stat", Path: p, Err: err}
	}
	return st.Size(), nil
}
