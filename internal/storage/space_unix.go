//go:build linux || darwin || freebsd

package storage

import "golang.org/x/sys/unix"

// diskSpace returns the blocks available to unprivileged users and the block size.
func diskSpace(dir string) (free, blockSize uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, 0, err
	}
	return uint64(st.Bavail), uint64(st.Bsize), nil
}
