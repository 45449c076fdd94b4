//go:build windows

package storage

import "golang.org/x/sys/windows"

// NTFS default allocation unit.
const windowsClusterSize = 4096

func diskSpace(dir string) (free, blockSize uint64, err error) {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, 0, err
	}
	var avail, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &avail, &total, &totalFree); err != nil {
		return 0, 0, err
	}
	return avail / windowsClusterSize, windowsClusterSize, nil
}
