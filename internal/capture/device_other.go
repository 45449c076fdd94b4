//go:build !unix

package capture

import "errors"

// DeviceQueue is not available on this platform; Begin always fails.
type DeviceQueue struct {
	path string
}

func NewDeviceQueue(path string, _, _ int) *DeviceQueue {
	return &DeviceQueue{path: path}
}

func (q *DeviceQueue) Begin() error {
	return &DeviceError{Path: q.path, Err: errors.New("raw capture devices require a unix system")}
}

func (q *DeviceQueue) Available() int     { return 0 }
func (q *DeviceQueue) ReadBuffer() []byte { return nil }
func (q *DeviceQueue) FreeBuffer()        {}
func (q *DeviceQueue) End()               {}
func (q *DeviceQueue) Clear()             {}
func (q *DeviceQueue) Dropped() uint64    { return 0 }
func (q *DeviceQueue) Err() error         { return nil }
