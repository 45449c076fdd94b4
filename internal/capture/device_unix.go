//go:build unix

package capture

import (
	"errors"

	"golang.org/x/sys/unix"
)

// DeviceQueue reads fixed-size PCM blocks from a character device or FIFO
// using non-blocking reads. Complete blocks are kept in a bounded ring; on
// overrun the oldest block is dropped.
type DeviceQueue struct {
	path    string
	fd      int
	size    int
	ring    [][]byte
	head    int
	count   int
	partial []byte
	free    [][]byte
	dropped uint64
	open    bool
	readErr error
}

func NewDeviceQueue(path string, blockSize, capacity int) *DeviceQueue {
	return &DeviceQueue{
		path:    path,
		fd:      -1,
		size:    blockSize,
		ring:    make([][]byte, capacity),
		partial: make([]byte, 0, blockSize),
	}
}

func (q *DeviceQueue) Begin() error {
	if q.open {
		return nil
	}
	fd, err := unix.Open(q.path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return &DeviceError{Path: q.path, Err: err}
	}
	q.fd = fd
	q.open = true
	q.readErr = nil
	return nil
}

// fill reads everything the device has ready without blocking.
func (q *DeviceQueue) fill() {
	if !q.open {
		return
	}
	for {
		n, err := unix.Read(q.fd, q.partial[len(q.partial):cap(q.partial)])
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return
		}
		if err != nil {
			q.readErr = err
			return
		}
		if n == 0 {
			// writer side closed
			return
		}
		q.partial = q.partial[:len(q.partial)+n]
		if len(q.partial) == q.size {
			q.push(q.partial)
			q.partial = q.alloc()
		}
	}
}

func (q *DeviceQueue) alloc() []byte {
	if n := len(q.free); n > 0 {
		b := q.free[n-1]
		q.free = q.free[:n-1]
		return b[:0]
	}
	return make([]byte, 0, q.size)
}

func (q *DeviceQueue) push(b []byte) {
	if q.count == len(q.ring) {
		q.free = append(q.free, q.ring[q.head])
		q.head = (q.head + 1) % len(q.ring)
		q.count--
		q.dropped++
	}
	q.ring[(q.head+q.count)%len(q.ring)] = b
	q.count++
}

func (q *DeviceQueue) Available() int {
	q.fill()
	return q.count
}

func (q *DeviceQueue) ReadBuffer() []byte {
	if q.count == 0 {
		return nil
	}
	return q.ring[q.head]
}

func (q *DeviceQueue) FreeBuffer() {
	if q.count == 0 {
		return
	}
	q.free = append(q.free, q.ring[q.head])
	q.ring[q.head] = nil
	q.head = (q.head + 1) % len(q.ring)
	q.count--
}

// End picks up what the device still has buffered and closes it.
// Blocks already queued stay readable until Clear.
func (q *DeviceQueue) End() {
	if !q.open {
		return
	}
	q.fill()
	_ = unix.Close(q.fd)
	q.fd = -1
	q.open = false
}

func (q *DeviceQueue) Clear() {
	for q.count > 0 {
		q.FreeBuffer()
	}
	q.head = 0
	q.partial = q.partial[:0]
}

func (q *DeviceQueue) Dropped() uint64 { return q.dropped }

// Err is the last read error seen, if any.
func (q *DeviceQueue) Err() error { return q.readErr }
