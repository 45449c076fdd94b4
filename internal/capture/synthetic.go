package capture

import (
	"encoding/binary"
	"math"
	"time"
)

// SyntheticQueue produces a sine tone as 16-bit little-endian PCM at a real
// sample rate, for running the recorder without capture hardware. Blocks the
// reader falls behind on beyond the queue capacity are dropped oldest first.
type SyntheticQueue struct {
	rate      int
	toneHz    float64
	amplitude float64
	samples   int // per block
	capacity  int
	now       func() time.Time

	running bool
	start   time.Time
	stop    time.Time
	ended   bool
	read    uint64 // blocks consumed since Begin
	dropped uint64
	block   []byte
}

// NewSyntheticQueue returns a queue of blockSize-byte blocks holding at most
// capacity blocks.
func NewSyntheticQueue(sampleRate, blockSize, capacity int, toneHz float64) *SyntheticQueue {
	return &SyntheticQueue{
		rate:      sampleRate,
		toneHz:    toneHz,
		amplitude: 0.5 * math.MaxInt16,
		samples:   blockSize / 2,
		capacity:  capacity,
		now:       time.Now,
		block:     make([]byte, blockSize),
	}
}

func (q *SyntheticQueue) Begin() error {
	q.running = true
	q.ended = false
	q.start = q.now()
	q.read = 0
	q.dropped = 0
	return nil
}

// produced is the number of whole blocks generated since Begin.
func (q *SyntheticQueue) produced() uint64 {
	if !q.running {
		return 0
	}
	end := q.now()
	if q.ended {
		end = q.stop
	}
	us := uint64(end.Sub(q.start) / time.Microsecond)
	return us * uint64(q.rate) / 1_000_000 / uint64(q.samples)
}

func (q *SyntheticQueue) Available() int {
	avail := q.produced() - q.read
	if over := avail - min(avail, uint64(q.capacity)); over > 0 {
		q.dropped += over
		q.read += over
		avail -= over
	}
	return int(avail)
}

func (q *SyntheticQueue) ReadBuffer() []byte {
	base := q.read * uint64(q.samples)
	w := 2 * math.Pi * q.toneHz / float64(q.rate)
	for i := 0; i < q.samples; i++ {
		v := int16(q.amplitude * math.Sin(w*float64(base+uint64(i))))
		binary.LittleEndian.PutUint16(q.block[2*i:], uint16(v))
	}
	return q.block
}

func (q *SyntheticQueue) FreeBuffer() { q.read++ }

// End freezes production at the current instant; already produced blocks stay readable.
func (q *SyntheticQueue) End() {
	if q.running && !q.ended {
		q.ended = true
		q.stop = q.now()
	}
}

func (q *SyntheticQueue) Clear() {
	q.running = false
	q.ended = false
	q.read = 0
}

// Dropped is the number of blocks lost to overruns since Begin.
func (q *SyntheticQueue) Dropped() uint64 { return q.dropped }
