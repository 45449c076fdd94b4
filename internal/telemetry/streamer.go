package telemetry

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/raoulx24/recpush/internal/framing"
	"github.com/raoulx24/recpush/internal/logging"
)

var errQueueFull = errors.New("telemetry: frame queue full")

// Option configures a Streamer.
type Option func(*Streamer)

// WithQueue sets how many encoded frames may wait for the port. When the
// queue is full new frames are dropped.
func WithQueue(n int) Option {
	return func(s *Streamer) {
		if n > 0 {
			s.queue = n
		}
	}
}

// WithDecimation sends only the first of every n complete block sets.
func WithDecimation(n int) Option {
	return func(s *Streamer) {
		if n > 0 {
			s.every = n
		}
	}
}

// Streamer collects one block per channel and, once every channel has
// offered one, queues them as a single stuffed frame. A background goroutine
// drains the queue into the writer so a slow port never stalls Offer. It
// satisfies capture.Tap. A block offered twice before the frame completes
// replaces the earlier one.
type Streamer struct {
	w        io.Writer
	channels int
	every    int
	queue    int
	log      logging.Logger

	// owned by the goroutine calling Offer
	blocks  [][]byte
	have    []bool
	pending int
	sets    int
	seq     uint8
	raw     []byte

	mu      sync.Mutex
	closed  bool
	frames  chan []byte
	done    chan struct{}
	dropped atomic.Uint64
	written atomic.Uint64
}

// NewStreamer starts the writer goroutine; Close stops it.
func NewStreamer(w io.Writer, channels int, log logging.Logger, opts ...Option) *Streamer {
	s := &Streamer{
		w:        w,
		channels: channels,
		every:    1,
		queue:    8,
		log:      log,
		blocks:   make([][]byte, channels),
		have:     make([]bool, channels),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.frames = make(chan []byte, s.queue)

	go s.writeLoop()
	return s
}

func (s *Streamer) Offer(ch int, block []byte) {
	if ch < 0 || ch >= s.channels {
		return
	}
	s.blocks[ch] = append(s.blocks[ch][:0], block...)
	if !s.have[ch] {
		s.have[ch] = true
		s.pending++
	}
	if s.pending < s.channels {
		return
	}

	for i := range s.have {
		s.have[i] = false
	}
	s.pending = 0
	s.sets++
	if (s.sets-1)%s.every == 0 {
		s.emit()
	}
}

func (s *Streamer) emit() {
	f := Frame{
		SamplesPerChannel: uint16(len(s.blocks[0]) / 2),
		Channels:          uint8(s.channels),
		Sequence:          s.seq,
	}
	samples := s.raw[:0]
	for _, b := range s.blocks {
		samples = append(samples, b...)
	}
	f.Samples = samples
	s.raw = samples

	payload, err := f.MarshalBinary()
	if err != nil {
		s.drop(err)
		return
	}
	// dropped frames still consume a sequence number
	s.seq++

	enc := framing.AppendEncode(make([]byte, 0, framing.MaxEncodedLen(len(payload))), payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.frames <- enc:
	default:
		s.drop(errQueueFull)
	}
}

func (s *Streamer) writeLoop() {
	defer close(s.done)

	failures := 0
	for enc := range s.frames {
		if _, err := s.w.Write(enc); err != nil {
			if failures%100 == 0 {
				s.log.Warn("telemetry write failed", "failures", failures+1, "error", err)
			}
			failures++
			continue
		}
		s.written.Add(1)
	}
}

// drop logs the first lost frame and every hundredth after it so a stalled
// serial line cannot flood the log.
func (s *Streamer) drop(err error) {
	n := s.dropped.Add(1)
	if n%100 == 1 {
		s.log.Warn("telemetry frame dropped", "seq", s.seq, "dropped", n, "error", err)
	}
}

// Close stops accepting frames and waits for the queued ones to be written.
func (s *Streamer) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	s.mu.Unlock()

	<-s.done
	return nil
}

// Sequence is the number the next frame will carry.
func (s *Streamer) Sequence() uint8 { return s.seq }

// Dropped counts frames lost to a full queue or an encoding error.
func (s *Streamer) Dropped() uint64 { return s.dropped.Load() }

// Written counts frames the writer accepted.
func (s *Streamer) Written() uint64 { return s.written.Load() }
