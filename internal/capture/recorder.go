package capture

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/slot"
	"github.com/raoulx24/recpush/internal/storage"
	"github.com/raoulx24/recpush/internal/watchdog"
)

// ChannelState is where one channel is in a recording.
type ChannelState int

const (
	Idle ChannelState = iota
	Capturing
	Flushing
)

func (s ChannelState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Flushing:
		return "flushing"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// ErrBusy is returned by Start while a recording is in progress.
var ErrBusy = errors.New("capture: recording already in progress")

// batchBlocks is how many blocks a channel needs before Drain takes any.
const batchBlocks = 2

type channel struct {
	queue Queue
	buf   *ChannelBuffer
	file  storage.File
	path  string
	state ChannelState
	err   error
}

// Recorder moves blocks from one queue per channel into that channel's file.
type Recorder struct {
	fs       storage.FS
	channels []*channel
	tap      Tap
	feeder   watchdog.Feeder
	log      logging.Logger
	current  slot.Slot
}

type Option func(*Recorder)

func WithTap(t Tap) Option {
	return func(r *Recorder) { r.tap = t }
}

func WithFeeder(f watchdog.Feeder) Option {
	return func(r *Recorder) { r.feeder = f }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

// NewRecorder returns an idle recorder with one channel per queue, each
// writing flushSize bytes at a time.
func NewRecorder(fs storage.FS, queues []Queue, flushSize int, opts ...Option) *Recorder {
	r := &Recorder{
		fs:     fs,
		feeder: watchdog.Nop{},
		log:    logging.Nop(),
	}
	for _, q := range queues {
		r.channels = append(r.channels, &channel{queue: q, buf: NewChannelBuffer(flushSize)})
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) Channels() int { return len(r.channels) }

func (r *Recorder) State(ch int) ChannelState { return r.channels[ch].state }

// Start opens every channel file of s, then begins every queue back to back
// so the channels' first samples line up.
func (r *Recorder) Start(s slot.Slot) error {
	if len(s.Files) != len(r.channels) {
		return fmt.Errorf("capture: slot %d has %d files for %d channels", s.ID, len(s.Files), len(r.channels))
	}
	for _, c := range r.channels {
		if c.state != Idle {
			return ErrBusy
		}
	}

	for i, c := range r.channels {
		f, err := r.fs.Open(s.Files[i], storage.ModeWrite)
		if err != nil {
			r.closeFiles()
			return err
		}
		c.file = f
		c.path = s.Files[i]
		c.err = nil
		c.buf.Reset()
	}

	for i, c := range r.channels {
		if err := c.queue.Begin(); err != nil {
			for _, started := range r.channels[:i] {
				started.queue.End()
				started.queue.Clear()
			}
			r.closeFiles()
			return fmt.Errorf("capture: begin channel %d: %w", i, err)
		}
	}

	for _, c := range r.channels {
		c.state = Capturing
	}
	r.current = s
	r.log.Info("capture started", "slot", s.ID, "path", s.Dir, "channels", len(r.channels))
	return nil
}

func (r *Recorder) closeFiles() {
	for _, c := range r.channels {
		if c.file != nil {
			_ = c.file.Close()
			c.file = nil
		}
	}
}

// Drain moves two blocks from every channel that has them and returns the
// number of blocks moved.
//
// A channel with fewer than two blocks is skipped for this pass instead of
// waited on, so one quiet channel cannot stall the others; the price is that
// channels may drift by a batch relative to each other.
func (r *Recorder) Drain() int {
	moved := 0
	for ch, c := range r.channels {
		if c.state != Capturing || c.queue.Available() < batchBlocks {
			continue
		}
		for i := 0; i < batchBlocks; i++ {
			r.take(ch, c)
			moved++
		}
	}
	return moved
}

// take moves the head block of c into its buffer. After a write error the
// channel keeps freeing blocks so its queue does not back up.
func (r *Recorder) take(ch int, c *channel) {
	block := c.queue.ReadBuffer()
	if r.tap != nil {
		r.tap.Offer(ch, block)
	}
	if c.err == nil {
		if err := c.buf.Append(block, c.file); err != nil {
			c.err = &storage.IOError{Op: "write", Path: c.path, Err: err}
			r.log.Error("capture write failed", "channel", ch, "path", c.path, "error", err)
		}
	}
	c.queue.FreeBuffer()
}

// Stop ends every queue first, then drains what is left, flushes the partial
// tail and closes each file. It returns the write errors seen during the recording.
func (r *Recorder) Stop() error {
	r.feeder.Feed()

	for _, c := range r.channels {
		if c.state == Capturing {
			c.state = Flushing
			c.queue.End()
		}
	}

	var errs []error
	for ch, c := range r.channels {
		if c.state != Flushing {
			continue
		}
		for c.queue.Available() > 0 {
			r.take(ch, c)
		}
		if c.err == nil {
			if err := c.buf.Flush(c.file); err != nil {
				c.err = &storage.IOError{Op: "write", Path: c.path, Err: err}
			}
		}
		if err := c.file.Close(); err != nil && c.err == nil {
			c.err = &storage.IOError{Op: "close", Path: c.path, Err: err}
		}
		c.file = nil
		c.queue.Clear()
		c.state = Idle

		if c.err != nil {
			errs = append(errs, c.err)
		}
		r.log.Debug("channel stopped", "channel", ch, "path", c.path, "blocks", c.buf.Blocks())
	}

	r.log.Info("capture stopped", "slot", r.current.ID, "path", r.current.Dir)
	return errors.Join(errs...)
}
