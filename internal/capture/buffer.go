package capture

import "io"

// ChannelBuffer accumulates blocks and writes them out one window at a time.
// offset is always below len(window).
type ChannelBuffer struct {
	window []byte
	offset int
	blocks int
}

func NewChannelBuffer(size int) *ChannelBuffer {
	return &ChannelBuffer{window: make([]byte, size)}
}

func (b *ChannelBuffer) Offset() int { return b.offset }
func (b *ChannelBuffer) Blocks() int { return b.blocks }

// Reset drops buffered bytes and the block count.
func (b *ChannelBuffer) Reset() {
	b.offset = 0
	b.blocks = 0
}

// Append copies block into the window, writing each full window to w.
func (b *ChannelBuffer) Append(block []byte, w io.Writer) error {
	b.blocks++
	for len(block) > 0 {
		n := copy(b.window[b.offset:], block)
		b.offset += n
		block = block[n:]

		if b.offset == len(b.window) {
			b.offset = 0
			if _, err := w.Write(b.window); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes the partial tail, if any.
func (b *ChannelBuffer) Flush(w io.Writer) error {
	if b.offset == 0 {
		return nil
	}
	n := b.offset
	b.offset = 0
	_, err := w.Write(b.window[:n])
	return err
}
