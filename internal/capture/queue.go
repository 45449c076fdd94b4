// Package capture drains per-channel sample queues into recording slot files.
package capture

// Queue is one channel's sample source. Blocks are fixed size and owned by
// the queue: a slice from ReadBuffer is valid only until FreeBuffer.
type Queue interface {
	Begin() error
	// Available is the number of complete blocks ready to read.
	Available() int
	ReadBuffer() []byte
	FreeBuffer()
	End()
	Clear()
}

// Tap receives every block the recorder drains, before the block is freed.
// Implementations must copy anything they keep.
type Tap interface {
	Offer(ch int, block []byte)
}
