// Package transport defines the byte-stream capability the FTP engine drives
// and a TCP implementation of it.
package transport

import "context"

// Transport is one bidirectional byte stream (an FTP control or data channel).
type Transport interface {
	Connect(ctx context.Context, host string, port int) error
	Connected() bool
	// Available reports whether a byte can be read without blocking.
	Available() bool
	// ReadByte blocks until a byte arrives or the transport's read timeout elapses.
	ReadByte() (byte, error)
	// Write may accept fewer bytes than given; callers resubmit the remainder.
	Write(p []byte) (int, error)
	Close() error
}
