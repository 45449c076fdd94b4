package ftp

import (
	"errors"
	"fmt"
)

var (
	// ErrReadUnsupported is returned by Open for ModeRead; no network I/O happens.
	ErrReadUnsupported = errors.New("ftp: read mode is not supported")

	// ErrTransferOpen is returned by Open while another transfer is still open.
	ErrTransferOpen = errors.New("ftp: a transfer is already open")

	// ErrNoTransfer is returned by Write when no transfer is open.
	ErrNoTransfer = errors.New("ftp: no transfer open")

	// ErrNotConnected is returned by commands issued without a control connection.
	ErrNotConnected = errors.New("ftp: not connected")
)

// ProtocolError is an unexpected reply code from the server.
type ProtocolError struct {
	// Command is the FTP command that was sent (e.g. "STOR")
	Command string

	// Response is the raw reply line, terminator included
	Response string

	// Code is the parsed reply code; 0 when the reply was not numeric
	Code int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftp: %s failed: %q (code %d)", e.Command, e.Response, e.Code)
}

// ConnectError is a transport-level failure: a refused dial, a dead control
// stream, or an exhausted data-channel retry budget.
type ConnectError struct {
	Op       string
	Addr     string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("ftp: %s %s failed after %d attempts: %v", e.Op, e.Addr, e.Attempts, e.Err)
	}
	return fmt.Sprintf("ftp: %s %s failed: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ParseError is a PASV reply that does not carry a usable port.
type ParseError struct {
	Reply  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ftp: malformed PASV reply %q: %s", e.Reply, e.Reason)
}

// Code extracts the reply code carried by err, or 0.
func Code(err error) int {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 0
}
