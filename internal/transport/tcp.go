package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

// ErrNotConnected is returned by I/O on a closed TCP transport.
var ErrNotConnected = errors.New("transport: not connected")

// TCP is a Transport over a net.Conn with per-operation deadlines.
type TCP struct {
	dialer  *net.Dialer
	timeout time.Duration

	conn   net.Conn
	reader *bufio.Reader
}

// NewTCP returns an unconnected transport. A zero timeout disables deadlines.
func NewTCP(timeout time.Duration) *TCP {
	return &TCP{
		dialer:  &net.Dialer{Timeout: timeout},
		timeout: timeout,
	}
}

func (t *TCP) Connect(ctx context.Context, host string, port int) error {
	if t.conn != nil {
		_ = t.Close()
	}

	conn, err := t.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}

	t.conn = conn
	t.reader = bufio.NewReader(conn)
	return nil
}

func (t *TCP) Connected() bool {
	return t.conn != nil
}

func (t *TCP) Available() bool {
	return t.reader != nil && t.reader.Buffered() > 0
}

func (t *TCP) ReadByte() (byte, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}
	if t.timeout > 0 && t.reader.Buffered() == 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
			return 0, err
		}
	}
	return t.reader.ReadByte()
}

func (t *TCP) Write(p []byte) (int, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}
	if t.timeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
			return 0, err
		}
	}
	return t.conn.Write(p)
}

func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	return err
}
