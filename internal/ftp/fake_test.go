package ftp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
)

// fakeTransport scripts one side of a conversation. Every complete line
// written to it releases the next queued reply into the read buffer.
type fakeTransport struct {
	banner     string
	replies    []string
	connectErr error
	failDials  int // number of leading Connect calls that fail
	maxWrite   int // bytes accepted per Write, 0 for all
	onClose    func()

	connected bool
	dials     int
	closes    int
	host      string
	port      int
	in        []byte
	pending   []byte
	sent      []string
	payload   bytes.Buffer
}

func (f *fakeTransport) Connect(_ context.Context, host string, port int) error {
	f.dials++
	f.host, f.port = host, port
	if f.connectErr != nil {
		return f.connectErr
	}
	if f.dials <= f.failDials {
		return errors.New("connection refused")
	}
	f.connected = true
	f.in = append(f.in, f.banner...)
	return nil
}

func (f *fakeTransport) Connected() bool { return f.connected }
func (f *fakeTransport) Available() bool { return len(f.in) > 0 }

func (f *fakeTransport) ReadByte() (byte, error) {
	if len(f.in) == 0 {
		return 0, io.EOF
	}
	b := f.in[0]
	f.in = f.in[1:]
	return b, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if !f.connected {
		return 0, errors.New("write on closed transport")
	}
	n := len(p)
	if f.maxWrite > 0 && n > f.maxWrite {
		n = f.maxWrite
	}
	f.payload.Write(p[:n])
	f.pending = append(f.pending, p[:n]...)
	for {
		i := bytes.Index(f.pending, []byte("\r\n"))
		if i < 0 {
			break
		}
		f.sent = append(f.sent, string(f.pending[:i]))
		f.pending = f.pending[i+2:]
		f.release()
	}
	return n, nil
}

// release queues the next scripted reply for reading.
func (f *fakeTransport) release() {
	if len(f.replies) > 0 {
		f.in = append(f.in, f.replies[0]...)
		f.replies = f.replies[1:]
	}
}

func (f *fakeTransport) Close() error {
	if f.connected {
		f.closes++
		if f.onClose != nil {
			f.onClose()
		}
	}
	f.connected = false
	return nil
}

func (f *fakeTransport) verbs() []string {
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, verb(s))
	}
	return out
}

func (f *fakeTransport) quits() int {
	n := 0
	for _, s := range f.sent {
		if strings.EqualFold(s, "QUIT") {
			n++
		}
	}
	return n
}

const pasvOK = "227 Entering Passive Mode (192,168,0,5,217,101)\r\n"

// loginScript is the reply sequence for USER, PASS, TYPE I.
func loginScript() []string {
	return []string{"331 Password required\r\n", "230 Logged in\r\n", "200 Type set to I\r\n"}
}

func newFakeSession(replies ...string) (*Session, *fakeTransport, *fakeTransport) {
	control := &fakeTransport{banner: "220 Welcome\r\n", replies: replies}
	data := &fakeTransport{onClose: control.release}
	return NewSession(control, data), control, data
}
