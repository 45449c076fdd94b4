// Package ftp is a minimal store-only FTP client.
//
// A Session drives two transports: the control channel and a passive-mode
// data channel used for exactly one STOR at a time. Replies are read one line
// at a time and only the leading three-digit code is interpreted.
package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/retry"
	"github.com/raoulx24/recpush/internal/transport"
)

// State is the lifecycle of a control connection.
type State int

const (
	Disconnected State = iota
	Connected
	Authenticated
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Authenticated:
		return "authenticated"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Mode selects the direction of a transfer opened with Open.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

const (
	defaultReplyLimit  = 256
	defaultBannerLimit = 128
)

// Session is one control-connection lifetime. It is not safe for concurrent use.
type Session struct {
	control transport.Transport
	data    transport.Transport

	state    State
	host     string
	port     int
	banner   string
	fileOpen bool

	log         logging.Logger
	dataRetry   retry.Policy
	replyLimit  int
	bannerLimit int
	pasvLo      int
	pasvHi      int
}

// NewSession returns a disconnected session over the given control and data transports.
func NewSession(control, data transport.Transport, opts ...Option) *Session {
	s := &Session{
		control:     control,
		data:        data,
		log:         logging.Nop(),
		dataRetry:   retry.Policy{Attempts: 1},
		replyLimit:  defaultReplyLimit,
		bannerLimit: defaultBannerLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State   { return s.state }
func (s *Session) Banner() string { return s.banner }
func (s *Session) FileOpen() bool { return s.fileOpen }

func (s *Session) addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Connect tears down any previous session, dials the control channel and
// requires a 220 banner.
func (s *Session) Connect(ctx context.Context, host string, port int) error {
	s.Disconnect()

	s.host, s.port = host, port

	if err := s.control.Connect(ctx, host, port); err != nil {
		return &ConnectError{Op: "connect", Addr: s.addr(), Err: err}
	}

	limit := s.replyLimit
	s.replyLimit = s.bannerLimit
	line, code, err := s.reply("CONNECT")
	s.replyLimit = limit
	if err != nil {
		_ = s.control.Close()
		return err
	}

	if code != 220 {
		_ = s.control.Close()
		return &ProtocolError{Command: "CONNECT", Response: line, Code: code}
	}

	s.banner = line
	s.state = Connected
	s.log.Info("ftp connected", "addr", s.addr(), "code", code)
	return nil
}

// Auth logs in and switches to binary mode. It is a no-op once authenticated.
// On failure nothing is kept: a retry must start again from USER.
func (s *Session) Auth(user, password string) error {
	if s.state == Authenticated {
		return nil
	}
	if s.state != Connected {
		return ErrNotConnected
	}

	if _, err := s.expect(331, "USER "+user); err != nil {
		return err
	}
	if _, err := s.expect(230, "PASS "+password); err != nil {
		return err
	}
	if _, err := s.expect(200, "TYPE I"); err != nil {
		return err
	}

	s.state = Authenticated
	s.log.Info("ftp authenticated", "addr", s.addr(), "user", user)
	return nil
}

// Open starts a passive-mode STOR of path. Only ModeWrite is supported and at
// most one transfer may be open at a time.
func (s *Session) Open(ctx context.Context, path string, mode Mode) error {
	if mode != ModeWrite {
		return ErrReadUnsupported
	}
	if s.fileOpen {
		return ErrTransferOpen
	}
	if s.state == Disconnected {
		return ErrNotConnected
	}

	line, err := s.expect(227, "PASV")
	if err != nil {
		return err
	}

	port, err := ParsePASV(line)
	if err != nil {
		return err
	}
	if s.pasvLo != 0 || s.pasvHi != 0 {
		if port < s.pasvLo || port > s.pasvHi {
			return &ParseError{Reply: line, Reason: fmt.Sprintf("port %d outside [%d,%d]", port, s.pasvLo, s.pasvHi)}
		}
	}

	if err := s.connectData(ctx, port); err != nil {
		return err
	}

	line, code, err := s.command("STOR " + path)
	if err != nil {
		_ = s.data.Close()
		return err
	}
	if code != 150 {
		_ = s.data.Close()
		return &ProtocolError{Command: "STOR", Response: line, Code: code}
	}

	s.fileOpen = true
	s.log.Debug("ftp transfer open", "dir", "out", "path", path, "port", port)
	return nil
}

func (s *Session) connectData(ctx context.Context, port int) error {
	dataAddr := net.JoinHostPort(s.host, strconv.Itoa(port))
	tries := 0

	err := retry.Do(ctx, "data connect", s.dataRetry, func(ctx context.Context, attempt int) error {
		tries = attempt
		err := s.data.Connect(ctx, s.host, port)
		if err != nil {
			s.log.Debug("ftp data connect failed", "addr", dataAddr, "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return &ConnectError{Op: "data connect", Addr: dataAddr, Attempts: tries, Err: err}
	}
	return nil
}

// Write sends all of p over the open transfer, resubmitting after short writes.
func (s *Session) Write(p []byte) (int, error) {
	if !s.fileOpen {
		return 0, ErrNoTransfer
	}

	written := 0
	for written < len(p) {
		n, err := s.data.Write(p[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Close ends the open transfer and requires a 2xx completion reply.
// Without an open transfer it does nothing.
func (s *Session) Close() error {
	if !s.fileOpen && !s.data.Connected() {
		return nil
	}

	_ = s.data.Close()
	s.fileOpen = false

	line, code, err := s.reply("DATA")
	if err != nil {
		return err
	}
	if code < 200 || code >= 300 {
		return &ProtocolError{Command: "DATA", Response: line, Code: code}
	}
	return nil
}

// Mkdir creates a remote directory (MKD, 257).
func (s *Session) Mkdir(path string) error {
	if s.state == Disconnected {
		return ErrNotConnected
	}
	_, err := s.expect(257, "MKD "+path)
	return err
}

// Chdir changes the remote working directory (CWD, 250).
func (s *Session) Chdir(path string) error {
	if s.state == Disconnected {
		return ErrNotConnected
	}
	_, err := s.expect(250, "CWD "+path)
	return err
}

// Disconnect sends QUIT and closes both channels. It is safe to call repeatedly.
func (s *Session) Disconnect() {
	if s.control.Connected() {
		if err := s.sendLine("QUIT"); err != nil && !errors.Is(err, transport.ErrNotConnected) {
			s.log.Debug("ftp quit failed", "addr", s.addr(), "error", err)
		}
		_ = s.control.Close()
		s.log.Info("ftp disconnected", "addr", s.addr())
	}

	if s.data.Connected() {
		_ = s.data.Close()
	}

	s.fileOpen = false
	s.state = Disconnected
}
