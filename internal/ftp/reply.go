package ftp

import (
	"fmt"
	"strings"
)

// readReply reads one control line byte by byte up to and including LF.
//
// At most limit bytes are kept. Bytes past the limit are discarded, but the
// read continues until LF so the control stream stays in sync; a truncated
// line still ends with the LF that was actually seen.
func (s *Session) readReply() (line string, truncated bool, err error) {
	var b strings.Builder
	limit := s.replyLimit

	for {
		ch, err := s.control.ReadByte()
		if err != nil {
			return b.String(), truncated, &ConnectError{Op: "read reply", Addr: s.addr(), Err: err}
		}

		switch {
		case ch == '\n':
			b.WriteByte(ch)
			return b.String(), truncated, nil
		case b.Len() < limit-1:
			b.WriteByte(ch)
		default:
			truncated = true
		}
	}
}

// parseCode returns the leading three-digit reply code, or 0 if there is none.
func parseCode(line string) int {
	if len(line) < 3 {
		return 0
	}
	code := 0
	for i := 0; i < 3; i++ {
		c := line[i]
		if c < '0' || c > '9' {
			return 0
		}
		code = code*10 + int(c-'0')
	}
	return code
}

// sendLine writes cmd plus CRLF, resubmitting on short writes.
func (s *Session) sendLine(cmd string) error {
	buf := []byte(cmd + "\r\n")
	for len(buf) > 0 {
		n, err := s.control.Write(buf)
		if err != nil {
			return &ConnectError{Op: "send " + verb(cmd), Addr: s.addr(), Err: err}
		}
		if n == 0 {
			return &ConnectError{Op: "send " + verb(cmd), Addr: s.addr(), Err: fmt.Errorf("no progress writing control line")}
		}
		buf = buf[n:]
	}
	return nil
}

// command sends one command line and returns the reply line and its code.
func (s *Session) command(cmd string) (string, int, error) {
	s.log.Debug("ftp command", "dir", "out", "cmd", redact(cmd))

	if err := s.sendLine(cmd); err != nil {
		return "", 0, err
	}
	return s.reply(verb(cmd))
}

// reply reads one reply line on behalf of command.
func (s *Session) reply(command string) (string, int, error) {
	line, truncated, err := s.readReply()
	if err != nil {
		return "", 0, err
	}
	code := parseCode(line)
	if truncated {
		s.log.Warn("ftp reply truncated", "dir", "in", "cmd", command, "limit", s.replyLimit)
	}
	s.log.Debug("ftp reply", "dir", "in", "cmd", command, "code", code, "line", strings.TrimRight(line, "\r\n"))
	return line, code, nil
}

// expect sends cmd and requires the reply code want.
func (s *Session) expect(want int, cmd string) (string, error) {
	line, code, err := s.command(cmd)
	if err != nil {
		return "", err
	}
	if code != want {
		return line, &ProtocolError{Command: verb(cmd), Response: line, Code: code}
	}
	return line, nil
}

func verb(cmd string) string {
	if i := strings.IndexByte(cmd, ' '); i >= 0 {
		return cmd[:i]
	}
	return cmd
}

func redact(cmd string) string {
	if strings.HasPrefix(cmd, "PASS ") {
		return "PASS ****"
	}
	return cmd
}
