package ftp

import (
	"fmt"
	"strings"
)

// ParsePASV extracts the data port from a 227 reply.
//
// The first parenthesized group must hold exactly six comma-separated decimal
// tokens h1,h2,h3,h4,p1,p2, each in 0..255. The host octets are validated but
// not used; the data connection goes to the control connection's host.
func ParsePASV(reply string) (int, error) {
	open := strings.IndexByte(reply, '(')
	if open < 0 {
		return 0, &ParseError{Reply: reply, Reason: "no parenthesized group"}
	}
	closing := strings.IndexByte(reply[open+1:], ')')
	if closing < 0 {
		return 0, &ParseError{Reply: reply, Reason: "unterminated parenthesized group"}
	}

	tokens := strings.Split(reply[open+1:open+1+closing], ",")
	if len(tokens) != 6 {
		return 0, &ParseError{Reply: reply, Reason: fmt.Sprintf("want 6 tokens, got %d", len(tokens))}
	}

	var v [6]int
	for i, tok := range tokens {
		n, ok := octet(strings.TrimSpace(tok))
		if !ok {
			return 0, &ParseError{Reply: reply, Reason: fmt.Sprintf("token %d %q is not a decimal in 0..255", i+1, tok)}
		}
		v[i] = n
	}

	port := (v[4] << 8) | (v[5] & 0xFF)
	if port == 0 {
		return 0, &ParseError{Reply: reply, Reason: "port is zero"}
	}
	return port, nil
}

func octet(s string) (int, bool) {
	if s == "" || len(s) > 3 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, n <= 255
}
