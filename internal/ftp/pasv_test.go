package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePASV(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		wantPort int
		wantErr  bool
	}{
		{name: "standard", input: "227 Entering Passive Mode (192,168,0,5,217,101)", wantPort: 55653},
		{name: "with terminator", input: "227 Entering Passive Mode (10,0,0,1,39,16).\r\n", wantPort: 10000},
		{name: "spaces around tokens", input: "227 PASV ( 127, 0, 0, 1, 4, 1 )", wantPort: 1025},
		{name: "second group ignored", input: "227 ok (1,2,3,4,0,21) (9,9,9,9,9,9)", wantPort: 21},
		{name: "missing token", input: "227 Entering Passive Mode (192,168,0,5,217)", wantErr: true},
		{name: "extra token", input: "227 Entering Passive Mode (192,168,0,5,217,101,1)", wantErr: true},
		{name: "non-numeric token", input: "227 Entering Passive Mode (192,168,0,5,2x7,101)", wantErr: true},
		{name: "empty token", input: "227 Entering Passive Mode (192,168,,5,217,101)", wantErr: true},
		{name: "octet out of range", input: "227 Entering Passive Mode (192,168,0,5,256,101)", wantErr: true},
		{name: "negative", input: "227 Entering Passive Mode (192,168,0,5,-1,101)", wantErr: true},
		{name: "no parentheses", input: "227 Entering Passive Mode 192,168,0,5,217,101", wantErr: true},
		{name: "unterminated group", input: "227 Entering Passive Mode (192,168,0,5,217,101", wantErr: true},
		{name: "zero port", input: "227 Entering Passive Mode (192,168,0,5,0,0)", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, err := ParsePASV(tt.input)
			if tt.wantErr {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.Zero(t, port, "no partially computed port")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestParseCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want int
	}{
		{"220 Welcome\r\n", 220},
		{"150 Opening\n", 150},
		{"226-multi\n", 226},
		{"22", 0},
		{"abc\n", 0},
		{"2x0 nope\n", 0},
		{"\n", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCode(tt.line), "line %q", tt.line)
	}
}
