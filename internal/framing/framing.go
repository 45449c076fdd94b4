// Package framing implements PPP-style octet stuffing (RFC 1662 sections 4-4.2).
//
// Frames end with an unescaped End byte. Any End or Esc byte in the payload is
// sent as Esc followed by the byte XOR Mask, so a receiver scanning for an
// unescaped End always finds the frame boundary.
package framing

const (
	End  byte = 0x7E
	Esc  byte = 0x7D
	Mask byte = 0x20
)

// MaxEncodedLen is the worst-case size of an encoded frame for n payload bytes.
func MaxEncodedLen(n int) int {
	return 2*n + 1
}

// Encode returns the stuffed frame for in, terminator included.
func Encode(in []byte) []byte {
	return AppendEncode(make([]byte, 0, MaxEncodedLen(len(in))), in)
}

// AppendEncode appends the stuffed frame for in to dst and returns the extended slice.
func AppendEncode(dst, in []byte) []byte {
	for _, b := range in {
		if b == End || b == Esc {
			dst = append(dst, Esc, b^Mask)
			continue
		}
		dst = append(dst, b)
	}
	return append(dst, End)
}
