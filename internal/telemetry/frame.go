// Package telemetry streams captured audio as octet-stuffed frames over a
// serial line, independently of the FTP upload path.
package telemetry

import (
	"encoding/binary"
	"fmt"
)

const (
	HeaderSize = 8
	Magic      = 0x41
)

// Frame is one block from every channel, channel-major, behind an 8-byte
// little-endian header.
type Frame struct {
	Flags             uint8
	SamplesPerChannel uint16
	Channels          uint8
	Sequence          uint8
	Samples           []byte
}

// AppendBinary appends the wire form of f to dst.
func (f Frame) AppendBinary(dst []byte) ([]byte, error) {
	size := HeaderSize + len(f.Samples)
	if size > 0xFFFF {
		return dst, fmt.Errorf("telemetry: frame of %d bytes does not fit the size field", size)
	}
	dst = binary.LittleEndian.AppendUint16(dst, uint16(size))
	dst = append(dst, Magic, f.Flags)
	dst = binary.LittleEndian.AppendUint16(dst, f.SamplesPerChannel)
	dst = append(dst, f.Channels, f.Sequence)
	return append(dst, f.Samples...), nil
}

func (f Frame) MarshalBinary() ([]byte, error) {
	return f.AppendBinary(make([]byte, 0, HeaderSize+len(f.Samples)))
}
