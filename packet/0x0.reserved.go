package packet

import (
	"bytes"
	"io"
)

// RESERVED stands in for the forbidden packet types 0x0 and 0xF so that
// Unpack can hand back the parsed fixed header alongside the error.
type RESERVED struct {
	*FixedHeader
}

func (pkt *RESERVED) Kind() byte {
	return 0x0
}

func (pkt *RESERVED) Pack(io.Writer) error {
	return ErrMalformedPacket
}

func (pkt *RESERVED) Unpack(*bytes.Buffer) error {
	return ErrMalformedPacket
}
