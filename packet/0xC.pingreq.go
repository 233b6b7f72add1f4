package packet

import (
	"bytes"
	"io"
)

// PINGREQ 心跳请求报文
//
// 参考章节 3.12 PINGREQ - PING request
//
// Sent by the Client to tell the Server it is alive when no other packets
// flow inside the keep alive interval. No variable header, no payload;
// the whole packet is the two bytes 0xC0 0x00.
type PINGREQ struct {
	*FixedHeader `json:"FixedHeader,omitempty"`
}

func (pkt *PINGREQ) Kind() byte {
	return 0xC
}

func (pkt *PINGREQ) Pack(w io.Writer) error {
	pkt.FixedHeader.RemainingLength = 0
	return pkt.FixedHeader.Pack(w)
}

func (pkt *PINGREQ) Unpack(_ *bytes.Buffer) error {
	return nil
}
