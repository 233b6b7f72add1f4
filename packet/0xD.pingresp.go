package packet

import (
	"bytes"
	"io"
)

// PINGRESP 心跳响应报文
//
// 参考章节 3.13 PINGRESP - PING response
//
// The Server MUST send a PINGRESP in response to a PINGREQ [MQTT-3.12.4-1].
// The whole packet is the two bytes 0xD0 0x00.
type PINGRESP struct {
	*FixedHeader `json:"FixedHeader,omitempty"`
}

func (pkt *PINGRESP) Kind() byte {
	return 0xD
}

func (pkt *PINGRESP) Pack(w io.Writer) error {
	pkt.FixedHeader.RemainingLength = 0
	return pkt.FixedHeader.Pack(w)
}

func (pkt *PINGRESP) Unpack(_ *bytes.Buffer) error {
	return nil
}
