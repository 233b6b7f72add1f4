package packet

import (
	"bytes"
	"io"
)

// DISCONNECT 断开连接报文
//
// 参考章节 3.14 DISCONNECT - Disconnect notification
//
// Final packet sent by the Client; tells the Server the Client is
// disconnecting cleanly so the will message is discarded [MQTT-3.14.4-3].
// Fixed header flags must be 0, no variable header, no payload.
type DISCONNECT struct {
	*FixedHeader `json:"FixedHeader,omitempty"`
}

func (pkt *DISCONNECT) Kind() byte {
	return 0xE
}

func (pkt *DISCONNECT) Pack(w io.Writer) error {
	pkt.FixedHeader.RemainingLength = 0
	return pkt.FixedHeader.Pack(w)
}

func (pkt *DISCONNECT) Unpack(_ *bytes.Buffer) error {
	return nil
}
