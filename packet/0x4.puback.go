package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// PUBACK 发布确认报文 (QoS 1)
//
// 参考章节 3.4 PUBACK - Publish acknowledgement
//
// Fixed header: type 0x04, flags must be 0. Variable header: the packet
// identifier of the PUBLISH being acknowledged. No payload.
type PUBACK struct {
	*FixedHeader

	// PacketID 报文标识符
	// 参考章节 2.3.1 Packet Identifier
	PacketID uint16
}

func (pkt *PUBACK) Kind() byte {
	return 0x4
}

func (pkt *PUBACK) Pack(w io.Writer) error {
	pkt.FixedHeader.RemainingLength = 2
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(i2b(pkt.PacketID))
	return err
}

func (pkt *PUBACK) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))
	return nil
}
