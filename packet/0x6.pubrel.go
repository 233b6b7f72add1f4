package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// PUBREL 发布释放报文 (QoS 2, assured delivery part 2)
//
// 参考章节 3.6 PUBREL - Publish release
//
// Response to a PUBREC. Bits 3,2,1,0 of the fixed header are reserved and
// MUST be set to 0,0,1,0; any other value is malformed [MQTT-3.6.1-1],
// so the first byte is always 0x62.
type PUBREL struct {
	*FixedHeader

	PacketID uint16
}

func NewPUBREL(packetID uint16) *PUBREL {
	return &PUBREL{
		FixedHeader: &FixedHeader{Kind: 0x6, QoS: 1},
		PacketID:    packetID,
	}
}

func (pkt *PUBREL) Kind() byte {
	return 0x6
}

func (pkt *PUBREL) Pack(w io.Writer) error {
	pkt.FixedHeader.QoS = 1 // mandated 0x02 low nibble
	pkt.FixedHeader.RemainingLength = 2
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(i2b(pkt.PacketID))
	return err
}

func (pkt *PUBREL) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))
	return nil
}
