package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// UNSUBSCRIBE 取消订阅报文
//
// 参考章节 3.10 UNSUBSCRIBE - Unsubscribe from topics
//
// Bits 3,2,1,0 of the fixed header are reserved and MUST be set to 0,0,1,0
// [MQTT-3.10.1-1]. Variable header: packet identifier. Payload: at least one
// topic filter [MQTT-3.10.3-2].
type UNSUBSCRIBE struct {
	*FixedHeader

	PacketID uint16

	TopicFilters []string
}

func NewUNSUBSCRIBE(packetID uint16, filters ...string) *UNSUBSCRIBE {
	return &UNSUBSCRIBE{
		FixedHeader:  &FixedHeader{Kind: 0xA, QoS: 1},
		PacketID:     packetID,
		TopicFilters: filters,
	}
}

func (pkt *UNSUBSCRIBE) Kind() byte {
	return 0xA
}

func (pkt *UNSUBSCRIBE) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	pkt.FixedHeader.QoS = 1 // mandated 0x02 low nibble
	buf.Write(i2b(pkt.PacketID))

	if len(pkt.TopicFilters) == 0 {
		return ErrProtocolViolationNoTopic
	}
	for _, filter := range pkt.TopicFilters {
		if filter == "" {
			return ErrProtocolViolationNoTopic
		}
		buf.Write(s2b(filter))
	}

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *UNSUBSCRIBE) Unpack(buf *bytes.Buffer) error {
	if pkt.Dup != 0x0 || pkt.QoS != 0x1 || pkt.Retain != 0x0 {
		return ErrMalformedFlags
	}
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))

	for buf.Len() != 0 {
		pkt.TopicFilters = append(pkt.TopicFilters, decodeUTF8[string](buf))
	}
	if len(pkt.TopicFilters) == 0 {
		return ErrProtocolViolationNoTopic
	}
	return nil
}
