package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// SUBSCRIBE 订阅请求报文
//
// 参考章节 3.8 SUBSCRIBE - Subscribe to topics
//
// Bits 3,2,1,0 of the fixed header are reserved and MUST be set to 0,0,1,0
// [MQTT-3.8.1-1]. Variable header: packet identifier. Payload: a list of
// topic filters, each followed by its requested maximum QoS byte; the
// payload MUST contain at least one pair [MQTT-3.8.3-3].
type SUBSCRIBE struct {
	*FixedHeader

	PacketID uint16

	Subscriptions []Subscription
}

// Subscription 订阅项
// 参考章节 3.8.3 SUBSCRIBE Payload
type Subscription struct {
	// TopicFilter 主题过滤器, UTF-8, may contain the + and # wildcards.
	TopicFilter string

	// MaximumQoS 最大QoS等级, bits 1-0 of the options byte; 0, 1 or 2.
	MaximumQoS uint8
}

func NewSUBSCRIBE(packetID uint16, subs ...Subscription) *SUBSCRIBE {
	return &SUBSCRIBE{
		FixedHeader:   &FixedHeader{Kind: 0x8, QoS: 1},
		PacketID:      packetID,
		Subscriptions: subs,
	}
}

func (pkt *SUBSCRIBE) Kind() byte {
	return 0x8
}

func (pkt *SUBSCRIBE) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	pkt.FixedHeader.QoS = 1 // mandated 0x02 low nibble
	buf.Write(i2b(pkt.PacketID))

	if len(pkt.Subscriptions) == 0 {
		return ErrProtocolViolationNoTopic
	}
	for _, subscription := range pkt.Subscriptions {
		if subscription.TopicFilter == "" {
			return ErrProtocolViolationNoTopic
		}
		if subscription.MaximumQoS > 2 {
			return ErrProtocolViolationQosOutOfRange
		}
		buf.Write(s2b(subscription.TopicFilter))
		buf.WriteByte(subscription.MaximumQoS)
	}

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *SUBSCRIBE) Unpack(buf *bytes.Buffer) error {
	if pkt.Dup != 0x0 || pkt.QoS != 0x1 || pkt.Retain != 0x0 {
		return ErrMalformedFlags
	}
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))

	for buf.Len() != 0 {
		subscription := Subscription{}
		subscription.TopicFilter = decodeUTF8[string](buf)
		if buf.Len() == 0 {
			return ErrMalformedPacket
		}
		subscription.MaximumQoS = buf.Next(1)[0] & 0b00000011
		if subscription.MaximumQoS > 0x02 {
			return ErrProtocolViolationQosOutOfRange
		}
		pkt.Subscriptions = append(pkt.Subscriptions, subscription)
	}
	if len(pkt.Subscriptions) == 0 {
		return ErrProtocolViolationNoTopic
	}
	return nil
}
