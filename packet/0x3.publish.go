package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// PUBLISH 发布消息报文
//
// 参考章节 3.3 PUBLISH - Publish message
//
// Fixed header: type 0x03 with DUP (bit 3), QoS (bits 2-1) and RETAIN (bit 0).
// Variable header: topic name, then the packet identifier when QoS > 0.
// Payload: the application message; a zero length payload is valid.
//
// The receiver of a PUBLISH responds according to the QoS [MQTT-3.3.4-1]:
// QoS 0 none, QoS 1 PUBACK, QoS 2 PUBREC.
type PUBLISH struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	// PacketID 报文标识符
	// 参考章节 2.3.1 Packet Identifier
	// Present iff QoS > 0; a QoS 0 PUBLISH cannot contain a packet
	// identifier [MQTT-2.3.1-5].
	PacketID uint16 `json:"PacketID,omitempty"`

	Message *Message `json:"Message,omitempty"`
}

func (pkt *PUBLISH) Kind() byte {
	return 0x3
}

func (pkt *PUBLISH) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if pkt.FixedHeader == nil {
		return fmt.Errorf("FixedHeader is nil")
	}
	// The PUBLISH packet must not have both QoS bits set to 1 [MQTT-3.3.1-4].
	if pkt.FixedHeader.QoS == 3 {
		return ErrProtocolViolationQosOutOfRange
	}
	if pkt.Message.TopicName == "" {
		return ErrProtocolViolationNoTopic
	}
	// The topic name in a PUBLISH packet must not contain wildcards
	// [MQTT-3.3.2-2].
	if strings.ContainsAny(pkt.Message.TopicName, "+#") {
		return ErrProtocolViolationNoTopic
	}

	buf.Write(s2b(pkt.Message.TopicName))
	if pkt.FixedHeader.QoS > 0 {
		if pkt.PacketID == 0 {
			return ErrProtocolViolationNoPacketID
		}
		buf.Write(i2b(pkt.PacketID))
	}
	buf.Write(pkt.Message.Content)

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *PUBLISH) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	topicLength := int(binary.BigEndian.Uint16(buf.Next(2)))
	if topicLength == 0 || topicLength > buf.Len() {
		return ErrProtocolViolationNoTopic
	}

	pkt.Message = &Message{TopicName: string(buf.Next(topicLength))}

	if pkt.FixedHeader.QoS > 0 {
		if buf.Len() < 2 {
			return ErrMalformedPacket
		}
		pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))
		if pkt.PacketID == 0 {
			return ErrProtocolViolationNoPacketID
		}
	}

	// Deep copy: buf aliases a pooled scratch buffer that is reused once
	// Unpack returns.
	pkt.Message.Content = append([]byte{}, buf.Bytes()...)
	return nil
}

// Message 发布消息内容
// 参考章节 3.3.2.1 Topic Name, 3.3.3 PUBLISH Payload
type Message struct {
	// TopicName identifies the information channel to which payload data
	// is published. UTF-8, no wildcards.
	TopicName string

	// Content is the application message. Zero length is legal.
	Content []byte
}

func (m *Message) String() string {
	return fmt.Sprintf("%s # %s", m.TopicName, m.Content)
}
