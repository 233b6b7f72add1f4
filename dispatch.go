package lwmqtt

import (
	"encoding/binary"
	"log"
)

// dispatchPacket interprets one fully assembled control packet. body holds
// RemainingLength bytes and may alias the transport's receive memory (zero
// copy path) or the scratch buffer; either way it is only valid for the
// duration of the call, which is why inbound delivery is edge triggered.
func (c *Client) dispatchPacket(body []byte) {
	stat.PacketReceived.Inc()

	kind := c.parser.hdr >> 4
	debugf("mqtt recv: kind=%s, rem_len=%d", kindName(kind), len(body))

	switch kind {
	case CONNACK:
		// 参考章节 3.2.2.2 Connect Return code; byte 2 of the variable
		// header is the return code.
		if c.state != stateConnecting {
			log.Printf("mqtt protocol violation: CONNACK in state=%d", c.state)
			return
		}
		if len(body) < 2 {
			log.Printf("mqtt protocol violation: short CONNACK, len=%d", len(body))
			return
		}
		status := ConnStatus(body[1])
		if status == ConnStatusAccepted {
			c.setState(stateConnected)
		}
		evt := Event{Type: EventConnect}
		evt.Connect.Status = status
		c.emit(evt)

	case PUBLISH:
		c.dispatchPublish(body)

	case PUBREC:
		// Server acknowledged our QoS 2 publish; release it. The request
		// flips to the released substate so a duplicate PUBREC resends
		// PUBREL without retiring anything.
		if len(body) < 2 {
			return
		}
		packetID := binary.BigEndian.Uint16(body)
		if r := c.pendingRequest(int(packetID)); r != nil {
			r.status |= statusReleased
		} else {
			log.Printf("mqtt protocol violation: PUBREC without request, packet_id=%d", packetID)
		}
		c.writeAckPacket(PUBREL, packetID)

	case PUBREL:
		// Third leg of an inbound QoS 2 exchange.
		if len(body) < 2 {
			return
		}
		c.writeAckPacket(PUBCOMP, binary.BigEndian.Uint16(body))

	case PUBACK, PUBCOMP:
		if len(body) < 2 {
			return
		}
		packetID := binary.BigEndian.Uint16(body)
		r := c.pendingRequest(int(packetID))
		if r == nil {
			log.Printf("mqtt protocol violation: %s without request, packet_id=%d", kindName(kind), packetID)
			return
		}
		evt := Event{Type: EventPublish}
		evt.Publish.Arg = r.arg
		c.emit(evt)
		c.deleteRequest(r)

	case SUBACK, UNSUBACK:
		if len(body) < 2 {
			return
		}
		packetID := binary.BigEndian.Uint16(body)
		r := c.pendingRequest(int(packetID))
		if r == nil {
			log.Printf("mqtt protocol violation: %s without request, packet_id=%d", kindName(kind), packetID)
			return
		}
		evt := Event{Type: r.kind()}
		evt.Sub.Topic = r.topic
		evt.Sub.Arg = r.arg
		// A SUBACK return code below 0x03 grants a QoS; anything else is a
		// failure. UNSUBACK carries no payload and always succeeds.
		if kind == SUBACK && (len(body) < 3 || body[2] >= 3) {
			evt.Sub.Err = ErrRequestRefused
		}
		c.emit(evt)
		c.deleteRequest(r)

	case PINGRESP:
		debugf("mqtt recv: PINGRESP")
		c.emit(Event{Type: EventKeepAlive})

	default:
		// CONNECT, SUBSCRIBE, UNSUBSCRIBE, PINGREQ and everything else never
		// legally reach a client; ignore.
	}
}

// dispatchPublish unpacks an inbound PUBLISH straight out of body and
// acknowledges it according to its QoS: none for 0, PUBACK for 1, PUBREC
// for 2 [MQTT-3.3.4-1]. The message itself is not stored.
func (c *Client) dispatchPublish(body []byte) {
	qos := QoS(c.parser.hdr >> 1 & 0x3)
	if qos > QoS2 {
		log.Printf("mqtt protocol violation: PUBLISH qos=3")
		return
	}
	if len(body) < 2 {
		log.Printf("mqtt protocol violation: short PUBLISH, len=%d", len(body))
		return
	}
	topicLen := int(binary.BigEndian.Uint16(body))
	rest := body[2:]
	if topicLen == 0 || topicLen > len(rest) {
		log.Printf("mqtt protocol violation: PUBLISH topic_len=%d, rem=%d", topicLen, len(rest))
		return
	}
	topic := rest[:topicLen]
	rest = rest[topicLen:]

	var packetID uint16
	if qos > QoS0 {
		if len(rest) < 2 {
			log.Printf("mqtt protocol violation: PUBLISH qos=%d without packet id", qos)
			return
		}
		packetID = binary.BigEndian.Uint16(rest)
		rest = rest[2:]
	}

	switch qos {
	case QoS1:
		c.writeAckPacket(PUBACK, packetID)
	case QoS2:
		c.writeAckPacket(PUBREC, packetID)
	}

	evt := Event{Type: EventPublishRecv}
	evt.Recv.Topic = topic
	evt.Recv.Payload = rest
	evt.Recv.Dup = c.parser.hdr&0x08 != 0
	evt.Recv.QoS = qos
	evt.Recv.Retain = c.parser.hdr&0x01 != 0
	c.emit(evt)
}

// writeAckPacket shares one writer for PUBACK/PUBREC/PUBREL/PUBCOMP: header
// byte, one length byte and the packet identifier. When the TX buffer cannot
// take the four bytes the ack is silently dropped; the peer retransmits.
func (c *Client) writeAckPacket(kind byte, packetID uint16) {
	b := [4]byte{kind << 4, 0x02, byte(packetID >> 8), byte(packetID)}
	if kind == PUBREL { // mandated 0x02 low nibble
		b[0] |= 0x02
	}
	if !c.enqueue(b[:]) {
		debugf("mqtt ack dropped, no tx space: kind=%s, packet_id=%d", kindName(kind), packetID)
		return
	}
	c.flush()
}

func kindName(kind byte) string {
	names := [...]string{
		"RESERVED", "CONNECT", "CONNACK", "PUBLISH", "PUBACK", "PUBREC",
		"PUBREL", "PUBCOMP", "SUBSCRIBE", "SUBACK", "UNSUBSCRIBE", "UNSUBACK",
		"PINGREQ", "PINGRESP", "DISCONNECT", "RESERVED",
	}
	return names[kind&0xF]
}
