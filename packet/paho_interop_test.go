package packet

import (
	"bytes"
	"testing"

	pahopackets "github.com/eclipse/paho.mqtt.golang/packets"
)

// Cross-check the encoder against the paho packet reader: whatever this codec
// emits, the reference implementation must parse back to the same fields.

func TestPahoInterop_CONNECT(t *testing.T) {
	pkt := &CONNECT{
		FixedHeader:  &FixedHeader{Kind: 0x1},
		ClientID:     "interop",
		Username:     "root",
		Password:     "admin",
		WillTopic:    "will",
		WillPayload:  []byte("bye"),
		WillQoS:      1,
		CleanSession: true,
		KeepAlive:    60,
	}

	var buf bytes.Buffer
	if err := pkt.Pack(&buf); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	decoded, err := pahopackets.ReadPacket(&buf)
	if err != nil {
		t.Fatalf("paho ReadPacket() failed: %v", err)
	}
	cp, ok := decoded.(*pahopackets.ConnectPacket)
	if !ok {
		t.Fatalf("paho decoded %T, want *ConnectPacket", decoded)
	}

	if cp.ProtocolName != "MQTT" || cp.ProtocolVersion != 4 {
		t.Errorf("protocol = %s/%d, want MQTT/4", cp.ProtocolName, cp.ProtocolVersion)
	}
	if cp.ClientIdentifier != "interop" {
		t.Errorf("client id = %q, want interop", cp.ClientIdentifier)
	}
	if !cp.CleanSession {
		t.Error("clean session flag lost")
	}
	if !cp.WillFlag || cp.WillTopic != "will" || !bytes.Equal(cp.WillMessage, []byte("bye")) || cp.WillQos != 1 {
		t.Errorf("will = %v/%q/%q/qos%d", cp.WillFlag, cp.WillTopic, cp.WillMessage, cp.WillQos)
	}
	if cp.Username != "root" || !bytes.Equal(cp.Password, []byte("admin")) {
		t.Errorf("credentials = %q/%q", cp.Username, cp.Password)
	}
	if cp.Keepalive != 60 {
		t.Errorf("keepalive = %d, want 60", cp.Keepalive)
	}
}

func TestPahoInterop_PUBLISH(t *testing.T) {
	pkt := &PUBLISH{
		FixedHeader: &FixedHeader{Kind: 0x3, QoS: 1, Retain: 1},
		PacketID:    42,
		Message:     &Message{TopicName: "a/b", Content: []byte("payload")},
	}

	var buf bytes.Buffer
	if err := pkt.Pack(&buf); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	decoded, err := pahopackets.ReadPacket(&buf)
	if err != nil {
		t.Fatalf("paho ReadPacket() failed: %v", err)
	}
	pp, ok := decoded.(*pahopackets.PublishPacket)
	if !ok {
		t.Fatalf("paho decoded %T, want *PublishPacket", decoded)
	}

	if pp.TopicName != "a/b" || pp.MessageID != 42 {
		t.Errorf("topic/id = %q/%d, want a/b/42", pp.TopicName, pp.MessageID)
	}
	if !bytes.Equal(pp.Payload, []byte("payload")) {
		t.Errorf("payload = %q, want payload", pp.Payload)
	}
	if pp.Qos != 1 || !pp.Retain {
		t.Errorf("flags = qos%d retain %v, want qos1 retain true", pp.Qos, pp.Retain)
	}
}

func TestPahoInterop_SUBSCRIBE(t *testing.T) {
	pkt := NewSUBSCRIBE(7, Subscription{TopicFilter: "x/#", MaximumQoS: 2})

	var buf bytes.Buffer
	if err := pkt.Pack(&buf); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	decoded, err := pahopackets.ReadPacket(&buf)
	if err != nil {
		t.Fatalf("paho ReadPacket() failed: %v", err)
	}
	sp, ok := decoded.(*pahopackets.SubscribePacket)
	if !ok {
		t.Fatalf("paho decoded %T, want *SubscribePacket", decoded)
	}
	if sp.MessageID != 7 {
		t.Errorf("packet id = %d, want 7", sp.MessageID)
	}
	if len(sp.Topics) != 1 || sp.Topics[0] != "x/#" || sp.Qoss[0] != 2 {
		t.Errorf("topics = %v qoss = %v", sp.Topics, sp.Qoss)
	}
}

func TestPahoInterop_Acks(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPUBREL(9).Pack(&buf); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	decoded, err := pahopackets.ReadPacket(&buf)
	if err != nil {
		t.Fatalf("paho ReadPacket() failed: %v", err)
	}
	rp, ok := decoded.(*pahopackets.PubrelPacket)
	if !ok {
		t.Fatalf("paho decoded %T, want *PubrelPacket", decoded)
	}
	if rp.MessageID != 9 {
		t.Errorf("packet id = %d, want 9", rp.MessageID)
	}
}
