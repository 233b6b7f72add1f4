package lwmqtt

// EventType discriminates the user event variant.
type EventType byte

const (
	// EventConnect reports the outcome of a connection attempt: the broker
	// CONNACK return code, or ConnStatusTCPFailed when the transport never
	// came up.
	EventConnect EventType = iota

	// EventDisconnect reports that the transport closed.
	EventDisconnect

	// EventSubscribe reports completion of a Subscribe call.
	EventSubscribe

	// EventUnsubscribe reports completion of an Unsubscribe call.
	EventUnsubscribe

	// EventPublish reports completion of a Publish call: the matching ack
	// for QoS 1/2, or the bytes leaving the host for QoS 0.
	EventPublish

	// EventPublishRecv delivers an incoming application message.
	EventPublishRecv

	// EventKeepAlive reports a PINGRESP from the broker.
	EventKeepAlive
)

var eventNames = map[EventType]string{
	EventConnect:     "CONNECT",
	EventDisconnect:  "DISCONNECT",
	EventSubscribe:   "SUBSCRIBE",
	EventUnsubscribe: "UNSUBSCRIBE",
	EventPublish:     "PUBLISH",
	EventPublishRecv: "PUBLISH_RECV",
	EventKeepAlive:   "KEEP_ALIVE",
}

func (t EventType) String() string {
	return eventNames[t]
}

// ConnStatus is the broker's CONNACK return code, widened to carry the
// engine's own transport failure sentinel.
type ConnStatus int

const (
	ConnStatusAccepted               ConnStatus = 0x00
	ConnStatusRefusedProtocolVersion ConnStatus = 0x01
	ConnStatusRefusedID              ConnStatus = 0x02
	ConnStatusRefusedServer          ConnStatus = 0x03
	ConnStatusRefusedBadUserPass     ConnStatus = 0x04
	ConnStatusRefusedNotAuthorized   ConnStatus = 0x05

	// ConnStatusTCPFailed is outside the CONNACK code space; it reports that
	// the transport connection could not be established at all.
	ConnStatusTCPFailed ConnStatus = 0x100
)

// Event is the tagged variant handed to the session event callback. Type
// selects which payload field is meaningful; the dispatcher is a plain
// switch on the tag.
type Event struct {
	Type EventType

	// Connect carries the broker status for EventConnect.
	Connect struct {
		Status ConnStatus
	}

	// Disconnect carries whether the close was a graceful one (the session
	// was CONNECTED or already DISCONNECTING) for EventDisconnect.
	Disconnect struct {
		IsAccepted bool
	}

	// Sub carries the topic, user argument and result for EventSubscribe
	// and EventUnsubscribe.
	Sub struct {
		Topic string
		Arg   any
		Err   error
	}

	// Publish carries the user argument and result for EventPublish.
	Publish struct {
		Arg any
		Err error
	}

	// Recv carries the inbound message for EventPublishRecv. Topic and
	// Payload alias the receive buffers and are only valid for the duration
	// of the callback; delivery is strictly edge triggered.
	Recv struct {
		Topic   []byte
		Payload []byte
		Dup     bool
		QoS     QoS
		Retain  bool
	}
}

// EventCallback receives session events. Callbacks run after the core lock is
// released, on the goroutine that reported the transport event, in emission
// order for that event. The net transport reports receives, send completions
// and poll ticks from separate goroutines, so callbacks for different
// transport events can run concurrently.
type EventCallback func(c *Client, evt *Event)
