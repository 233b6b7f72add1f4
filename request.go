package lwmqtt

import "time"

// requestStatus is the status bitfield of a registry slot.
type requestStatus uint8

const (
	statusInUse    requestStatus = 1 << iota // slot is allocated
	statusPending                            // packet handed to the TX buffer
	statusReleased                           // QoS 2 publish: PUBREL sent, waiting for PUBCOMP

	statusKindSubscribe
	statusKindUnsubscribe
	statusKindPublish
)

// request is one slot of the fixed capacity in-flight registry.
//
// Two completion regimes coexist. A QoS 1/2 request carries a non-zero packet
// identifier and is retired when the matching ack arrives. A QoS 0 publish
// carries packet id 0 and is retired in the send-complete handler once the
// cumulative confirmed byte count reaches expectedSentLen, so its callback
// fires when the bytes have left the host, not when they were enqueued.
type request struct {
	status    requestStatus
	packetID  uint16
	startTime time.Time // stamped by setRequestPending, feeds the timeout sweep
	topic     string

	// expectedSentLen is the sentTotal value at which a QoS 0 publish is
	// complete: writtenTotal plus the raw packet size, stamped at enqueue.
	expectedSentLen uint32

	arg any
}

func (r *request) kind() EventType {
	switch {
	case r.status&statusKindSubscribe != 0:
		return EventSubscribe
	case r.status&statusKindUnsubscribe != 0:
		return EventUnsubscribe
	default:
		return EventPublish
	}
}

// createRequest claims the first free slot. It returns nil when the registry
// is full or when packetID is already live; at most one request exists per
// live packet identifier.
func (c *Client) createRequest(packetID uint16, arg any) *request {
	if packetID != 0 {
		for i := range c.requests {
			r := &c.requests[i]
			if r.status&statusInUse != 0 && r.packetID == packetID {
				return nil
			}
		}
	}
	for i := range c.requests {
		r := &c.requests[i]
		if r.status&statusInUse == 0 {
			*r = request{status: statusInUse, packetID: packetID, arg: arg}
			return r
		}
	}
	return nil
}

// deleteRequest frees the slot. A slot is reusable iff the in-use bit is
// clear.
func (c *Client) deleteRequest(r *request) {
	*r = request{}
}

// setRequestPending marks the request as handed to the TX buffer and stamps
// the timeout clock.
func (c *Client) setRequestPending(r *request) {
	r.status |= statusPending
	r.startTime = time.Now()
}

// pendingRequest returns the first pending slot matching packetID, or the
// first pending slot of any id when packetID is -1.
func (c *Client) pendingRequest(packetID int) *request {
	for i := range c.requests {
		r := &c.requests[i]
		if r.status&(statusInUse|statusPending) != statusInUse|statusPending {
			continue
		}
		if packetID == -1 || int(r.packetID) == packetID {
			return r
		}
	}
	return nil
}

// retireSentPublishes completes QoS 0 publishes whose bytes the transport has
// confirmed, oldest first so the callbacks fire in enqueue order.
func (c *Client) retireSentPublishes() {
	for {
		var oldest *request
		for i := range c.requests {
			r := &c.requests[i]
			if r.status&(statusInUse|statusPending) != statusInUse|statusPending || r.packetID != 0 {
				continue
			}
			if r.expectedSentLen > c.sentTotal {
				continue
			}
			if oldest == nil || r.expectedSentLen < oldest.expectedSentLen {
				oldest = r
			}
		}
		if oldest == nil {
			return
		}
		evt := Event{Type: EventPublish}
		evt.Publish.Arg = oldest.arg
		c.emit(evt)
		c.deleteRequest(oldest)
	}
}
