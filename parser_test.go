package lwmqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publishFrame is an inbound QoS 0 PUBLISH, topic "t", payload "hi".
var publishFrame = []byte{0x30, 0x05, 0x00, 0x01, 't', 'h', 'i'}

func recvPublishEvents(rec *eventRec) []Event {
	var out []Event
	for _, evt := range rec.take() {
		if evt.Type == EventPublishRecv {
			out = append(out, evt)
		}
	}
	return out
}

func checkPublishEvent(t *testing.T, evt Event) {
	t.Helper()
	assert.Equal(t, []byte("t"), evt.Recv.Topic)
	assert.Equal(t, []byte("hi"), evt.Recv.Payload)
	assert.Equal(t, QoS0, evt.Recv.QoS)
}

// Feeding a packet whole, byte by byte, or split at any boundary must
// produce the same dispatched packet.
func TestParserOneChunk(t *testing.T) {
	c, tr, rec := newTestClient(t)
	connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

	c.transportReceived(NewPbuf(publishFrame))
	evts := recvPublishEvents(rec)
	require.Len(t, evts, 1)
	checkPublishEvent(t, evts[0])
}

func TestParserByteByByte(t *testing.T) {
	c, tr, rec := newTestClient(t)
	connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

	for _, b := range publishFrame {
		c.transportReceived(NewPbuf([]byte{b}))
	}
	evts := recvPublishEvents(rec)
	require.Len(t, evts, 1)
	checkPublishEvent(t, evts[0])
}

func TestParserEverySplitPoint(t *testing.T) {
	for split := 1; split < len(publishFrame); split++ {
		c, tr, rec := newTestClient(t)
		connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

		// One pbuf, two non-contiguous segments.
		c.transportReceived(NewPbuf(publishFrame[:split], publishFrame[split:]))
		evts := recvPublishEvents(rec)
		require.Len(t, evts, 1, "split at %d", split)
		checkPublishEvent(t, evts[0])
	}
}

func TestParserSplitAcrossReceives(t *testing.T) {
	for split := 1; split < len(publishFrame); split++ {
		c, tr, rec := newTestClient(t)
		connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

		c.transportReceived(NewPbuf(publishFrame[:split]))
		c.transportReceived(NewPbuf(publishFrame[split:]))
		evts := recvPublishEvents(rec)
		require.Len(t, evts, 1, "split at %d", split)
		checkPublishEvent(t, evts[0])
	}
}

func TestParserCoalescedPackets(t *testing.T) {
	c, tr, rec := newTestClient(t)
	connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

	// Two publishes and a PINGRESP arriving in one segment.
	var coalesced []byte
	coalesced = append(coalesced, publishFrame...)
	coalesced = append(coalesced, publishFrame...)
	coalesced = append(coalesced, 0xD0, 0x00)
	c.transportReceived(NewPbuf(coalesced))

	evts := rec.take()
	require.Len(t, evts, 3)
	assert.Equal(t, EventPublishRecv, evts[0].Type)
	assert.Equal(t, EventPublishRecv, evts[1].Type)
	assert.Equal(t, EventKeepAlive, evts[2].Type)
}

func TestParserZeroLengthBody(t *testing.T) {
	c, tr, rec := newTestClient(t)
	connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

	c.transportReceived(NewPbuf([]byte{0xD0, 0x00}))
	evts := rec.take()
	require.Len(t, evts, 1)
	assert.Equal(t, EventKeepAlive, evts[0].Type)
	assert.Equal(t, parserInit, c.parser.state, "parser back at INIT")
}

// A packet that spans segments and exceeds the scratch buffer is discarded;
// the parser resynchronizes at the next packet boundary.
func TestParserOversizedPacketDiscarded(t *testing.T) {
	c, tr, rec := newTestClient(t, RxBufferSize(5))
	connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

	big := []byte{0x30, 0x08, 0x00, 0x01, 't', 'p', 'a', 'y', 'l', 'd'}
	// Split inside the body so the scratch path is forced.
	c.transportReceived(NewPbuf(big[:5]))
	c.transportReceived(NewPbuf(big[5:]))
	assert.Empty(t, recvPublishEvents(rec), "oversized packet produces no event")
	assert.Equal(t, parserInit, c.parser.state)

	// The next packet parses normally.
	c.transportReceived(NewPbuf(publishFrame[:3]))
	c.transportReceived(NewPbuf(publishFrame[3:]))
	evts := recvPublishEvents(rec)
	require.Len(t, evts, 1)
	checkPublishEvent(t, evts[0])
}

// The zero copy fast path dispatches a packet that fits one segment even
// when it is larger than the scratch buffer.
func TestParserZeroCopyBypassesScratch(t *testing.T) {
	c, tr, rec := newTestClient(t, RxBufferSize(4))
	connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

	c.transportReceived(NewPbuf(publishFrame))
	evts := recvPublishEvents(rec)
	require.Len(t, evts, 1)
	checkPublishEvent(t, evts[0])
}

func TestParserMultiByteRemainingLength(t *testing.T) {
	c, tr, rec := newTestClient(t, RxBufferSize(512))
	connectClient(t, c, tr, rec, &SessionInfo{ClientID: "abc"})

	// A 200 byte body needs a two byte length encoding.
	payload := make([]byte, 197)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame := []byte{0x30, 0xC8, 0x01, 0x00, 0x01, 't'}
	frame = append(frame, payload...)

	// Split inside the VLI, then inside the body.
	c.transportReceived(NewPbuf(frame[:2], frame[2:50], frame[50:]))
	evts := recvPublishEvents(rec)
	require.Len(t, evts, 1)
	assert.Equal(t, []byte("t"), evts[0].Recv.Topic)
	assert.Equal(t, payload, evts[0].Recv.Payload)
}
