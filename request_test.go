package lwmqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRegistryFull(t *testing.T) {
	c, _, _ := newTestClient(t)

	for i := 0; i < MaxRequests; i++ {
		require.NotNil(t, c.createRequest(uint16(i+1), nil), "slot %d", i)
	}
	assert.Nil(t, c.createRequest(100, nil), "registry full must refuse")

	// Freeing one slot makes it reusable.
	c.deleteRequest(&c.requests[3])
	assert.NotNil(t, c.createRequest(100, nil))
}

func TestRequestUniquePacketID(t *testing.T) {
	c, _, _ := newTestClient(t)

	require.NotNil(t, c.createRequest(7, nil))
	assert.Nil(t, c.createRequest(7, nil), "at most one request per live packet id")

	// Packet id 0 (QoS 0 publish) is not subject to uniqueness.
	require.NotNil(t, c.createRequest(0, nil))
	assert.NotNil(t, c.createRequest(0, nil))
}

func TestRequestPendingLookup(t *testing.T) {
	c, _, _ := newTestClient(t)

	r1 := c.createRequest(1, nil)
	r2 := c.createRequest(2, nil)
	require.NotNil(t, r1)
	require.NotNil(t, r2)

	// Not pending until the packet was handed to the TX buffer.
	assert.Nil(t, c.pendingRequest(1))

	c.setRequestPending(r2)
	assert.Nil(t, c.pendingRequest(1))
	assert.Equal(t, r2, c.pendingRequest(2))
	assert.Equal(t, r2, c.pendingRequest(-1), "-1 matches any pending request")
	assert.False(t, r2.startTime.IsZero())
}

func TestRetireSentPublishesFIFO(t *testing.T) {
	c, _, _ := newTestClient(t)

	// Slots allocated out of order on purpose; completion must follow
	// expectedSentLen order, i.e. enqueue order.
	second := c.createRequest(0, "second")
	second.status |= statusKindPublish
	c.setRequestPending(second)
	second.expectedSentLen = 20

	first := c.createRequest(0, "first")
	first.status |= statusKindPublish
	c.setRequestPending(first)
	first.expectedSentLen = 10

	c.sentTotal = 9
	c.retireSentPublishes()
	assert.Empty(t, c.evtq)

	c.sentTotal = 20
	c.retireSentPublishes()
	require.Len(t, c.evtq, 2)
	assert.Equal(t, "first", c.evtq[0].Publish.Arg)
	assert.Equal(t, "second", c.evtq[1].Publish.Arg)

	for i := range c.requests {
		assert.Zero(t, c.requests[i].status, "slot %d must be free", i)
	}
}

func TestPacketIDGenerator(t *testing.T) {
	c, _, _ := newTestClient(t)

	assert.Equal(t, uint16(1), c.nextPacketID())
	assert.Equal(t, uint16(2), c.nextPacketID())

	// 65535 wraps to 1, never producing 0.
	c.lastPacketID = 0xFFFE
	assert.Equal(t, uint16(0xFFFF), c.nextPacketID())
	assert.Equal(t, uint16(1), c.nextPacketID())
}
