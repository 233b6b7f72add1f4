package lwmqtt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTXBufferWrite(t *testing.T) {
	b := newTXBuffer(8)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 8, b.Free())

	require.True(t, b.Write([]byte{1, 2, 3}))
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 5, b.Free())

	// All or nothing: six bytes do not fit, nothing must change.
	require.False(t, b.Write([]byte{4, 5, 6, 7, 8, 9}))
	assert.Equal(t, 3, b.Len())

	require.True(t, b.Write([]byte{4, 5, 6, 7, 8}))
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, 0, b.Free())
	require.False(t, b.Write([]byte{9}))
}

func TestTXBufferCheckEnoughMemory(t *testing.T) {
	b := newTXBuffer(16)
	// Raw size is header byte + length byte + body.
	assert.Equal(t, 2, b.CheckEnoughMemory(0))
	assert.Equal(t, 16, b.CheckEnoughMemory(14))
	assert.Equal(t, 0, b.CheckEnoughMemory(15))

	require.True(t, b.Write(make([]byte, 10)))
	assert.Equal(t, 6, b.CheckEnoughMemory(4))
	assert.Equal(t, 0, b.CheckEnoughMemory(5))
}

func TestTXBufferResetWhenEmpty(t *testing.T) {
	b := newTXBuffer(8)
	require.True(t, b.Write([]byte{1, 2, 3, 4, 5}))
	b.Advance(5)

	// Draining must reset the ring so the next packet is contiguous.
	assert.Equal(t, 0, b.r)
	assert.Equal(t, 0, b.w)
	require.True(t, b.Write([]byte{1, 2, 3, 4, 5, 6, 7}))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7}, b.LinearBlock())
}

func TestTXBufferWrapAround(t *testing.T) {
	b := newTXBuffer(8)
	require.True(t, b.Write([]byte{1, 2, 3, 4, 5, 6}))
	b.Advance(4)
	// Write wraps: bytes 7 8 9 10 land as [9 10 _ _ 5 6 7 8].
	require.True(t, b.Write([]byte{7, 8, 9, 10}))
	assert.Equal(t, 6, b.Len())

	// The linear block stops at the physical end of the ring.
	assert.Equal(t, []byte{5, 6, 7, 8}, b.LinearBlock())
	b.Advance(4)
	assert.Equal(t, []byte{9, 10}, b.LinearBlock())
	b.Advance(2)
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.LinearBlock())
}

func TestTXBufferFull(t *testing.T) {
	b := newTXBuffer(4)
	require.True(t, b.Write([]byte{1, 2, 3, 4}))
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 0, b.Free())
	assert.True(t, bytes.Equal(b.LinearBlock(), []byte{1, 2, 3, 4}))

	b.Advance(2)
	require.True(t, b.Write([]byte{5, 6}))
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, []byte{3, 4}, b.LinearBlock())
	b.Advance(2)
	assert.Equal(t, []byte{5, 6}, b.LinearBlock())
}
