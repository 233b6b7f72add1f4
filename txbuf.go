package lwmqtt

import "github.com/jonny12375/lwmqtt/packet"

// txBuffer is the bounded transmit ring between the packet encoders and the
// transport. Writes are all or nothing: Write checks the free space first and
// copies nothing when the packet does not fit, so a packet never partially
// enters the ring. CheckEnoughMemory answers the same question for a packet
// given by its remaining length.
//
// The ring is reset to r=w=0 whenever it drains. That is a contract, not an
// optimization: it guarantees that after the buffer was empty the next packet
// is contiguous and deliverable to the transport in a single send.
type txBuffer struct {
	buf  []byte
	r, w int
	full bool
}

func newTXBuffer(size int) *txBuffer {
	return &txBuffer{buf: make([]byte, size)}
}

// Len is the number of readable bytes.
func (b *txBuffer) Len() int {
	if b.full {
		return len(b.buf)
	}
	if b.w >= b.r {
		return b.w - b.r
	}
	return len(b.buf) - b.r + b.w
}

// Free is the number of writable bytes.
func (b *txBuffer) Free() int {
	return len(b.buf) - b.Len()
}

// CheckEnoughMemory returns the raw on-wire size of a packet with the given
// remaining length (header byte, encoded length, body), or 0 when the free
// space cannot hold it.
func (b *txBuffer) CheckEnoughMemory(remLen int) int {
	raw := packet.RawSize(remLen)
	if raw > b.Free() {
		return 0
	}
	return raw
}

// Write copies p into the ring. It returns false, writing nothing, when p
// does not fit.
func (b *txBuffer) Write(p []byte) bool {
	if len(p) > b.Free() {
		return false
	}
	if len(p) == 0 {
		return true
	}
	n := copy(b.buf[b.w:], p)
	if n < len(p) {
		copy(b.buf, p[n:])
	}
	b.w = (b.w + len(p)) % len(b.buf)
	b.full = b.w == b.r
	return true
}

// LinearBlock returns the largest contiguous readable block. The caller hands
// this block to the transport in a single send and advances the ring by the
// confirmed length afterwards.
func (b *txBuffer) LinearBlock() []byte {
	n := b.Len()
	if n == 0 {
		return nil
	}
	if linear := len(b.buf) - b.r; n > linear {
		n = linear
	}
	return b.buf[b.r : b.r+n]
}

// Advance consumes n read bytes after the transport confirmed the send.
// Draining the ring resets it so the next packet lands contiguously.
func (b *txBuffer) Advance(n int) {
	if n <= 0 {
		return
	}
	if avail := b.Len(); n > avail {
		n = avail
	}
	b.r = (b.r + n) % len(b.buf)
	b.full = false
	if b.r == b.w {
		b.Reset()
	}
}

// Reset empties the ring.
func (b *txBuffer) Reset() {
	b.r, b.w, b.full = 0, 0, false
}
