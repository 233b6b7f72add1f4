package packet

import (
	"bytes"
	"sync"
)

// Pack builds every packet body in a pooled scratch buffer so the remaining
// length is known before the fixed header is written.
var pool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func GetBuffer() *bytes.Buffer {
	return pool.Get().(*bytes.Buffer)
}

func PutBuffer(buf *bytes.Buffer) {
	buf.Reset()
	pool.Put(buf)
}
