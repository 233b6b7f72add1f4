package lwmqtt

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"
)

// PollInterval is the fixed cadence at which the transport fires its poll
// event; the keep alive scheduler counts these ticks.
const PollInterval = 500 * time.Millisecond

// Pbuf is a segmented receive buffer. The transport may hand the engine data
// split across several linear chunks that are not contiguous in memory; the
// parser walks them with LinearAt without copying.
type Pbuf interface {
	// LinearAt returns the linear segment starting at offset, or nil when
	// offset is at or past the end of the data.
	LinearAt(offset int) []byte

	// Len is the total number of bytes across all segments.
	Len() int
}

// NewPbuf wraps byte segments into a Pbuf. The segments are aliased, not
// copied.
func NewPbuf(segs ...[]byte) Pbuf {
	return pbufChain(segs)
}

type pbufChain [][]byte

func (p pbufChain) LinearAt(offset int) []byte {
	for _, seg := range p {
		if offset < len(seg) {
			return seg[offset:]
		}
		offset -= len(seg)
	}
	return nil
}

func (p pbufChain) Len() int {
	n := 0
	for _, seg := range p {
		n += len(seg)
	}
	return n
}

// Transport is the connection the session engine drives. Implementations
// report progress through the client's transport event entry points, which
// take the client lock, so the engine handles one event at a time:
//
//   - connection established / failed to establish
//   - data received (as a Pbuf)
//   - send completed, with the confirmed byte count
//   - the fixed-interval poll tick
//   - connection closed
//
// Exactly one Send is outstanding at any moment; the engine does not issue
// the next one until the previous completion was reported.
type Transport interface {
	// Start opens the connection to host:port without blocking. The outcome
	// arrives as an event.
	Start(host string, port uint16) error

	// Send hands one block of bytes to the connection. Completion arrives
	// as a send event carrying the written length.
	Send(data []byte)

	// Close tears the connection down; a closed event follows.
	Close()

	// Recved acknowledges that the engine is done with a receive buffer.
	Recved(p Pbuf)
}

// netTransport drives a Client over a net.Conn. It dials mqtt/tcp, tls,
// ws and wss and funnels reads, send completions and poll ticks into the
// client's entry points. The client's own lock serializes them.
type netTransport struct {
	c *Client

	mu   sync.Mutex // guards rwc across Send/Close
	rwc  net.Conn
	done chan struct{}
}

func newNetTransport(c *Client) Transport {
	return &netTransport{c: c, done: make(chan struct{})}
}

func (t *netTransport) Start(host string, port uint16) error {
	go t.run(host, port)
	return nil
}

func (t *netTransport) run(host string, port uint16) {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	rwc, err := t.dial(addr)
	if err != nil {
		t.c.transportError(err)
		return
	}
	t.mu.Lock()
	t.rwc = rwc
	t.mu.Unlock()
	t.c.transportActive()

	group := errgroup.Group{}
	group.Go(t.readLoop)
	group.Go(t.pollLoop)
	_ = group.Wait()
	t.c.transportClosed()
}

// dial opens the raw connection for the configured scheme. Grown from the
// client dial matrix: plain TCP for mqtt/tcp, TLS for mqtts/tls, and a
// binary-frame websocket with the mqtt subprotocol for ws/wss.
func (t *netTransport) dial(addr string) (net.Conn, error) {
	opts := t.c.options
	timeout := opts.DialTimeout
	dialer := &net.Dialer{Timeout: timeout}

	switch opts.Scheme {
	case "", "mqtt", "tcp":
		return dialer.Dial("tcp", addr)
	case "mqtts", "tls":
		return tls.DialWithDialer(dialer, "tcp", addr, opts.TLSConfig)
	case "ws", "wss":
		path := opts.WebsocketPath
		if path == "" {
			path = "/mqtt"
		}
		loc := &url.URL{Scheme: opts.Scheme, Host: addr, Path: path}
		originScheme := "http"
		if opts.Scheme == "wss" {
			originScheme = "https"
		}
		origin := &url.URL{Scheme: originScheme, Host: addr}

		cfg, err := websocket.NewConfig(loc.String(), origin.String())
		if err != nil {
			return nil, err
		}
		cfg.Protocol = []string{"mqtt"}
		if opts.Scheme == "wss" {
			cfg.TlsConfig = opts.TLSConfig
		}
		ws, err := websocket.DialConfig(cfg)
		if err != nil {
			return nil, err
		}
		ws.PayloadType = websocket.BinaryFrame
		return ws, nil
	default:
		return nil, errors.New("lwmqtt: unsupported scheme " + opts.Scheme)
	}
}

func (t *netTransport) readLoop() error {
	for {
		buf := make([]byte, 2048)
		n, err := t.rwc.Read(buf)
		if n > 0 {
			t.c.transportReceived(NewPbuf(buf[:n]))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				debugf("mqtt transport read: err=%v", err)
			}
			close(t.done)
			t.mu.Lock()
			_ = t.rwc.Close()
			t.mu.Unlock()
			return err
		}
	}
}

func (t *netTransport) pollLoop() error {
	tick := time.NewTicker(PollInterval)
	defer tick.Stop()
	for {
		select {
		case <-t.done:
			return nil
		case <-tick.C:
			t.c.transportPoll()
		}
	}
}

// Send writes the block on its own goroutine and reports completion; the
// engine keeps isSending true until then, so writes never interleave.
func (t *netTransport) Send(data []byte) {
	go func() {
		t.mu.Lock()
		rwc := t.rwc
		t.mu.Unlock()
		if rwc == nil {
			t.c.transportSent(0, false)
			return
		}
		n, err := rwc.Write(data)
		t.c.transportSent(n, err == nil)
	}()
}

func (t *netTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rwc != nil {
		// Unblocks the read loop; the closed event fires from there.
		_ = t.rwc.Close()
	}
}

// Recved is a no-op: the read loop allocates a fresh buffer per read, so
// there is nothing to recycle.
func (t *netTransport) Recved(Pbuf) {}
