package lwmqtt

import (
	"crypto/tls"
	"time"
)

// Options configure a Client.
type Options struct {
	// TxBufferSize bounds the transmit ring. A packet that does not fit in
	// the free space is rejected with ErrNoMemory, never partially written.
	TxBufferSize int

	// RxBufferSize bounds the receive scratch buffer. An inbound packet that
	// spans transport segments and exceeds this size is discarded.
	RxBufferSize int

	// Scheme selects the transport flavor: mqtt/tcp (default), mqtts/tls,
	// ws or wss.
	Scheme string

	// WebsocketPath is the ws/wss endpoint path, default "/mqtt".
	WebsocketPath string

	// TLSConfig is used for the mqtts/tls and wss schemes.
	TLSConfig *tls.Config

	// DialTimeout bounds the transport dial.
	DialTimeout time.Duration

	// RequestTimeout retires an in-flight request that saw no response, via
	// the poll sweep. Zero disables the sweep.
	RequestTimeout time.Duration

	transport func(*Client) Transport
}

// Option mutates Options.
type Option func(*Options)

func newOptions(opts ...Option) Options {
	options := Options{
		TxBufferSize: 4096,
		RxBufferSize: 1024,
		Scheme:       "mqtt",
		DialTimeout:  10 * time.Second,
		transport:    newNetTransport,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

// TxBufferSize sets the transmit ring capacity in bytes.
func TxBufferSize(n int) Option {
	return func(o *Options) {
		o.TxBufferSize = n
	}
}

// RxBufferSize sets the receive scratch buffer capacity in bytes.
func RxBufferSize(n int) Option {
	return func(o *Options) {
		o.RxBufferSize = n
	}
}

// Scheme sets the transport flavor: mqtt, tcp, mqtts, tls, ws or wss.
func Scheme(scheme string) Option {
	return func(o *Options) {
		o.Scheme = scheme
	}
}

// TLSConfig sets the TLS configuration for the mqtts/tls and wss schemes.
func TLSConfig(cfg *tls.Config) Option {
	return func(o *Options) {
		o.TLSConfig = cfg
	}
}

// DialTimeout bounds the transport dial.
func DialTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.DialTimeout = d
	}
}

// RequestTimeout enables the in-flight request timeout sweep.
func RequestTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = d
	}
}

// withTransport swaps the transport factory; the session tests drive the
// engine through a scripted transport.
func withTransport(fn func(*Client) Transport) Option {
	return func(o *Options) {
		o.transport = fn
	}
}
