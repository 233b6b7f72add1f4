package lwmqtt

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/golang-io/requests"
	"github.com/jonny12375/lwmqtt/packet"
)

var (
	// ErrInvalidState is returned by an API call made in a session state
	// that cannot honor it, e.g. Connect while already connected.
	ErrInvalidState = errors.New("lwmqtt: invalid session state")

	// ErrNotConnected is returned by Subscribe/Unsubscribe/Publish before
	// the session reached the connected state.
	ErrNotConnected = errors.New("lwmqtt: not connected")

	// ErrNoMemory is returned when the TX buffer cannot hold the encoded
	// packet or the request registry is full. Session state is unchanged
	// and nothing reaches the wire.
	ErrNoMemory = errors.New("lwmqtt: out of memory")

	// ErrConnectionClosed completes every in-flight request when the
	// transport closes underneath the session.
	ErrConnectionClosed = errors.New("lwmqtt: connection closed")

	// ErrRequestTimeout completes a request the poll sweep gave up on.
	ErrRequestTimeout = errors.New("lwmqtt: request timed out")

	// ErrRequestRefused reports a SUBACK failure return code.
	ErrRequestRefused = errors.New("lwmqtt: request refused by broker")
)

// sessionState is the lifecycle state of the MQTT session.
type sessionState int

const (
	stateDisconnected sessionState = iota
	stateConnecting
	stateConnected
	stateDisconnecting
)

// SessionInfo describes one session to the broker. It is read-only for the
// lifetime of the connection.
//
// 参考章节 3.1 CONNECT - Client requests a connection to a Server
type SessionInfo struct {
	// ClientID identifies the session to the broker. Left empty, a random
	// identifier is generated at connect time.
	ClientID string

	// Username and Password are optional; each is sent iff non-empty.
	Username string
	Password string

	// WillTopic/WillMessage define the last will the broker publishes on an
	// abnormal disconnect. The will is carried iff WillTopic is non-empty.
	WillTopic   string
	WillMessage []byte
	WillQoS     QoS
	WillRetain  bool

	// KeepAlive is the keep alive interval in seconds; 0 disables the
	// PINGREQ scheduler.
	KeepAlive uint16
}

// Client is an MQTT 3.1.1 session engine over an event driven transport.
//
// A Client owns one transport connection, a bounded transmit ring, a receive
// scratch buffer, the in-flight request registry and the incremental parser
// state. All mutation happens under one lock that both the API calls and the
// transport event entry points take, so API calls and event handling never
// interleave.
type Client struct {
	mu sync.Mutex

	options Options
	conn    Transport
	info    *SessionInfo
	evtFn   EventCallback
	state   sessionState
	arg     any

	tx     *txBuffer
	rxBuf  []byte
	parser parserRun

	requests [MaxRequests]request

	// isSending is true from the moment a block is handed to the transport
	// until the send-complete event fires; no second send is issued in that
	// interval.
	isSending bool

	// writtenTotal counts bytes accepted into the TX buffer, sentTotal
	// counts bytes the transport confirmed; sentTotal <= writtenTotal
	// always.
	writtenTotal uint32
	sentTotal    uint32

	// pollTime counts transport poll ticks since the last PINGREQ.
	pollTime uint32

	lastPacketID uint16

	// queued events, delivered after the lock is released so callbacks can
	// call back into the API.
	evtq []Event
}

// New creates a client with the given options. The TX buffer bounds how much
// outbound traffic can be in flight; the RX buffer bounds the largest
// non-contiguous inbound packet the parser will assemble.
func New(opts ...Option) (*Client, error) {
	options := newOptions(opts...)
	if options.TxBufferSize < 8 || options.RxBufferSize < 4 {
		return nil, ErrNoMemory
	}
	c := &Client{
		options: options,
		tx:      newTXBuffer(options.TxBufferSize),
		rxBuf:   make([]byte, options.RxBufferSize),
	}
	debugf("mqtt client created: tx=%d, rx=%d", options.TxBufferSize, options.RxBufferSize)
	return c, nil
}

// Close releases the client. The session must be disconnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateDisconnected {
		return ErrInvalidState
	}
	c.tx = nil
	c.rxBuf = nil
	return nil
}

// SetArg attaches an opaque user value to the client.
func (c *Client) SetArg(arg any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arg = arg
}

// GetArg returns the value set with SetArg.
func (c *Client) GetArg() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.arg
}

// IsConnected reports whether the session reached the connected state and
// has not begun disconnecting.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateConnected
}

// Connect opens the transport to host:port and starts an MQTT session
// described by info. The outcome arrives as an EventConnect on cb; cb then
// receives every event of the session until its EventDisconnect.
func (c *Client) Connect(host string, port uint16, cb EventCallback, info *SessionInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateDisconnected || c.conn != nil || c.tx == nil {
		return ErrInvalidState
	}
	if info == nil {
		info = &SessionInfo{}
	}
	if info.ClientID == "" {
		info.ClientID = "lwmqtt-" + requests.GenId()
	}
	c.info, c.evtFn = info, cb
	c.conn = c.options.transport(c)

	log.Printf("mqtt connect: client_id=%s, host=%s, port=%d", info.ClientID, host, port)
	return c.conn.Start(host, port)
}

// Disconnect closes the transport; when the session is connected it first
// enqueues and flushes a DISCONNECT packet. The session finishes with an EventDisconnect once the transport reports the
// close.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateDisconnected || c.state == stateDisconnecting || c.conn == nil {
		return ErrInvalidState
	}

	if c.state == stateConnected {
		buf := packet.GetBuffer()
		pkt := packet.DISCONNECT{FixedHeader: &packet.FixedHeader{Kind: DISCONNECT}}
		if err := pkt.Pack(buf); err == nil {
			c.enqueue(buf.Bytes())
		}
		packet.PutBuffer(buf)
		c.flush()
	}

	c.setState(stateDisconnecting)
	c.conn.Close()
	return nil
}

// Subscribe sends a SUBSCRIBE for one topic filter. Completion arrives as an
// EventSubscribe carrying arg.
func (c *Client) Subscribe(topic string, qos QoS, arg any) error {
	return c.sendSubUnsub(topic, qos, arg, true)
}

// Unsubscribe sends an UNSUBSCRIBE for one topic filter. Completion arrives
// as an EventUnsubscribe carrying arg.
func (c *Client) Unsubscribe(topic string, arg any) error {
	return c.sendSubUnsub(topic, 0, arg, false)
}

func (c *Client) sendSubUnsub(topic string, qos QoS, arg any, subscribe bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateConnected {
		return ErrNotConnected
	}
	if topic == "" || qos > QoS2 {
		return packet.ErrProtocolViolationNoTopic
	}

	r := c.createRequest(c.nextPacketID(), arg)
	if r == nil {
		return ErrNoMemory
	}
	r.topic = topic

	buf := packet.GetBuffer()
	defer packet.PutBuffer(buf)

	var err error
	if subscribe {
		r.status |= statusKindSubscribe
		err = packet.NewSUBSCRIBE(r.packetID, packet.Subscription{TopicFilter: topic, MaximumQoS: uint8(qos)}).Pack(buf)
	} else {
		r.status |= statusKindUnsubscribe
		err = packet.NewUNSUBSCRIBE(r.packetID, topic).Pack(buf)
	}
	if err != nil {
		c.deleteRequest(r)
		return err
	}
	if !c.enqueue(buf.Bytes()) {
		c.deleteRequest(r)
		return ErrNoMemory
	}
	c.setRequestPending(r)
	debugf("mqtt request sent: kind=%s, topic=%s, packet_id=%d", r.kind(), topic, r.packetID)
	c.flush()
	return nil
}

// Publish sends an application message. For QoS 0 the EventPublish fires
// once the transport confirmed the bytes left the host; for QoS 1/2 it fires
// when the matching PUBACK/PUBCOMP arrives.
func (c *Client) Publish(topic string, payload []byte, qos QoS, retain bool, arg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateConnected {
		return ErrNotConnected
	}
	if qos > QoS2 {
		return packet.ErrProtocolViolationQosOutOfRange
	}

	// Packet id 0 marks the request as a QoS 0, completed-on-send publish.
	var packetID uint16
	if qos > QoS0 {
		packetID = c.nextPacketID()
	}

	r := c.createRequest(packetID, arg)
	if r == nil {
		return ErrNoMemory
	}
	r.status |= statusKindPublish
	r.topic = topic

	buf := packet.GetBuffer()
	defer packet.PutBuffer(buf)

	pkt := packet.PUBLISH{
		FixedHeader: &packet.FixedHeader{Kind: PUBLISH, QoS: uint8(qos)},
		PacketID:    packetID,
		Message:     &packet.Message{TopicName: topic, Content: payload},
	}
	if retain {
		pkt.FixedHeader.Retain = 1
	}
	if err := pkt.Pack(buf); err != nil {
		c.deleteRequest(r)
		return err
	}
	if !c.enqueue(buf.Bytes()) {
		c.deleteRequest(r)
		return ErrNoMemory
	}
	c.setRequestPending(r)
	// enqueue advanced writtenTotal past this packet, so the publish is
	// done exactly when sentTotal catches up with it.
	r.expectedSentLen = c.writtenTotal

	debugf("mqtt publish sent: topic=%s, qos=%d, packet_id=%d, len=%d", topic, qos, packetID, buf.Len())
	c.flush()
	return nil
}

// nextPacketID returns the next 16-bit packet identifier: preincrement,
// wrapping 65535 -> 1, never 0.
func (c *Client) nextPacketID() uint16 {
	c.lastPacketID++
	if c.lastPacketID == 0 {
		c.lastPacketID = 1
	}
	return c.lastPacketID
}

func (c *Client) setState(s sessionState) {
	debugf("mqtt state: %d -> %d", c.state, s)
	switch {
	case s == stateConnected:
		stat.ActiveSessions.Inc()
	case c.state == stateConnected:
		stat.ActiveSessions.Dec()
	}
	c.state = s
}

// enqueue copies one encoded packet into the TX buffer. All or nothing: on
// false the buffer is unchanged. On success writtenTotal advances by the raw
// packet length.
func (c *Client) enqueue(b []byte) bool {
	if c.tx == nil || !c.tx.Write(b) {
		return false
	}
	c.writtenTotal += uint32(len(b))
	stat.PacketSent.Inc()
	return true
}

// flush hands the largest linear readable block to the transport. At most
// one send is in flight; the next flush happens on send-complete.
func (c *Client) flush() {
	if c.isSending || c.conn == nil || c.state == stateDisconnected {
		return
	}
	block := c.tx.LinearBlock()
	if len(block) == 0 {
		return
	}
	c.isSending = true
	debugf("mqtt flush: len=%d", len(block))
	c.conn.Send(block)
}

// emit queues an event for delivery after the core lock is released.
func (c *Client) emit(evt Event) {
	c.evtq = append(c.evtq, evt)
}

func (c *Client) takeEvents() []Event {
	q := c.evtq
	c.evtq = nil
	return q
}

func (c *Client) deliver(q []Event) {
	if c.evtFn == nil {
		return
	}
	for i := range q {
		c.evtFn(c, &q[i])
	}
}

// ---- transport event entry points ------------------------------------------
//
// The transport may invoke these from several goroutines; each one takes the
// core lock, so their state changes apply one event at a time.

// transportActive runs when the network connection came up: build and send
// the CONNECT packet, enter the connecting state, reset the parser and the
// keep alive counter.
func (c *Client) transportActive() {
	c.mu.Lock()
	info := c.info

	buf := packet.GetBuffer()
	pkt := packet.CONNECT{
		FixedHeader: &packet.FixedHeader{Kind: CONNECT},
		ClientID:    info.ClientID,
		Username:    info.Username,
		Password:    info.Password,
		WillTopic:   info.WillTopic,
		WillPayload: info.WillMessage,
		WillQoS:     uint8(info.WillQoS),
		WillRetain:  info.WillRetain,
		// The engine drives a fresh session every connect; the clean
		// session flag is always set.
		CleanSession: true,
		KeepAlive:    info.KeepAlive,
	}
	err := pkt.Pack(buf)
	if err == nil && !c.enqueue(buf.Bytes()) {
		err = ErrNoMemory
	}
	packet.PutBuffer(buf)
	if err != nil {
		// The connecting state is not established; the keep alive poll will
		// never fire and the broker closes the idle connection.
		log.Printf("mqtt connect packet dropped: client_id=%s, err=%v", info.ClientID, err)
		c.mu.Unlock()
		return
	}

	c.setState(stateConnecting)
	c.resetParser()
	c.pollTime = 0
	c.flush()
	c.mu.Unlock()
}

// transportReceived feeds a receive buffer through the parser, delivers the
// resulting events, then acknowledges the buffer back to the transport.
func (c *Client) transportReceived(p Pbuf) {
	c.mu.Lock()
	stat.ByteReceived.Add(float64(p.Len()))
	c.parseReceived(p)
	q := c.takeEvents()
	conn := c.conn
	c.mu.Unlock()

	// Deliver before recycling the buffer: zero copy payload slices alias
	// the pbuf's memory.
	c.deliver(q)
	if conn != nil {
		conn.Recved(p)
	}
}

// transportSent runs on send-complete. A failed send collapses the session
// into a close; a successful one advances the ring, retires QoS 0 publishes
// whose bytes are confirmed out, and attempts another flush.
func (c *Client) transportSent(n int, ok bool) {
	c.mu.Lock()
	c.isSending = false
	if !ok {
		log.Printf("mqtt send failed: len=%d", n)
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
		return
	}
	c.sentTotal += uint32(n)
	stat.ByteSent.Add(float64(n))
	c.tx.Advance(n)
	c.retireSentPublishes()
	c.flush()
	q := c.takeEvents()
	c.mu.Unlock()
	c.deliver(q)
}

// transportPoll runs every poll interval. It drives the keep alive scheduler
// and the request timeout sweep; both are suppressed while disconnecting.
func (c *Client) transportPoll() {
	c.mu.Lock()
	if c.state == stateDisconnecting || c.state == stateDisconnected {
		c.mu.Unlock()
		return
	}

	c.pollTime++
	keepAlive := uint32(0)
	if c.info != nil {
		keepAlive = uint32(c.info.KeepAlive)
	}
	if keepAlive > 0 && c.pollTime*uint32(PollInterval/time.Millisecond) >= keepAlive*1000 {
		if c.tx.CheckEnoughMemory(0) != 0 {
			c.enqueue([]byte{PINGREQ << 4, 0x00})
			c.flush()
			debugf("mqtt keep-alive: PINGREQ sent")
		}
		c.pollTime = 0
	}

	if d := c.options.RequestTimeout; d > 0 {
		now := time.Now()
		for i := range c.requests {
			r := &c.requests[i]
			if r.status&(statusInUse|statusPending) != statusInUse|statusPending {
				continue
			}
			if now.Sub(r.startTime) < d {
				continue
			}
			log.Printf("mqtt request timed out: kind=%s, packet_id=%d, topic=%s", r.kind(), r.packetID, r.topic)
			c.emitRequestError(r, ErrRequestTimeout)
			c.deleteRequest(r)
		}
	}

	q := c.takeEvents()
	c.mu.Unlock()
	c.deliver(q)
}

// transportClosed finishes the session: every pending request completes with
// an error, the registry and TX buffer reset, and the user sees one
// EventDisconnect whose IsAccepted is true iff the session was connected or
// disconnecting when the transport closed.
func (c *Client) transportClosed() {
	c.mu.Lock()
	prior := c.state
	c.setState(stateDisconnected)
	c.isSending = false
	c.conn = nil
	if c.tx != nil {
		c.tx.Reset()
	}
	c.resetParser()
	c.writtenTotal, c.sentTotal, c.pollTime = 0, 0, 0

	evt := Event{Type: EventDisconnect}
	evt.Disconnect.IsAccepted = prior == stateConnected || prior == stateDisconnecting
	c.emit(evt)

	for i := range c.requests {
		r := &c.requests[i]
		if r.status&statusInUse == 0 {
			continue
		}
		c.emitRequestError(r, ErrConnectionClosed)
	}
	c.requests = [MaxRequests]request{}

	log.Printf("mqtt closed: prior_state=%d, accepted=%v", prior, evt.Disconnect.IsAccepted)
	q := c.takeEvents()
	c.mu.Unlock()
	c.deliver(q)
}

// transportError runs when the transport could not be established at all.
func (c *Client) transportError(err error) {
	c.mu.Lock()
	log.Printf("mqtt transport error: err=%v", err)
	c.setState(stateDisconnected)
	c.conn = nil
	evt := Event{Type: EventConnect}
	evt.Connect.Status = ConnStatusTCPFailed
	c.emit(evt)
	q := c.takeEvents()
	c.mu.Unlock()
	c.deliver(q)
}

func (c *Client) emitRequestError(r *request, err error) {
	evt := Event{Type: r.kind()}
	switch evt.Type {
	case EventPublish:
		evt.Publish.Arg, evt.Publish.Err = r.arg, err
	default:
		evt.Sub.Topic, evt.Sub.Arg, evt.Sub.Err = r.topic, r.arg, err
	}
	c.emit(evt)
}
