package packet

import "fmt"

// ReasonCode pairs an MQTT return code with its spec wording so it can travel
// both as a wire byte and as a Go error.
// 参考章节 3.2.2.3 CONNACK Return code
type ReasonCode struct {
	Code   uint8  // wire value
	Reason string // spec wording
}

// Error implements the error interface.
func (rc ReasonCode) Error() string {
	return fmt.Sprintf("%d:%s", rc.Code, rc.Reason)
}

var (
	// CONNACK return codes, MQTT v3.1.1 章节 3.2.2.3.
	// A non-zero code means the Server rejected the connection and will close
	// the network connection [MQTT-3.2.2-5].

	// CodeAccepted 0x00: connection accepted.
	CodeAccepted = ReasonCode{Code: 0x00, Reason: "connection accepted"}

	// ErrUnacceptableProtocolVersion 0x01: the Server does not support the
	// level of the MQTT protocol requested by the Client.
	ErrUnacceptableProtocolVersion = ReasonCode{Code: 0x01, Reason: "unacceptable protocol version"}

	// ErrIdentifierRejected 0x02: the Client identifier is correct UTF-8 but
	// not allowed by the Server.
	ErrIdentifierRejected = ReasonCode{Code: 0x02, Reason: "identifier rejected"}

	// ErrServerUnavailable 0x03: the network connection has been made but the
	// MQTT service is unavailable.
	ErrServerUnavailable = ReasonCode{Code: 0x03, Reason: "server unavailable"}

	// ErrBadUsernameOrPassword 0x04: the data in the user name or password is
	// malformed.
	ErrBadUsernameOrPassword = ReasonCode{Code: 0x04, Reason: "bad user name or password"}

	// ErrNotAuthorized 0x05: the Client is not authorized to connect.
	ErrNotAuthorized = ReasonCode{Code: 0x05, Reason: "not authorized"}

	// Decode failures. These never go on the wire for a 3.1.1 client; they
	// surface as Go errors from Unpack.

	ErrMalformedPacket                = ReasonCode{Code: 0x81, Reason: "malformed packet"}
	ErrMalformedFlags                 = ReasonCode{Code: 0x81, Reason: "malformed packet: flags"}
	ErrMalformedProtocolName          = ReasonCode{Code: 0x81, Reason: "malformed packet: protocol name"}
	ErrMalformedProtocolVersion       = ReasonCode{Code: 0x81, Reason: "malformed packet: protocol version"}
	ErrMalformedVariableByteInteger   = ReasonCode{Code: 0x81, Reason: "malformed packet: variable byte integer out of range"}
	ErrProtocolViolation              = ReasonCode{Code: 0x82, Reason: "protocol violation"}
	ErrProtocolViolationQosOutOfRange = ReasonCode{Code: 0x82, Reason: "protocol violation: qos out of range"}
	ErrProtocolViolationNoTopic       = ReasonCode{Code: 0x82, Reason: "protocol violation: no topic"}
	ErrProtocolViolationNoPacketID    = ReasonCode{Code: 0x82, Reason: "protocol violation: missing packet id"}
	ErrPacketTooLarge                 = ReasonCode{Code: 0x95, Reason: "packet too large"}
)
