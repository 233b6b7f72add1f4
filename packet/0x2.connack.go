package packet

import (
	"bytes"
	"fmt"
	"io"
)

// CONNACK 连接确认报文
//
// 参考章节 3.2 CONNACK - Acknowledge connection request
//
// Fixed header: type 0x02, flags must be 0. Variable header: connect
// acknowledge flags (session present in bit 0), connect return code.
// No payload.
type CONNACK struct {
	*FixedHeader

	// SessionPresent 会话存在标志
	// 参考章节 3.2.2.1 Session Present
	// Bit 0 of the first variable header byte; bits 7-1 are reserved and
	// must be 0.
	SessionPresent uint8

	// ReturnCode 连接返回码
	// 参考章节 3.2.2.2 Connect Return code
	// 0x00 accepted; 0x01-0x05 rejection reasons. If a server sends a
	// CONNACK packet containing a non-zero return code it MUST then close
	// the network connection [MQTT-3.2.2-5].
	ReturnCode ReasonCode `json:"ReturnCode,omitempty"`
}

func (pkt *CONNACK) Kind() byte {
	return 0x2
}

func (pkt *CONNACK) String() string {
	return fmt.Sprintf("[0x2]ReturnCode=%d", pkt.ReturnCode.Code)
}

func (pkt *CONNACK) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.WriteByte(pkt.SessionPresent)
	buf.WriteByte(pkt.ReturnCode.Code)

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *CONNACK) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.SessionPresent = buf.Next(1)[0] & 0x01
	code := buf.Next(1)[0]
	switch code {
	case 0x00:
		pkt.ReturnCode = CodeAccepted
	case 0x01:
		pkt.ReturnCode = ErrUnacceptableProtocolVersion
	case 0x02:
		pkt.ReturnCode = ErrIdentifierRejected
	case 0x03:
		pkt.ReturnCode = ErrServerUnavailable
	case 0x04:
		pkt.ReturnCode = ErrBadUsernameOrPassword
	case 0x05:
		pkt.ReturnCode = ErrNotAuthorized
	default:
		pkt.ReturnCode = ReasonCode{Code: code, Reason: "reserved return code"}
	}
	return nil
}
