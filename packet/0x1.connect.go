package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// NAME 协议名，固定为"MQTT"
// 参考章节 3.1.2.1 Protocol Name
// 编码: 0x00 0x04 'M' 'Q' 'T' 'T'
var NAME = []byte{0x00, 0x04, 'M', 'Q', 'T', 'T'}

// CONNECT is the first packet sent by the Client after the network connection
// is established. A Client can only send the CONNECT Packet once over a
// Network Connection [MQTT-3.1.0-2].
//
// 参考章节 3.1 CONNECT - Client requests a connection to a Server
//
// 报文结构:
// ┌─────────────────┬─────────────────┬─────────────────┐
// │   Fixed Header  │ Variable Header │     Payload     │
// │   (2 bytes)     │   (10 bytes)    │   (variable)    │
// └─────────────────┴─────────────────┴─────────────────┘
//
// Variable header: protocol name "MQTT", protocol level 4, connect flags,
// keep alive. Payload, in this order: client identifier, will topic and will
// message if the will flag is set, user name if set, password if set.
type CONNECT struct {
	*FixedHeader

	// ConnectFlags 连接标志
	// 参考章节 3.1.2.2 Connect Flags
	// bit 7: User Name Flag, bit 6: Password Flag, bit 5: Will Retain,
	// bits 4-3: Will QoS, bit 2: Will Flag, bit 1: Clean Session,
	// bit 0: Reserved, must be 0 [MQTT-3.1.2-3].
	ConnectFlags ConnectFlags

	// KeepAlive 保持连接时间间隔
	// 参考章节 3.1.2.10 Keep Alive
	// Seconds; 0 disables the keep alive mechanism.
	KeepAlive uint16

	// ClientID 客户端标识符
	// 参考章节 3.1.3.1 Client Identifier
	ClientID string `json:"ClientID,omitempty"`

	// WillTopic/WillPayload 遗嘱主题和载荷, present iff the Will Flag is set.
	// 参考章节 3.1.3.2 Will Topic, 3.1.3.3 Will Message
	WillTopic   string
	WillPayload []byte

	// WillQoS and WillRetain feed connect-flag bits 4-3 and 5 on Pack.
	// The Will QoS can be 0, 1 or 2; 3 is forbidden [MQTT-3.1.2-14].
	WillQoS    uint8
	WillRetain bool

	// CleanSession feeds connect-flag bit 1 on Pack.
	// 参考章节 3.1.2.4 Clean Session
	CleanSession bool

	// Username/Password, present iff their flags are set.
	// 参考章节 3.1.3.4 User Name, 3.1.3.5 Password
	Username string `json:"Username,omitempty"`
	Password string `json:"Password,omitempty"`
}

func (pkt *CONNECT) Kind() byte {
	return 0x1
}

func (pkt *CONNECT) String() string {
	return "[0x1]CONNECT"
}

// Pack serializes the CONNECT packet.
// 参考章节 3.1 CONNECT - Client requests a connection to a Server
//
// The remaining length is accumulated in a scratch buffer first so the fixed
// header can be written ahead of the variable header and payload.
func (pkt *CONNECT) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	// Protocol name and level.
	// 参考章节 3.1.2.1 Protocol Name, 3.1.2.2 Protocol Level
	buf.Write(NAME)
	buf.WriteByte(VERSION311)

	uf := s2i(pkt.Username) // User Name Flag - bit 7
	pf := s2i(pkt.Password) // Password Flag - bit 6
	wr := uint8(0)          // Will Retain - bit 5
	wq := uint8(0)          // Will QoS - bits 4-3
	wf := uint8(0)          // Will Flag - bit 2
	cs := uint8(0)          // Clean Session - bit 1

	if pkt.WillTopic != "" {
		wf = 1
		wq = pkt.WillQoS
		if wq > 2 { // 3 is reserved [MQTT-3.1.2-14]
			wq = 2
		}
		if pkt.WillRetain {
			wr = 1
		}
	}
	if pkt.CleanSession {
		cs = 1
	}

	flags := uf<<7 | pf<<6 | wr<<5 | wq<<3 | wf<<2 | cs<<1
	pkt.ConnectFlags = ConnectFlags(flags)
	buf.WriteByte(flags)

	// 参考章节 3.1.2.10 Keep Alive
	buf.Write(i2b(pkt.KeepAlive))

	// Payload. 参考章节 3.1.3 CONNECT Payload
	buf.Write(s2b(pkt.ClientID))
	if wf == 1 {
		buf.Write(s2b(pkt.WillTopic))
		buf.Write(s2b(pkt.WillPayload))
	}
	if uf == 1 {
		buf.Write(s2b(pkt.Username))
	}
	if pf == 1 {
		buf.Write(s2b(pkt.Password))
	}

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *CONNECT) Unpack(buf *bytes.Buffer) error {
	// 参考章节 3.1.2.1 Protocol Name
	name := buf.Next(6)
	if !bytes.Equal(name, NAME) {
		return fmt.Errorf("%w: Len=%d, %v", ErrMalformedProtocolName, pkt.RemainingLength, name)
	}

	if level := buf.Next(1); len(level) != 1 || level[0] != VERSION311 {
		return ErrMalformedProtocolVersion
	}
	pkt.ConnectFlags = ConnectFlags(buf.Next(1)[0])

	// The Server MUST validate that the reserved flag is set to zero and
	// disconnect the Client if it is not zero [MQTT-3.1.2-3].
	if pkt.ConnectFlags.Reserved() != 0 {
		return ErrMalformedPacket
	}
	if pkt.ConnectFlags.WillQoS() > 2 {
		return ErrProtocolViolationQosOutOfRange
	}
	// If the Will Flag is set to 0, Will QoS and Will Retain MUST be 0
	// [MQTT-3.1.2-11] [MQTT-3.1.2-15].
	if !pkt.ConnectFlags.WillFlag() {
		if pkt.ConnectFlags.WillRetain() || pkt.ConnectFlags.WillQoS() != 0 {
			return ErrProtocolViolation
		}
	}

	pkt.KeepAlive = binary.BigEndian.Uint16(buf.Next(2))
	pkt.CleanSession = pkt.ConnectFlags.CleanSession()

	pkt.ClientID = decodeUTF8[string](buf)

	if pkt.ConnectFlags.WillFlag() {
		pkt.WillTopic = decodeUTF8[string](buf)
		pkt.WillPayload = decodeUTF8[[]byte](buf)
		pkt.WillQoS = pkt.ConnectFlags.WillQoS()
		pkt.WillRetain = pkt.ConnectFlags.WillRetain()
		if pkt.WillTopic == "" {
			return ErrProtocolViolation
		}
	}

	if pkt.ConnectFlags.UserNameFlag() {
		pkt.Username = decodeUTF8[string](buf)
	} else if pkt.ConnectFlags.PasswordFlag() {
		// If the User Name Flag is set to 0, the Password Flag MUST be set
		// to 0 [MQTT-3.1.2-22].
		return ErrProtocolViolation
	}
	if pkt.ConnectFlags.PasswordFlag() {
		pkt.Password = decodeUTF8[string](buf)
	}
	return nil
}

// ConnectFlags 连接标志
// 参考章节 3.1.2.2 Connect Flags
//
// ┌─────┬─────┬─────┬─────┬─────┬─────┬─────┬─────┐
// │ bit7│ bit6│ bit5│ bit4│ bit3│ bit2│ bit1│ bit0│
// │User │Pass │Will │Will │Will │Will │Clean│Resv │
// │Name │word │Ret  │QoS  │QoS  │Flag │Sess │     │
// └─────┴─────┴─────┴─────┴─────┴─────┴─────┴─────┘
type ConnectFlags uint8

// Reserved 保留位, bit 0. Must be 0 [MQTT-3.1.2-3].
func (f ConnectFlags) Reserved() uint8 {
	return uint8(f) & 0x01
}

// CleanSession 清理会话标志, bit 1.
func (f ConnectFlags) CleanSession() bool {
	return (uint8(f) & 0x02) == 0x02
}

// WillFlag 遗嘱标志, bit 2.
func (f ConnectFlags) WillFlag() bool {
	return (uint8(f) & 0x04) == 0x04
}

// WillQoS 遗嘱QoS等级, bits 4-3.
func (f ConnectFlags) WillQoS() uint8 {
	return (uint8(f) & 0x18) >> 3
}

// WillRetain 遗嘱保留标志, bit 5.
func (f ConnectFlags) WillRetain() bool {
	return (uint8(f) & 0x20) == 0x20
}

// PasswordFlag 密码标志, bit 6.
func (f ConnectFlags) PasswordFlag() bool {
	return (uint8(f) & 0x40) == 0x40
}

// UserNameFlag 用户名标志, bit 7.
func (f ConnectFlags) UserNameFlag() bool {
	return (uint8(f) & 0x80) == 0x80
}
