package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// SUBACK 订阅确认报文
//
// 参考章节 3.9 SUBACK - Subscribe acknowledgement
//
// Variable header: the packet identifier of the SUBSCRIBE being acknowledged.
// Payload: one return code per requested topic filter, in the same order
// [MQTT-3.9.3-1]. 0x00-0x02 grant that QoS, 0x80 signals failure.
type SUBACK struct {
	*FixedHeader

	PacketID uint16

	// ReturnCodes 返回码列表
	// 参考章节 3.9.3 SUBACK Payload
	ReturnCodes []byte
}

func (pkt *SUBACK) Kind() byte {
	return 0x9
}

func (pkt *SUBACK) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(i2b(pkt.PacketID))
	buf.Write(pkt.ReturnCodes)

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *SUBACK) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 3 {
		return ErrMalformedPacket
	}
	pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))
	pkt.ReturnCodes = append([]byte{}, buf.Bytes()...)
	return nil
}
