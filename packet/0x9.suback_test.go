package packet

import (
	"bytes"
	"testing"
)

// 参考MQTT v3.1.1章节 3.9 SUBACK
func TestSUBACK_RoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		codes []byte
	}{
		{"Granted0", []byte{0x00}},
		{"Granted2", []byte{0x02}},
		{"Failure", []byte{0x80}},
		{"Mixed", []byte{0x00, 0x01, 0x80}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pkt := &SUBACK{FixedHeader: &FixedHeader{Kind: 0x9}, PacketID: 3, ReturnCodes: tc.codes}
			var buf bytes.Buffer
			if err := pkt.Pack(&buf); err != nil {
				t.Fatalf("Pack() failed: %v", err)
			}
			decoded, err := Unpack(&buf)
			if err != nil {
				t.Fatalf("Unpack() failed: %v", err)
			}
			got := decoded.(*SUBACK)
			if got.PacketID != 3 {
				t.Errorf("packet id = %d, want 3", got.PacketID)
			}
			if !bytes.Equal(got.ReturnCodes, tc.codes) {
				t.Errorf("return codes = % X, want % X", got.ReturnCodes, tc.codes)
			}
		})
	}
}

func TestSUBACK_Golden(t *testing.T) {
	data := []byte{0x90, 0x03, 0x00, 0x0A, 0x01}
	decoded, err := Unpack(bytes.NewBuffer(data))
	if err != nil {
		t.Fatalf("Unpack() failed: %v", err)
	}
	got := decoded.(*SUBACK)
	if got.PacketID != 10 || len(got.ReturnCodes) != 1 || got.ReturnCodes[0] != 0x01 {
		t.Errorf("Unpack() = %+v", got)
	}
}
