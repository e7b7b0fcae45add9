/*
DESCRIPTION
  packet_test.go exercises the space-packet assembler against the
  reference scenarios: a self-contained packet, a packet split across two
  M_PDUs, an idle M_PDU, and a dropped VCDU resetting in-progress state.

LICENSE
  Provided as-is for the meteorcore project.
*/

package ccsds

import "testing"

type collectingSink struct {
	packets []Packet
}

func (s *collectingSink) WritePacket(p Packet) error {
	s.packets = append(s.packets, p)
	return nil
}

func TestAssemblerSinglePacket(t *testing.T) {
	sink := &collectingSink{}
	a := NewAssembler(sink)

	payload := []byte{0x07, 0xff, 0xc0, 0x00, 0x00, 0x04, 'A', 'B', 'C', 'D', 'E'}
	err := a.WriteVCDU(VCDU{MPDU: MPDU{FirstHeaderPointer: 0, Payload: payload}}, true)
	if err != nil {
		t.Fatalf("WriteVCDU: %v", err)
	}

	if len(sink.packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(sink.packets))
	}
	p := sink.packets[0]
	if p.Header.APID != 0x7ff {
		t.Errorf("APID = %#x, want 0x7ff", p.Header.APID)
	}
	if string(p.Payload) != "ABCDE" {
		t.Errorf("Payload = %q, want %q", p.Payload, "ABCDE")
	}
	if HeaderLen+len(p.Payload) != 11 {
		t.Errorf("total packet size = %d, want 11", HeaderLen+len(p.Payload))
	}
}

func TestAssemblerCrossMPDUPacket(t *testing.T) {
	sink := &collectingSink{}
	a := NewAssembler(sink)

	// length_raw = 999 -> packet_length = 1000.
	header := []byte{0x18, 0x40, 0xc0, 0x00, 0x03, 0xe7}
	firstHalf := make([]byte, 500)
	for i := range firstHalf {
		firstHalf[i] = byte(i)
	}
	mpdu1 := append(append([]byte{}, header...), firstHalf...)

	if err := a.WriteVCDU(VCDU{MPDU: MPDU{FirstHeaderPointer: 0, Payload: mpdu1}}, true); err != nil {
		t.Fatalf("WriteVCDU(1): %v", err)
	}
	if len(sink.packets) != 0 {
		t.Fatalf("got %d packets after first MPDU, want 0", len(sink.packets))
	}

	secondHalf := make([]byte, 500)
	for i := range secondHalf {
		secondHalf[i] = byte(0x80 + i)
	}

	if err := a.WriteVCDU(VCDU{MPDU: MPDU{FirstHeaderPointer: 500, Payload: secondHalf}}, true); err != nil {
		t.Fatalf("WriteVCDU(2): %v", err)
	}

	if len(sink.packets) != 1 {
		t.Fatalf("got %d packets after second MPDU, want 1", len(sink.packets))
	}
	p := sink.packets[0]
	if len(p.Payload) != 1000 {
		t.Fatalf("payload length = %d, want 1000", len(p.Payload))
	}
	if HeaderLen+len(p.Payload) != 1006 {
		t.Fatalf("total packet size = %d, want 1006", HeaderLen+len(p.Payload))
	}
	if p.Payload[0] != 0 || p.Payload[499] != 499%256 || p.Payload[500] != 0x80 {
		t.Fatalf("joined payload content mismatch: %v .. %v", p.Payload[:2], p.Payload[498:502])
	}
}

func TestAssemblerIdleMPDUNoOutput(t *testing.T) {
	sink := &collectingSink{}
	a := NewAssembler(sink)

	err := a.WriteVCDU(VCDU{MPDU: MPDU{FirstHeaderPointer: NoFirstHeader, Payload: nil}}, true)
	if err != nil {
		t.Fatalf("WriteVCDU: %v", err)
	}
	if len(sink.packets) != 0 {
		t.Fatalf("got %d packets, want 0", len(sink.packets))
	}
}

func TestAssemblerDropResetsPartial(t *testing.T) {
	sink := &collectingSink{}
	a := NewAssembler(sink)

	header := []byte{0x18, 0x40, 0xc0, 0x00, 0x03, 0xe7} // packet_length = 1000.
	partial := make([]byte, 500)
	mpdu1 := append(append([]byte{}, header...), partial...)

	if err := a.WriteVCDU(VCDU{MPDU: MPDU{FirstHeaderPointer: 0, Payload: mpdu1}}, true); err != nil {
		t.Fatalf("WriteVCDU(1): %v", err)
	}

	// A dropped/uncorrectable VCDU must discard the partial rather than
	// let a later, unrelated join complete it.
	if err := a.WriteVCDU(VCDU{}, false); err != nil {
		t.Fatalf("WriteVCDU(drop): %v", err)
	}

	rest := make([]byte, 500)
	for i := range rest {
		rest[i] = byte(0x40 + i)
	}
	if err := a.WriteVCDU(VCDU{MPDU: MPDU{FirstHeaderPointer: 500, Payload: rest}}, true); err != nil {
		t.Fatalf("WriteVCDU(2): %v", err)
	}

	if len(sink.packets) != 0 {
		t.Fatalf("got %d packets after a drop severed the partial, want 0 (no corrupted packet)", len(sink.packets))
	}
}
