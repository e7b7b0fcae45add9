/*
DESCRIPTION
  pipeline_test.go drives the assembled pipeline end to end: synthetic
  VCDUs are Reed-Solomon encoded, randomized, framed behind an ASM and
  serialized to hard bits, then fed through Write and observed at the
  packet tap and row sink.

LICENSE
  Provided as-is for the meteorcore project.
*/

package pipeline

import (
	"bytes"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/skywave-sdr/meteorcore/ccsds"
	"github.com/skywave-sdr/meteorcore/codec/msumr"
	"github.com/skywave-sdr/meteorcore/codec/rs"
	"github.com/skywave-sdr/meteorcore/config"
	"github.com/skywave-sdr/meteorcore/internal/testlog"
)

// rowCollector records emitted rows per APID.
type rowCollector struct {
	rows map[int][][]byte
}

func newRowCollector() *rowCollector { return &rowCollector{rows: make(map[int][][]byte)} }

func (c *rowCollector) WriteRow(apid int, row []byte) error {
	cp := make([]byte, len(row))
	copy(cp, row)
	c.rows[apid] = append(c.rows[apid], cp)
	return nil
}

// buildVCDU lays one space packet at offset 0 of an otherwise zero M_PDU.
// fhp is written to the VCDU's first-header-pointer field.
func buildVCDU(t *testing.T, fhp int, packet []byte) []byte {
	t.Helper()
	v := make([]byte, ccsds.VCDULen)
	v[8] = byte(fhp >> 8 & 0x07)
	v[9] = byte(fhp)
	if len(packet) > len(v)-10 {
		t.Fatalf("packet of %d bytes does not fit in one M_PDU", len(packet))
	}
	copy(v[10:], packet)
	return v
}

// caduBits RS-encodes a VCDU, randomizes it, frames it behind the ASM and
// returns the whole CADU as hard bits, one per byte, optionally inverted.
func caduBits(t *testing.T, vcdu []byte, invert bool) []byte {
	t.Helper()

	coded, err := rs.NewEncoder().EncodeInterleaved4(vcdu)
	if err != nil {
		t.Fatalf("EncodeInterleaved4: %v", err)
	}

	wire := make([]byte, len(coded))
	ccsds.Derandomize(wire, coded) // XOR involution: randomizing is the same operation.

	frame := []byte{byte(ccsds.ASM >> 24), byte((ccsds.ASM >> 16) & 0xff), byte((ccsds.ASM >> 8) & 0xff), byte(ccsds.ASM & 0xff)}
	frame = append(frame, wire...)

	bits := make([]byte, 0, 8*len(frame))
	for _, b := range frame {
		for i := 7; i >= 0; i-- {
			bit := b >> i & 1
			if invert {
				bit ^= 1
			}
			bits = append(bits, bit)
		}
	}
	return bits
}

// spacePacket serializes a packet with the given APID and payload.
func spacePacket(apid int, payload []byte) []byte {
	pkt := []byte{
		byte(apid >> 8 & 0x07), byte(apid),
		0xc0, 0x00,
		byte((len(payload) - 1) >> 8), byte(len(payload) - 1),
	}
	return append(pkt, payload...)
}

// appendBits writes the low length bits of code, MSB first.
func appendBits(data []byte, n *int, code, length int) []byte {
	for i := length - 1; i >= 0; i-- {
		if *n%8 == 0 {
			data = append(data, 0)
		}
		bit := byte(code>>i) & 1
		data[*n/8] |= bit << (7 - *n%8)
		*n++
	}
	return data
}

// segmentPacket builds an MSU-MR segment packet whose 14 blocks all
// decode to the constant sample 136 (DC 4 at QF 50).
func segmentPacket(apid, mcun int) []byte {
	seg := make([]byte, msumr.SegmentHeaderLen)
	seg[8] = byte(mcun)
	seg[13] = 50 // QF.

	var entropy []byte
	n := 0
	entropy = appendBits(entropy, &n, 0b100, 3) // DC category 3.
	entropy = appendBits(entropy, &n, 0b100, 3) // Value +4.
	entropy = appendBits(entropy, &n, 0b1010, 4)
	for m := 1; m < msumr.BlocksPerLine; m++ {
		entropy = appendBits(entropy, &n, 0b00, 2)
		entropy = appendBits(entropy, &n, 0b1010, 4)
	}
	return spacePacket(apid, append(seg, entropy...))
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Logger:      testlog.New(t),
		LogLevel:    logging.Debug,
		TargetAPIDs: []int{64},
	}
}

func TestPipelinePacketExtraction(t *testing.T) {
	var tapped []ccsds.Packet
	p, err := New(testConfig(t), newRowCollector(), WithPacketTap(func(pkt ccsds.Packet) {
		if pkt.Header.APID == 100 {
			tapped = append(tapped, pkt)
		}
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	payload := []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee}
	vcdu := buildVCDU(t, 0, spacePacket(100, payload))

	// A little pre-ASM noise so the framer really searches.
	bits := append(make([]byte, 11), caduBits(t, vcdu, false)...)
	if _, err := p.Write(bits); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if len(tapped) != 1 {
		t.Fatalf("tapped %d packets for APID 100, want 1", len(tapped))
	}
	if !bytes.Equal(tapped[0].Payload, payload) {
		t.Fatalf("packet payload = % x, want % x", tapped[0].Payload, payload)
	}

	s := p.Stats()
	if s.CADULocks != 1 || s.FramesCorrected != 1 || s.FramesDropped != 0 {
		t.Fatalf("stats = %+v, want 1 lock, 1 corrected, 0 dropped", s)
	}
}

func TestPipelineInvertedChannel(t *testing.T) {
	var tapped []ccsds.Packet
	p, err := New(testConfig(t), newRowCollector(), WithPacketTap(func(pkt ccsds.Packet) {
		if pkt.Header.APID == 100 {
			tapped = append(tapped, pkt)
		}
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	payload := []byte{1, 2, 3, 4, 5}
	vcdu := buildVCDU(t, 0, spacePacket(100, payload))
	if _, err := p.Write(caduBits(t, vcdu, true)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if len(tapped) != 1 || !bytes.Equal(tapped[0].Payload, payload) {
		t.Fatalf("inverted channel did not yield the canonical packet")
	}
}

func TestPipelineDropsUncorrectableFrame(t *testing.T) {
	var tapped int
	p, err := New(testConfig(t), newRowCollector(), WithPacketTap(func(ccsds.Packet) { tapped++ }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	vcdu := buildVCDU(t, 0, spacePacket(100, []byte{1, 2, 3}))
	bits := caduBits(t, vcdu, false)
	// Trash the coded payload well past RS's correction capability,
	// leaving the ASM intact.
	for i := 32; i < len(bits); i += 3 {
		bits[i] ^= 1
	}
	if _, err := p.Write(bits); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if tapped != 0 {
		t.Fatalf("tapped %d packets from an uncorrectable frame, want 0", tapped)
	}
	s := p.Stats()
	if s.CADULocks != 1 || s.FramesDropped != 1 {
		t.Fatalf("stats = %+v, want 1 lock and 1 dropped frame", s)
	}
}

func TestPipelineIdleMPDU(t *testing.T) {
	var tapped int
	p, err := New(testConfig(t), newRowCollector(), WithPacketTap(func(ccsds.Packet) { tapped++ }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	vcdu := buildVCDU(t, ccsds.NoFirstHeader, nil)
	if _, err := p.Write(caduBits(t, vcdu, false)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if tapped != 0 {
		t.Fatalf("idle M_PDU yielded %d packets, want 0", tapped)
	}
	if s := p.Stats(); s.FramesCorrected != 1 {
		t.Fatalf("stats = %+v, want 1 corrected frame", s)
	}
}

func TestPipelineImageLine(t *testing.T) {
	rows := newRowCollector()
	p, err := New(testConfig(t), rows)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	for idx := 0; idx < msumr.BlocksPerLine; idx++ {
		vcdu := buildVCDU(t, 0, segmentPacket(64, idx*msumr.BlocksPerLine))
		if _, err := p.Write(caduBits(t, vcdu, false)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	got := rows.rows[64]
	if len(got) != msumr.BlockHeight {
		t.Fatalf("got %d rows, want %d", len(got), msumr.BlockHeight)
	}
	want := bytes.Repeat([]byte{136}, msumr.ImageWidth)
	for i, row := range got {
		if !bytes.Equal(row, want) {
			t.Fatalf("row %d is not the constant 136 line", i)
		}
	}

	s := p.Stats()
	if s.SegmentsDecoded != uint64(msumr.BlocksPerLine) {
		t.Fatalf("stats = %+v, want %d decoded segments", s, msumr.BlocksPerLine)
	}
}

func TestPipelineCADUTee(t *testing.T) {
	var tee bytes.Buffer
	p, err := New(testConfig(t), newRowCollector(), WithCADUTee(nopCloser{&tee}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	vcdu := buildVCDU(t, ccsds.NoFirstHeader, nil)
	if _, err := p.Write(caduBits(t, vcdu, false)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if tee.Len() != config.CADU1024 {
		t.Fatalf("tee captured %d bytes, want %d", tee.Len(), config.CADU1024)
	}
	if got := tee.Bytes()[:4]; !bytes.Equal(got, []byte{0x1a, 0xcf, 0xfc, 0x1d}) {
		t.Fatalf("teed frame does not start with the ASM: % x", got)
	}
}
