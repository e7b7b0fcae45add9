/*
NAME
  packet.go

DESCRIPTION
  packet.go parses CCSDS space packet primary headers and reassembles
  packets split across consecutive M_PDUs, mirroring
  original_source/find_cadu_frames.py's extract_ccsds_packets state
  machine field-for-field.

LICENSE
  Provided as-is for the meteorcore project.
*/

package ccsds

import "fmt"

// HeaderLen is the CCSDS space packet primary header length in bytes.
const HeaderLen = 6

// Header is a CCSDS space packet primary header.
type Header struct {
	Version               int
	Type                  bool
	SecondaryHeaderFlag   bool
	APID                  int
	SequenceFlag          int
	PacketSequenceCount   int
	PacketLength          int // Decoded length of Payload, i.e. raw field + 1.
}

// ParseHeader reads a primary header from the front of data, returning the
// header and the remaining bytes after it.
func ParseHeader(data []byte) (Header, []byte, error) {
	if len(data) < HeaderLen {
		return Header{}, nil, fmt.Errorf("ccsds: need %d bytes for packet header, got %d", HeaderLen, len(data))
	}

	h := Header{
		Version:             int(data[0] >> 5),
		Type:                (data[0]>>4)&0x01 == 1,
		SecondaryHeaderFlag: (data[0]>>3)&0x01 == 1,
		APID:                (int(data[0]&0x07) << 8) | int(data[1]),
		SequenceFlag:        int(data[2] >> 6),
		PacketSequenceCount: (int(data[2]&0x3f) << 8) | int(data[3]),
		PacketLength:        (int(data[4])<<8 | int(data[5])) + 1,
	}
	return h, data[HeaderLen:], nil
}

// Packet is a fully reassembled CCSDS space packet.
type Packet struct {
	Header  Header
	Payload []byte
}

// PacketSink receives reassembled space packets.
type PacketSink interface {
	WritePacket(Packet) error
}

// Assembler reassembles CCSDS space packets from a sequence of M_PDUs,
// using each M_PDU's first-header-pointer to find packet boundaries. Feed
// it VCDUs in arrival order via WriteVCDU; a call with ok false (signalling
// a frame the caller failed to lock or correct) discards any in-progress partial,
// matching extract_ccsds_packets's behaviour on a yielded None.
type Assembler struct {
	dst     PacketSink
	pending []byte // Bytes carried over from a previous M_PDU, header not yet resolved.
}

// NewAssembler returns an Assembler forwarding completed packets to dst.
func NewAssembler(dst PacketSink) *Assembler {
	return &Assembler{dst: dst}
}

// WriteVCDU feeds one VCDU's M_PDU payload through the reassembler. ok
// must be false to signal a dropped/uncorrectable frame instead of a
// valid VCDU.
func (a *Assembler) WriteVCDU(v VCDU, ok bool) error {
	if !ok {
		a.pending = nil
		return nil
	}

	payload := v.MPDU.Payload
	if v.MPDU.FirstHeaderPointer == NoFirstHeader {
		// No header starts here: the whole payload continues the pending
		// packet, if there is one.
		if a.pending != nil {
			a.pending = appendPending(a.pending, payload)
		}
		return nil
	}
	if v.MPDU.FirstHeaderPointer > len(payload) {
		// A pointer past the end of the payload cannot be followed; drop
		// the unit and any carry-over.
		a.pending = nil
		return nil
	}
	if a.pending != nil {
		joined := append(a.pending, payload[:v.MPDU.FirstHeaderPointer]...)
		if err := a.emitIfComplete(joined); err != nil {
			return err
		}
		a.pending = nil
	}
	payload = payload[v.MPDU.FirstHeaderPointer:]

	for len(payload) >= HeaderLen {
		h, rest, err := ParseHeader(payload)
		if err != nil {
			return err
		}
		if len(rest) < h.PacketLength {
			a.pending = appendPending(a.pending, payload)
			return nil
		}
		if err := a.dst.WritePacket(Packet{Header: h, Payload: rest[:h.PacketLength]}); err != nil {
			return err
		}
		payload = rest[h.PacketLength:]
	}

	if len(payload) > 0 {
		a.pending = appendPending(nil, payload)
	}
	return nil
}

// emitIfComplete parses a header out of joined and, if joined holds enough
// bytes for the packet it describes, emits it. Too-short or malformed
// joins are silently dropped, matching the reference implementation's
// unconditional reset of its carry-over buffer after a join attempt.
func (a *Assembler) emitIfComplete(joined []byte) error {
	if len(joined) < HeaderLen {
		return nil
	}
	h, rest, err := ParseHeader(joined)
	if err != nil {
		return nil
	}
	if len(rest) < h.PacketLength {
		return nil
	}
	return a.dst.WritePacket(Packet{Header: h, Payload: rest[:h.PacketLength]})
}

func appendPending(dst, src []byte) []byte {
	out := make([]byte, 0, len(dst)+len(src))
	out = append(out, dst...)
	out = append(out, src...)
	return out
}
