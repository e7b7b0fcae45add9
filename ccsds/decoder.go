/*
NAME
  decoder.go

DESCRIPTION
  decoder.go chains derandomization, interleaved Reed-Solomon correction
  and VCDU parsing into a single io.Writer stage that accepts one locked
  CADU per Write call (as produced by Framer) and forwards parsed VCDUs,
  or drop notifications, to an Assembler.

LICENSE
  Provided as-is for the meteorcore project.
*/

package ccsds

import (
	"fmt"

	"github.com/ausocean/utils/logging"
	"github.com/skywave-sdr/meteorcore/codec/rs"
)

// VCDUAssembler is the subset of Assembler's API this stage depends on, so
// it can be swapped out in tests.
type VCDUAssembler interface {
	WriteVCDU(v VCDU, ok bool) error
}

// FrameDecoder turns locked CADUs into corrected, parsed VCDUs. One
// FrameDecoder instance is not safe for concurrent use.
type FrameDecoder struct {
	dst VCDUAssembler
	rs  *rs.Decoder
	log logging.Logger

	corrected, dropped uint64

	derandBuf []byte
}

// NewFrameDecoder returns a FrameDecoder forwarding to dst.
func NewFrameDecoder(dst VCDUAssembler, log logging.Logger) *FrameDecoder {
	return &FrameDecoder{
		dst:       dst,
		rs:        rs.NewDecoder(),
		log:       log,
		derandBuf: make([]byte, rs.Lanes*rs.N),
	}
}

// Corrected returns the number of CADUs that decoded cleanly.
func (d *FrameDecoder) Corrected() uint64 { return d.corrected }

// Dropped returns the number of CADUs whose RS correction failed.
func (d *FrameDecoder) Dropped() uint64 { return d.dropped }

// Write accepts exactly one locked CADU (ASM included) per call.
func (d *FrameDecoder) Write(frame []byte) (int, error) {
	if len(frame) < 4+rs.Lanes*rs.N {
		return 0, fmt.Errorf("ccsds: frame too short for a CADU: %d bytes", len(frame))
	}

	payload := frame[4 : 4+rs.Lanes*rs.N]
	Derandomize(d.derandBuf, payload)

	decoded, err := d.rs.DecodeInterleaved4(d.derandBuf)
	if err != nil {
		d.dropped++
		if d.log != nil {
			d.log.Warning("ccsds: dropping uncorrectable CADU", "error", err)
		}
		if werr := d.dst.WriteVCDU(VCDU{}, false); werr != nil {
			return len(frame), fmt.Errorf("ccsds: notifying assembler of drop: %w", werr)
		}
		return len(frame), nil
	}

	v, err := ParseVCDU(decoded)
	if err != nil {
		return len(frame), fmt.Errorf("ccsds: parsing corrected VCDU: %w", err)
	}

	d.corrected++
	if err := d.dst.WriteVCDU(v, true); err != nil {
		return len(frame), fmt.Errorf("ccsds: forwarding VCDU: %w", err)
	}
	return len(frame), nil
}
