/*
NAME
  msumr.go

DESCRIPTION
  msumr.go reassembles MSU-MR scan lines for one imagery APID. Each
  incoming space packet carries a segment decoding to an 8x112 strip;
  strips are blitted into an in-progress set of eight 1568-wide rows
  which are emitted when the line completes, or flushed early when a new
  line begins before the previous one finished.

LICENSE
  Provided as-is for the meteorcore project.
*/

// Package msumr decodes Meteor-M2 MSU-MR image segments: a JPEG-like
// entropy/IDCT decode of fourteen 8x8 blocks per segment, and per-APID
// reassembly of segments into full-width greyscale scan lines.
package msumr

import (
	"github.com/ausocean/utils/logging"

	"github.com/skywave-sdr/meteorcore/ccsds"
)

// RowSink receives completed image rows. A row slice is only valid for
// the duration of the call; implementations retaining it must copy.
type RowSink interface {
	WriteRow(apid int, row []byte) error
}

// Decoder decodes MSU-MR segments for a single imagery APID and emits
// completed scan-line rows to dst. One Decoder instance is not safe for
// concurrent use.
type Decoder struct {
	apid int
	dst  RowSink
	log  logging.Logger

	// current is the in-progress line: BlockHeight rows of ImageWidth
	// samples, or nil between lines. Unwritten regions stay zero.
	current [][]byte

	segments, dropped uint64
}

// NewDecoder returns a Decoder reassembling rows for apid.
func NewDecoder(apid int, dst RowSink, log logging.Logger) *Decoder {
	return &Decoder{apid: apid, dst: dst, log: log}
}

// APID returns the imagery APID this Decoder reassembles.
func (d *Decoder) APID() int { return d.apid }

// Segments returns the number of segments decoded cleanly so far.
func (d *Decoder) Segments() uint64 { return d.segments }

// Dropped returns the number of segments rejected (short header, bad
// entropy stream or out-of-range MCUN).
func (d *Decoder) Dropped() uint64 { return d.dropped }

// WritePacket implements ccsds.PacketSink. Malformed segments are
// dropped and counted; the in-progress line is retained so a later
// segment of the same line can still land.
func (d *Decoder) WritePacket(p ccsds.Packet) error {
	seg, err := ParseSegment(p.Payload)
	if err != nil {
		d.dropped++
		if d.log != nil {
			d.log.Debug("msumr: dropping malformed segment", "apid", d.apid, "error", err)
		}
		return nil
	}

	idx := seg.MCUN / BlocksPerLine
	if idx >= BlocksPerLine {
		d.dropped++
		if d.log != nil {
			d.log.Debug("msumr: dropping segment with out-of-range MCUN", "apid", d.apid, "mcun", seg.MCUN)
		}
		return nil
	}

	strip, err := decodeBlocks(seg.Payload, seg.QF)
	if err != nil {
		d.dropped++
		if d.log != nil {
			d.log.Debug("msumr: dropping undecodable segment", "apid", d.apid, "mcun", seg.MCUN, "error", err)
		}
		return nil
	}
	d.segments++

	// A segment starting a new line while the previous one is still
	// open means the tail of that line was lost; flush what arrived.
	if idx == 0 && d.current != nil {
		if err := d.emitCurrent(); err != nil {
			return err
		}
	}

	if d.current == nil {
		d.current = make([][]byte, BlockHeight)
		for i := range d.current {
			d.current[i] = make([]byte, ImageWidth)
		}
	}

	x0 := idx * BlockWidth
	for row := 0; row < BlockHeight; row++ {
		copy(d.current[row][x0:x0+BlockWidth], strip[row])
	}

	if idx == BlocksPerLine-1 {
		return d.emitCurrent()
	}
	return nil
}

// Flush emits any in-progress partial line. Call at end of input so a
// pass's final incomplete line is not silently discarded.
func (d *Decoder) Flush() error {
	if d.current == nil {
		return nil
	}
	return d.emitCurrent()
}

func (d *Decoder) emitCurrent() error {
	for _, row := range d.current {
		if err := d.dst.WriteRow(d.apid, row); err != nil {
			return err
		}
	}
	d.current = nil
	return nil
}
