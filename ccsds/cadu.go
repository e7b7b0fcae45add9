/*
NAME
  cadu.go

DESCRIPTION
  cadu.go implements the CADU synchronizer: a rolling 32-bit shift register
  search for the CCSDS attached sync marker (ASM), automatic bit-inversion
  recovery, and frame extraction once locked.

LICENSE
  Provided as-is for the meteorcore project.
*/

package ccsds

import (
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
)

// ASM is the CCSDS attached sync marker value searched for at the start of
// every CADU.
const ASM uint32 = 0x1acffc1d

// asmInverted is the bit-inverted ASM, matched when the channel delivers an
// inverted bitstream (BPSK 180-degree ambiguity).
const asmInverted uint32 = ASM ^ 0xffffffff

// Framer locks onto CADU boundaries in a hard-bit stream and forwards one
// complete frame (ASM included) per lock to dst. It is driven one bit at a
// time via Write, where each input byte holds a single bit (0 or 1) in its
// low-order position — the shape bitstream.Writer produces.
type Framer struct {
	dst    io.Writer
	log    logging.Logger
	length int // Total CADU length in bytes, ASM included.

	shifter  uint32
	inFrame  bool
	inverted byte // 0 or 1; XORed into every in-frame bit once locked.
	bitPos   int  // Bit offset into frame.

	frame []byte

	locks, drops uint64
}

// NewFramer returns a Framer that emits length-byte CADUs to dst. length
// must be the full CADU length including the 4-byte ASM (1024 for
// Meteor-M2 LRPT); it is never inferred from input, matching the §4.1
// protocol's fixed frame length assumption.
func NewFramer(length int, dst io.Writer, log logging.Logger) *Framer {
	return &Framer{
		dst:    dst,
		log:    log,
		length: length,
		frame:  make([]byte, length),
	}
}

// Locks returns the number of CADUs successfully framed so far.
func (f *Framer) Locks() uint64 { return f.locks }

func (f *Framer) resetFrame() {
	f.frame[0] = byte(ASM >> 24)
	f.frame[1] = byte((ASM >> 16) & 0xff)
	f.frame[2] = byte((ASM >> 8) & 0xff)
	f.frame[3] = byte(ASM & 0xff)
	f.bitPos = 32
}

func (f *Framer) writeBit(b byte) {
	i := f.bitPos / 8
	f.frame[i] = (f.frame[i] << 1) | (b & 1)
	f.bitPos++
}

// Write accepts a buffer of hard bits (one per byte, value 0 or 1) and
// drives the ASM search / in-frame accumulation state machine. Every byte
// of p must be 0 or 1.
func (f *Framer) Write(p []byte) (int, error) {
	frameSizeBits := f.length * 8

	for i, b := range p {
		bit := b & 1
		f.shifter = (f.shifter << 1) | uint32(bit)

		if f.inFrame {
			f.writeBit(bit ^ f.inverted)
			if f.bitPos == frameSizeBits {
				f.locks++
				if _, err := f.dst.Write(f.frame); err != nil {
					return i, fmt.Errorf("ccsds: framer: forwarding locked CADU: %w", err)
				}
				f.inFrame = false
			}
			continue
		}

		switch f.shifter {
		case ASM:
			f.inverted = 0
			f.resetFrame()
			f.inFrame = true
		case asmInverted:
			f.inverted = 1
			f.resetFrame()
			f.inFrame = true
		}
	}
	return len(p), nil
}
