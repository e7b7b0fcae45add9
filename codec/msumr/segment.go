/*
NAME
  segment.go

DESCRIPTION
  segment.go parses the 14-byte MSU-MR segment header carried in the
  payload of every imagery space packet: an 8-byte day-segmented
  timestamp followed by the minimum-coded-unit number, table selectors
  and the quality factor driving dequantization.

LICENSE
  Provided as-is for the meteorcore project.
*/

package msumr

import (
	"fmt"
	"time"

	"github.com/skywave-sdr/meteorcore/ccsds"
)

// SegmentHeaderLen is the fixed MSU-MR segment header length in bytes.
const SegmentHeaderLen = 14

// Segment is a parsed MSU-MR image segment: one header plus the
// entropy-coded payload for fourteen 8x8 blocks.
type Segment struct {
	Timestamp time.Time

	// MCUN is the minimum-coded-unit number of this segment within its
	// scan line; always a multiple of 14 on a clean downlink.
	MCUN int

	// QT, DC and AC select quantization and Huffman tables. The MSU-MR
	// downlink only ever uses the baseline tables, so these are carried
	// for observability rather than acted on.
	QT, DC, AC int

	// QFM is the quality factor marker.
	QFM int

	// QF is the quality factor scaling the quantization table, in [0,100].
	QF float64

	// Payload is the entropy-coded bit stream, MSB-first within bytes.
	Payload []byte
}

// ParseSegment reads a segment from a space packet payload.
func ParseSegment(data []byte) (Segment, error) {
	if len(data) < SegmentHeaderLen {
		return Segment{}, fmt.Errorf("msumr: need %d bytes for segment header, got %d", SegmentHeaderLen, len(data))
	}

	ts, err := ccsds.ParseTime(data)
	if err != nil {
		return Segment{}, fmt.Errorf("msumr: parsing segment timestamp: %w", err)
	}

	return Segment{
		Timestamp: ts,
		MCUN:      int(data[8]),
		QT:        int(data[9]),
		DC:        int(data[10] >> 4),
		AC:        int(data[10] & 0x0f),
		QFM:       int(data[11])<<8 | int(data[12]),
		QF:        float64(data[13]),
		Payload:   data[SegmentHeaderLen:],
	}, nil
}
