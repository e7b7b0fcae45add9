/*
DESCRIPTION
  segment_test.go checks MSU-MR segment header field extraction.

LICENSE
  Provided as-is for the meteorcore project.
*/

package msumr

import (
	"testing"
	"time"
)

func TestParseSegment(t *testing.T) {
	data := []byte{
		0x00, 0x01, // One day past the Meteor epoch.
		0x00, 0x00, 0x00, 0x02, // 2 ms of day.
		0x00, 0x03, // 3 us of ms.
		0x46,       // MCUN 70.
		0x01,       // QT.
		0x25,       // DC 2, AC 5.
		0x12, 0x34, // QFM.
		0x50,             // QF 80.
		0xde, 0xad, 0xbe, // Entropy payload.
	}

	seg, err := ParseSegment(data)
	if err != nil {
		t.Fatalf("ParseSegment: %v", err)
	}

	wantTime := time.Date(2001, 1, 1, 0, 0, 0, 2003000, time.UTC)
	if !seg.Timestamp.Equal(wantTime) {
		t.Errorf("Timestamp = %v, want %v", seg.Timestamp, wantTime)
	}
	if seg.MCUN != 70 {
		t.Errorf("MCUN = %d, want 70", seg.MCUN)
	}
	if seg.QT != 1 {
		t.Errorf("QT = %d, want 1", seg.QT)
	}
	if seg.DC != 2 || seg.AC != 5 {
		t.Errorf("DC/AC = %d/%d, want 2/5", seg.DC, seg.AC)
	}
	if seg.QFM != 0x1234 {
		t.Errorf("QFM = %#x, want 0x1234", seg.QFM)
	}
	if seg.QF != 80 {
		t.Errorf("QF = %v, want 80", seg.QF)
	}
	if string(seg.Payload) != "\xde\xad\xbe" {
		t.Errorf("Payload = % x, want de ad be", seg.Payload)
	}
}

func TestParseSegmentShort(t *testing.T) {
	if _, err := ParseSegment(make([]byte, SegmentHeaderLen-1)); err == nil {
		t.Fatal("expected an error for a short segment")
	}
}
