/*
DESCRIPTION
  huffman_test.go checks the canonical Huffman table construction against
  known baseline JPEG code assignments.

LICENSE
  Provided as-is for the meteorcore project.
*/

package msumr

import "testing"

func TestACLookupEndOfBlock(t *testing.T) {
	// EOB (run 0, size 0) is the four-bit code 1010 in the baseline AC
	// luminance table.
	idx := acLookup[0b1010<<12]
	if idx == -1 {
		t.Fatal("no AC entry for EOB code")
	}
	e := acTable[idx]
	if e.run != 0 || e.size != 0 || e.length != 4 {
		t.Fatalf("EOB entry = run %d size %d length %d, want 0/0/4", e.run, e.size, e.length)
	}
}

func TestACLookupRoundTrip(t *testing.T) {
	// Every table entry must be found by looking up a word starting with
	// its own code bits.
	for i, e := range acTable {
		word := e.code << (16 - e.length)
		if got := int(acLookup[word]); got != i {
			t.Fatalf("acLookup[%#04x] = %d, want %d (length %d code %#x)", word, got, i, e.length, e.code)
		}
	}
}

func TestACTableExcludesEmptyLengths(t *testing.T) {
	// The baseline AC table has no codes of length 1, 13 or 14; the empty
	// range convention must exclude them rather than aliasing length-k
	// candidates onto other symbols.
	for _, e := range acTable {
		switch e.length {
		case 1, 13, 14:
			t.Fatalf("AC entry with excluded code length %d (code %#x)", e.length, e.code)
		}
	}
	if len(acTable) != 162 {
		t.Fatalf("AC table has %d entries, want 162", len(acTable))
	}
}

func TestDCLookupCategories(t *testing.T) {
	tests := []struct {
		word int
		cat  int16
	}{
		{0x0000, 0},  // 00...
		{0x4000, 1},  // 010...
		{0x8000, 3},  // 100...
		{0xc000, 5},  // 110...
		{0xe000, 6},  // 1110...
		{0xfe00, 10}, // 11111110...
		{0xff00, 11}, // 111111110...
		{0xffff, -1}, // No DC code is all ones.
	}
	for _, tt := range tests {
		if got := dcLookup[tt.word]; got != tt.cat {
			t.Errorf("dcLookup[%#04x] = %d, want %d", tt.word, got, tt.cat)
		}
	}
}

func TestDCCategoryLengthsMatchOffsets(t *testing.T) {
	codes, _ := buildHuffman(dcSpec)
	if len(codes) != len(dcCatOff) {
		t.Fatalf("DC table has %d entries, want %d", len(codes), len(dcCatOff))
	}
	for cat, e := range codes {
		if e.length != dcCatOff[cat] {
			t.Errorf("DC category %d code length = %d, want %d", cat, e.length, dcCatOff[cat])
		}
	}
}
