/*
NAME
  huffman.go

DESCRIPTION
  huffman.go builds the entropy-decode lookup tables for MSU-MR segments.
  Both the AC and DC tables are constructed from canonical JPEG
  length-count/symbol lists (the baseline luminance tables); each yields a
  65536-entry lookup indexed by the next 16 bits of the stream, returning
  the matched symbol index or -1 when no code matches.

LICENSE
  Provided as-is for the meteorcore project.
*/

package msumr

// acSpec is the baseline JPEG AC luminance Huffman table: 16 per-length
// code counts followed by 162 run/size symbols.
var acSpec = []int{
	0, 2, 1, 3, 3, 2, 4, 3,
	5, 5, 4, 4, 0, 0, 1, 125,
	1, 2, 3, 0, 4, 17, 5, 18,
	33, 49, 65, 6, 19, 81, 97, 7,
	34, 113, 20, 50, 129, 145, 161, 8,
	35, 66, 177, 193, 21, 82, 209, 240,
	36, 51, 98, 114, 130, 9, 10, 22,
	23, 24, 25, 26, 37, 38, 39, 40, 41, 42, 52, 53, 54, 55, 56, 57, 58, 67, 68, 69, 70, 71,
	72, 73, 74, 83, 84, 85, 86, 87, 88, 89, 90, 99, 100, 101, 102,
	103, 104, 105, 106, 115, 116, 117, 118, 119, 120, 121, 122, 131, 132, 133, 134,
	135, 136, 137, 138, 146, 147, 148, 149, 150, 151, 152, 153, 154, 162, 163, 164,
	165, 166, 167, 168, 169, 170, 178, 179, 180, 181, 182, 183, 184, 185, 186,
	194, 195, 196, 197, 198, 199, 200, 201, 202, 210, 211, 212, 213, 214, 215,
	216, 217, 218, 225, 226, 227, 228, 229, 230, 231, 232, 233, 234, 241, 242,
	243, 244, 245, 246, 247, 248, 249, 250,
}

// dcSpec is the baseline JPEG DC luminance Huffman table in the same
// count/symbol layout: category symbols 0..11.
var dcSpec = []int{
	0, 1, 5, 1, 1, 1, 1, 1,
	1, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 2, 3, 4, 5, 6, 7,
	8, 9, 10, 11,
}

// dcCatOff[cat] is the DC code length, in bits, for each DC category.
var dcCatOff = []int{2, 3, 3, 3, 3, 3, 4, 5, 6, 7, 8, 9}

// huffCode is one canonical Huffman code: its run/size symbol split and
// the code word itself.
type huffCode struct {
	run, size int
	length    int
	mask      int
	code      int
}

// buildHuffman constructs the canonical code list and the 16-bit-prefix
// lookup for one count/symbol spec. Lookup entries are the index of the
// matching code in the returned list, or -1 where no code matches.
//
// A code length with a zero count is excluded by forcing its code range
// to min 0xFFFF, max 0, an empty interval no candidate code can fall in.
func buildHuffman(spec []int) ([]huffCode, []int16) {
	var v [65536]int

	var minCode, majCode [17]int

	p := 16
	for k := 1; k <= 16; k++ {
		for i := 0; i < spec[k-1]; i++ {
			v[(k<<8)+i] = spec[p]
			p++
		}
	}

	code := 0
	for k := 1; k <= 16; k++ {
		minCode[k] = code
		code += spec[k-1]
		majCode[k] = code
		if code != 0 {
			majCode[k] = code - 1
		}
		code *= 2

		if spec[k-1] == 0 {
			minCode[k] = 0xffff
			majCode[k] = 0
		}
	}

	var codes []huffCode
	for k := 1; k <= 16; k++ {
		for i := 0; i < 1<<k; i++ {
			if i >= minCode[k] && i <= majCode[k] {
				sym := v[(k<<8)+i-minCode[k]]
				codes = append(codes, huffCode{
					run:    sym >> 4,
					size:   sym & 0xf,
					length: k,
					mask:   1<<k - 1,
					code:   i,
				})
			}
		}
	}

	lookup := make([]int16, 65536)
	for i := range lookup {
		lookup[i] = -1
	}
	for idx, c := range codes {
		// Canonical codes are prefix-free, so every 16-bit word whose top
		// length bits equal the code belongs to exactly one entry.
		lo := c.code << (16 - c.length)
		hi := lo + 1<<(16-c.length)
		for w := lo; w < hi; w++ {
			lookup[w] = int16(idx)
		}
	}

	return codes, lookup
}

// Entropy tables shared by every Decoder, built once.
var (
	acTable  []huffCode
	acLookup []int16
	dcLookup []int16
)

func init() {
	acTable, acLookup = buildHuffman(acSpec)
	_, dcLookup = buildHuffman(dcSpec)
}
