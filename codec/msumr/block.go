/*
NAME
  block.go

DESCRIPTION
  block.go entropy-decodes the fourteen 8x8 blocks of one MSU-MR segment:
  Huffman DC/AC coefficient extraction, dequantization scaled by the
  segment quality factor, inverse zigzag, and an 8x8 type-II inverse DCT
  producing the 8x112 strip of 8-bit samples.

LICENSE
  Provided as-is for the meteorcore project.
*/

package msumr

import (
	"fmt"
	"math"
)

// Block geometry for the MSU-MR scan.
const (
	// BlocksPerLine is the number of segments making up one scan line.
	BlocksPerLine = 14

	// BlockWidth is the pixel width of one decoded segment strip, i.e.
	// fourteen 8-pixel blocks side by side.
	BlockWidth = 112

	// BlockHeight is the pixel height of one decoded segment strip.
	BlockHeight = 8

	// ImageWidth is the full scan line width in pixels.
	ImageWidth = BlocksPerLine * BlockWidth
)

// standardQuantizationTable is the baseline JPEG luminance quantization
// table, scaled per segment by the quality factor.
var standardQuantizationTable = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

// zigzag maps natural coefficient order to the position of that
// coefficient in the zigzag-ordered stream.
var zigzag = [64]int{
	0, 1, 5, 6, 14, 15, 27, 28,
	2, 4, 7, 13, 16, 26, 29, 42,
	3, 8, 12, 17, 25, 30, 41, 43,
	9, 11, 18, 24, 31, 40, 44, 53,
	10, 19, 23, 32, 39, 45, 52, 54,
	20, 22, 33, 38, 46, 51, 55, 60,
	21, 34, 37, 47, 50, 56, 59, 61,
	35, 36, 48, 49, 57, 58, 62, 63,
}

// IDCT basis tables, built once.
var (
	cosine [8][8]float64
	alpha  [8]float64
)

func init() {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			cosine[y][x] = math.Cos(math.Pi / 16 * float64((2*y+1)*x))
		}
	}
	alpha[0] = 1 / math.Sqrt2
	for x := 1; x < 8; x++ {
		alpha[x] = 1
	}
}

// bitReader reads MSB-first bits from a byte slice. Reads past the end of
// the data yield zero bits, matching the wire behaviour of a truncated
// entropy stream (the decoder relies on lookup misses, not underruns, to
// reject bad segments).
type bitReader struct {
	data []byte
	pos  int // Bit position.
}

func (r *bitReader) peekBits(n int) int {
	result := 0
	for i := 0; i < n; i++ {
		p := r.pos + i
		bit := 0
		if idx := p >> 3; idx < len(r.data) {
			bit = int(r.data[idx]>>(7-p&7)) & 1
		}
		result = result<<1 | bit
	}
	return result
}

func (r *bitReader) advanceBits(n int) { r.pos += n }

func (r *bitReader) fetchBits(n int) int {
	result := r.peekBits(n)
	r.advanceBits(n)
	return result
}

// fillDQT scales the standard quantization table by quality factor q.
func fillDQT(q float64) [64]float64 {
	var f float64
	if 20 < q && q < 50 {
		f = 5000 / q
	} else {
		f = 200 - 2*q
	}

	var dqt [64]float64
	for i := range dqt {
		dqt[i] = math.Floor(f/100*float64(standardQuantizationTable[i]) + 0.5)
		if dqt[i] < 1 {
			dqt[i] = 1
		}
	}
	return dqt
}

// mapRange decodes a cat-bit signed-magnitude value: a set MSB means the
// raw value is the magnitude, otherwise it is offset below zero.
func mapRange(cat, vl int) int {
	if cat == 0 {
		return 0
	}
	maxval := 1<<cat - 1
	if vl>>(cat-1) != 0 {
		return vl
	}
	return vl - maxval
}

// idct8x8 applies the separable 8x8 type-II inverse DCT with the usual
// 1/4 factor and alpha(0)=1/sqrt(2) axis scaling.
func idct8x8(in *[64]float64) [64]float64 {
	var res [64]float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			s := 0.0
			for u := 0; u < 8; u++ {
				inner := 0.0
				for v := 0; v < 8; v++ {
					inner += in[v*8+u] * alpha[v] * cosine[y][v]
				}
				s += alpha[u] * cosine[x][u] * inner
			}
			res[y*8+x] = s / 4
		}
	}
	return res
}

// decodeBlocks entropy-decodes the 14 blocks of one segment payload into
// an 8-row, 112-column strip of 8-bit samples. The DC predictor runs
// across the 14 blocks and resets between segments (each call starts
// fresh). A Huffman lookup miss fails the whole segment.
func decodeBlocks(payload []byte, qf float64) ([][]byte, error) {
	r := &bitReader{data: payload}

	var zdct, dct [64]float64
	dqt := fillDQT(qf)
	prevDC := 0.0

	strip := make([][]byte, BlockHeight)
	for i := range strip {
		strip[i] = make([]byte, BlockWidth)
	}

	for m := 0; m < BlocksPerLine; m++ {
		dcCat := dcLookup[r.peekBits(16)]
		if dcCat == -1 {
			return nil, fmt.Errorf("msumr: bad DC Huffman code in block %d", m)
		}
		r.advanceBits(dcCatOff[dcCat])
		n := r.fetchBits(int(dcCat))

		zdct[0] = float64(mapRange(int(dcCat), n)) + prevDC
		prevDC = zdct[0]

		for k := 1; k < 64; {
			ac := acLookup[r.peekBits(16)]
			if ac == -1 {
				return nil, fmt.Errorf("msumr: bad AC Huffman code in block %d", m)
			}
			entry := acTable[ac]
			r.advanceBits(entry.length)

			if entry.run == 0 && entry.size == 0 {
				for ; k < 64; k++ {
					zdct[k] = 0
				}
				break
			}

			for i := 0; i < entry.run && k < 64; i++ {
				zdct[k] = 0
				k++
			}

			if entry.size != 0 {
				if k < 64 {
					n = r.fetchBits(entry.size)
					zdct[k] = float64(mapRange(entry.size, n))
					k++
				}
			} else if entry.run == 15 && k < 64 {
				zdct[k] = 0
				k++
			}
		}

		for i := 0; i < 64; i++ {
			dct[i] = zdct[zigzag[i]] * dqt[i]
		}

		pixels := idct8x8(&dct)

		x0 := m * 8
		for i := 0; i < 64; i++ {
			t := int(math.Round(pixels[i] + 128))
			if t < 0 {
				t = 0
			}
			if t > 255 {
				t = 255
			}
			strip[i/8][x0+i%8] = byte(t)
		}
	}

	return strip, nil
}
