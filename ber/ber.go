/*
NAME
  ber.go

DESCRIPTION
  ber.go estimates the channel bit error rate by re-encoding
  Viterbi-decoded bits through the CCSDS K=7 rate-1/2 convolutional
  encoder and counting disagreements against the sign of the raw soft
  symbols, over a fixed-size window. Both symbol alignments are scored
  and the better one reported, since the decoder's output gives no phase
  reference into the soft stream.

LICENSE
  Provided as-is for the meteorcore project.
*/

// Package ber provides an observability-only bit error rate estimator
// for the Viterbi boundary of the decode pipeline. It has no effect on
// decoded output and may be left unwired.
package ber

// Defaults for the CCSDS uninverted code.
const (
	DefaultPoly0 = 79
	DefaultPoly1 = 109

	// DefaultSentinel is reported until the first window completes.
	DefaultSentinel = 10.0

	constraintLen = 7
)

// Estimator accumulates soft samples and decoded bits and periodically
// recomputes a scaled error ratio. One Estimator is not safe for
// concurrent use.
type Estimator struct {
	g0, g1     uint32
	inv0, inv1 bool
	reg, mask  uint32

	window   int
	eraseEps float64
	scale    float64

	err0, tot0 int
	err1, tot1 int
	last       float64

	soft []float32
	dec  []byte
}

// New returns an Estimator for the convolutional code described by the
// two generator polynomials. A negative polynomial signals that its
// encoder output is inverted on the wire. window is the number of
// scored soft samples (two per decoded bit) each alignment must reach
// before an estimate is made; samples with |s| <= eraseEps are
// treated as erasures and skipped.
func New(poly0, poly1, window int, eraseEps, scale float64) *Estimator {
	if poly0 == 0 {
		poly0 = DefaultPoly0
	}
	if poly1 == 0 {
		poly1 = DefaultPoly1
	}
	e := &Estimator{
		inv0:     poly0 < 0,
		inv1:     poly1 < 0,
		window:   window,
		eraseEps: eraseEps,
		scale:    scale,
		mask:     1<<constraintLen - 1,
		last:     DefaultSentinel,
	}
	e.g0 = uint32(abs(poly0))
	e.g1 = uint32(abs(poly1))
	return e
}

// Last returns the most recent estimate, or the sentinel before the
// first window completes.
func (e *Estimator) Last() float64 { return e.last }

// Write appends soft samples (at twice the decoded bit rate) and decoded
// hard bits, scores as many aligned pairs as are available, and returns
// one estimate value per decoded bit consumed. Unconsumed input is
// buffered for the next call; either argument may be nil.
func (e *Estimator) Write(soft []float32, decoded []byte) []float64 {
	e.soft = append(e.soft, soft...)
	e.dec = append(e.dec, decoded...)

	// Alignment 1 peeks one sample past the current pair, so a sample of
	// lookahead is always held back.
	n := len(e.dec)
	if m := (len(e.soft) - 1) / 2; m < n {
		n = m
	}
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		en0, en1 := e.encodePair(e.dec[i])

		for shift := 0; shift <= 1; shift++ {
			s0 := float64(e.soft[2*i+shift])
			s1 := float64(e.soft[2*i+shift+1])
			if abs64(s0) <= e.eraseEps || abs64(s1) <= e.eraseEps {
				continue
			}

			h0 := hard(s0)
			h1 := hard(s1)

			errs := 0
			if h0 != en0 {
				errs++
			}
			if h1 != en1 {
				errs++
			}
			if shift == 0 {
				e.err0 += errs
				e.tot0 += 2
			} else {
				e.err1 += errs
				e.tot1 += 2
			}
		}

		if e.tot0 >= e.window && e.tot1 >= e.window {
			ber0 := float64(e.err0) / float64(e.tot0) * e.scale
			ber1 := float64(e.err1) / float64(e.tot1) * e.scale
			e.last = ber0
			if ber1 < ber0 {
				e.last = ber1
			}
			e.err0, e.tot0 = 0, 0
			e.err1, e.tot1 = 0, 0
		}

		out[i] = e.last
	}

	e.soft = e.soft[2*n:]
	e.dec = e.dec[n:]
	return out
}

// encodePair shifts one bit into the encoder register and returns the
// two parity outputs.
func (e *Estimator) encodePair(bit byte) (byte, byte) {
	e.reg = (e.reg<<1 | uint32(bit&1)) & e.mask
	en0 := parity(e.reg & e.g0)
	en1 := parity(e.reg & e.g1)
	if e.inv0 {
		en0 ^= 1
	}
	if e.inv1 {
		en1 ^= 1
	}
	return en0, en1
}

func parity(x uint32) byte {
	x ^= x >> 16
	x ^= x >> 8
	x ^= x >> 4
	x ^= x >> 2
	x ^= x >> 1
	return byte(x & 1)
}

func hard(s float64) byte {
	if s > 0 {
		return 1
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func abs64(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
