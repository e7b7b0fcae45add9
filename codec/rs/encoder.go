/*
NAME
  encoder.go

DESCRIPTION
  encoder.go implements the systematic RS(255,223) encoder matching the
  decoder's parameter set. The downlink never needs it; it exists as the
  loopback counterpart used to build test fixtures and to exercise the
  decoder end to end without recorded satellite captures.

LICENSE
  Provided as-is for the meteorcore project.
*/

package rs

import "fmt"

var errWrongMessageLen = fmt.Errorf("rs: message must be %d bytes", K)

// Encoder produces codewords the Decoder accepts, using the same
// generator roots (alpha^(fcr+i*gap), i in [0,NSym)).
type Encoder struct {
	gf  *gf
	gen poly
}

// NewEncoder returns an Encoder for the CCSDS downlink RS code.
func NewEncoder() *Encoder {
	g := newGF(primPoly)
	gen := poly{1}
	for i := 0; i < NSym; i++ {
		gen = g.polyMul(gen, poly{1, g.alphaPow(fcr + i*gap)})
	}
	return &Encoder{gf: g, gen: gen}
}

// Encode builds the systematic 255-byte codeword for a 223-byte message:
// the message followed by the 32 parity symbols.
func (e *Encoder) Encode(msg []byte) ([]byte, error) {
	if len(msg) != K {
		return nil, errWrongMessageLen
	}

	// Parity is the remainder of msg(x)*x^NSym divided by the generator,
	// with msg[0] the highest-degree coefficient.
	remainder := make(poly, N)
	copy(remainder, msg)
	for i := 0; i < K; i++ {
		coef := remainder[i]
		if coef == 0 {
			continue
		}
		for j, gc := range e.gen {
			remainder[i+j] ^= e.gf.mul(gc, coef)
		}
	}

	out := make([]byte, N)
	copy(out, msg)
	copy(out[K:], remainder[K:])
	return out, nil
}

// EncodeInterleaved4 encodes a Lanes*K-byte block into the Lanes*N-byte
// 4-way symbol-interleaved layout DecodeInterleaved4 expects.
func (e *Encoder) EncodeInterleaved4(block []byte) ([]byte, error) {
	if len(block) != Lanes*K {
		return nil, fmt.Errorf("rs: interleaved message must be %d bytes", Lanes*K)
	}

	out := make([]byte, Lanes*N)
	msg := make([]byte, K)
	for l := 0; l < Lanes; l++ {
		for i := 0; i < K; i++ {
			msg[i] = block[i*Lanes+l]
		}
		cw, err := e.Encode(msg)
		if err != nil {
			return nil, err
		}
		for i := 0; i < N; i++ {
			out[i*Lanes+l] = cw[i]
		}
	}
	return out, nil
}
