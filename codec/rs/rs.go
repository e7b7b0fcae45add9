/*
NAME
  rs.go

DESCRIPTION
  rs.go implements a (255,223) Reed-Solomon decoder over GF(2^8) for the
  CCSDS/libcorrect parameter set (primitive polynomial 0x187, first
  consecutive root 112, root spacing 11, 32 parity symbols), via syndrome
  computation, Berlekamp-Massey, Chien search and Forney's algorithm.

  No third-party Go module in the retrieval pack offers an RS(255,223)
  decoder parameterised this way (the only reference is original_source's
  ctypes wrapper around libcorrect, a C library); this is a from-scratch
  port of the standard algorithm generalised for a non-zero first
  consecutive root and root spacing, grounded on the exact parameter tuple
  passed to CorrectRS255 in original_source/rs.py and exercised by
  original_source/find_cadu_frames.py's rs_decode_interleaved_4.

LICENSE
  Provided as-is for the meteorcore project.
*/

package rs

import "fmt"

// Field and code parameters for the CCSDS downlink RS code.
const (
	N    = 255 // Codeword length.
	K    = 223 // Message length.
	NSym = N - K
	// Lanes is the CADU's 4-way symbol interleave depth.
	Lanes = 4

	primPoly = 0x187
	fcr      = 112
	gap      = 11
)

var (
	errTooManyErrors          = fmt.Errorf("rs: uncorrectable block (more than %d symbol errors)", NSym/2)
	errForneyZeroDenominator  = fmt.Errorf("rs: forney denominator is zero, locator is not a valid root")
	errWrongCodewordLen       = fmt.Errorf("rs: codeword must be %d bytes", N)
	errWrongInterleavedLen    = fmt.Errorf("rs: interleaved payload must be %d bytes", Lanes*N)
)

// Decoder decodes RS(255,223) codewords, optionally 4-way interleaved.
type Decoder struct {
	gf *gf
}

// NewDecoder returns a Decoder for the CCSDS downlink RS code.
func NewDecoder() *Decoder {
	return &Decoder{gf: newGF(primPoly)}
}

// Decode corrects and strips parity from a single 255-byte codeword,
// returning the 223-byte message. An error is returned if more than
// NSym/2 symbol errors are present.
func (d *Decoder) Decode(codeword []byte) ([]byte, error) {
	if len(codeword) != N {
		return nil, errWrongCodewordLen
	}

	synd := d.syndromes(codeword)

	allZero := true
	for _, s := range synd {
		if s != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		out := make([]byte, K)
		copy(out, codeword[:K])
		return out, nil
	}

	lambda, errCount, err := d.berlekampMassey(synd)
	if err != nil {
		return nil, err
	}

	positions, trueExps, err := d.chienSearch(lambda, errCount)
	if err != nil {
		return nil, err
	}

	out := make([]byte, N)
	copy(out, codeword)
	if err := d.correct(out, synd, lambda, positions, trueExps); err != nil {
		return nil, err
	}

	return out[:K], nil
}

// DecodeInterleaved4 decodes a 4-way symbol-interleaved RS block: payload
// must be Lanes*N bytes, read with stride Lanes to recover each 255-byte
// lane codeword, and the corrected lanes are written back out with the
// same stride, yielding Lanes*K bytes.
func (d *Decoder) DecodeInterleaved4(payload []byte) ([]byte, error) {
	if len(payload) != Lanes*N {
		return nil, errWrongInterleavedLen
	}

	out := make([]byte, Lanes*K)
	lane := make([]byte, N)
	for l := 0; l < Lanes; l++ {
		for i := 0; i < N; i++ {
			lane[i] = payload[i*Lanes+l]
		}
		decoded, err := d.Decode(lane)
		if err != nil {
			return nil, fmt.Errorf("rs: lane %d: %w", l, err)
		}
		for i := 0; i < K; i++ {
			out[i*Lanes+l] = decoded[i]
		}
	}
	return out, nil
}

// syndromes computes S_i = M(alpha^(fcr+i*gap)) for i in [0,NSym), where M
// is the codeword's message polynomial (codeword[0] is the highest-degree
// coefficient).
func (d *Decoder) syndromes(codeword []byte) []byte {
	s := make([]byte, NSym)
	for i := range s {
		root := d.gf.alphaPow(fcr + i*gap)
		s[i] = d.gf.hornerHighFirst(codeword, root)
	}
	return s
}

// berlekampMassey finds the error-locator polynomial lambda (ascending
// power, lambda[0]==1) from the syndrome sequence, via the textbook
// shift-register synthesis algorithm. Its degree is the number of errors.
func (d *Decoder) berlekampMassey(synd []byte) (poly, int, error) {
	g := d.gf

	lambda := poly{1}
	b := poly{1}
	bCoef := byte(1)
	l := 0
	m := 1

	for n := 0; n < len(synd); n++ {
		delta := synd[n]
		for i := 1; i <= l && i < len(lambda); i++ {
			delta ^= g.mul(lambda[i], synd[n-i])
		}

		switch {
		case delta == 0:
			m++
		case 2*l <= n:
			t := make(poly, len(lambda))
			copy(t, lambda)
			coef := g.div(delta, bCoef)
			lambda = polyAdd(lambda, g.polyScale(polyShift(b, m), coef))
			l = n + 1 - l
			b = t
			bCoef = delta
			m = 1
		default:
			coef := g.div(delta, bCoef)
			lambda = polyAdd(lambda, g.polyScale(polyShift(b, m), coef))
			m++
		}
	}

	if l*2 > len(synd) {
		return nil, 0, errTooManyErrors
	}
	return lambda, l, nil
}

// chienSearch finds the errCount roots of lambda among the 255 candidate
// codeword positions, by testing lambda at the inverse of each candidate's
// locator value alpha^(gap*position). Returns the error positions as
// polynomial degrees (array index N-1-position, counted from the end of
// the codeword) and their corresponding exponent gap*position mod 255,
// needed again by correct.
func (d *Decoder) chienSearch(lambda poly, errCount int) (positions, trueExps []int, err error) {
	g := d.gf
	for j := 0; j < N; j++ {
		te := mod255(gap * j)
		x := g.alphaPow(te)
		if g.polyEval(lambda, g.inv(x)) == 0 {
			positions = append(positions, j)
			trueExps = append(trueExps, te)
		}
	}
	if len(positions) != errCount {
		return nil, nil, errTooManyErrors
	}
	return positions, trueExps, nil
}

// correct computes the error magnitude at each located position via
// Forney's algorithm and XORs it into out in place.
func (d *Decoder) correct(out []byte, synd []byte, lambda poly, positions, trueExps []int) error {
	g := d.gf

	s := poly(synd) // S(x) = sum_i synd[i] x^i, ascending power.
	omega := g.polyMul(s, lambda)
	if len(omega) > len(synd) {
		omega = omega[:len(synd)]
	}
	lambdaPrime := derivative(lambda)

	for idx, j := range positions {
		te := trueExps[idx]
		x := g.alphaPow(te)
		xinv := g.inv(x)

		num := g.polyEval(omega, xinv)
		den := g.polyEval(lambdaPrime, xinv)
		if den == 0 {
			return errForneyZeroDenominator
		}

		// Yk = X_k * Omega(X_k^-1) / Lambda'(X_k^-1), scaled error value.
		y := g.mul(x, g.div(num, den))
		// e_k = Yk / alpha^(fcr*position) undoes the fcr scaling folded
		// into the syndrome definition.
		ek := g.div(y, g.alphaPow(fcr*j))

		arrIdx := N - 1 - j
		out[arrIdx] ^= ek
	}
	return nil
}
