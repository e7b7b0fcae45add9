/*
NAME
  gf.go

DESCRIPTION
  gf.go implements GF(2^8) arithmetic over the CCSDS/libcorrect primitive
  polynomial (0x187, i.e. x^8+x^7+x^2+x+1), via log/antilog tables.

LICENSE
  Provided as-is for the meteorcore project.
*/

package rs

// gf is a GF(2^8) field built from a given primitive polynomial, exposing
// log-table multiplication/division and polynomial helpers used by the
// Reed-Solomon decoder.
type gf struct {
	exp [510]byte // exp[i] = alpha^i, extended past 255 to avoid modulo in mul.
	log [256]byte // log[alpha^i] = i, log[0] is unused.
}

// newGF builds the field tables for primitive polynomial prim (given as a
// 9-bit value with the implicit x^8 term set, e.g. 0x187).
func newGF(prim int) *gf {
	g := &gf{}
	x := 1
	for i := 0; i < 255; i++ {
		g.exp[i] = byte(x)
		g.log[byte(x)] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= prim
		}
	}
	for i := 255; i < 510; i++ {
		g.exp[i] = g.exp[i-255]
	}
	return g
}

func (g *gf) mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return g.exp[int(g.log[a])+int(g.log[b])]
}

func (g *gf) div(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return g.exp[mod255(int(g.log[a])-int(g.log[b]))]
}

func (g *gf) inv(a byte) byte {
	return g.exp[mod255(255-int(g.log[a]))]
}

// alphaPow returns alpha^n for any integer n, including negative exponents.
func (g *gf) alphaPow(n int) byte {
	return g.exp[mod255(n)]
}

func mod255(n int) int {
	n %= 255
	if n < 0 {
		n += 255
	}
	return n
}

// hornerHighFirst evaluates the polynomial whose coefficients are p, most
// significant first (p[0] is the x^(len(p)-1) term), at point x.
func (g *gf) hornerHighFirst(p []byte, x byte) byte {
	y := p[0]
	for _, c := range p[1:] {
		y = g.mul(y, x) ^ c
	}
	return y
}

// poly is a polynomial with ascending-power coefficients: poly[i] is the
// coefficient of x^i. This convention is used throughout the error-locator
// and error-evaluator computation, where coefficients are naturally built
// up from the constant term.
type poly []byte

func polyAdd(a, b poly) poly {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(poly, n)
	copy(out, a)
	for i, v := range b {
		out[i] ^= v
	}
	return out
}

func (g *gf) polyScale(p poly, s byte) poly {
	out := make(poly, len(p))
	for i, c := range p {
		out[i] = g.mul(c, s)
	}
	return out
}

// polyShift multiplies p by x^m.
func polyShift(p poly, m int) poly {
	out := make(poly, len(p)+m)
	copy(out[m:], p)
	return out
}

func (g *gf) polyMul(a, b poly) poly {
	out := make(poly, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			if bv == 0 {
				continue
			}
			out[i+j] ^= g.mul(av, bv)
		}
	}
	return out
}

// polyEval evaluates an ascending-power polynomial at x.
func (g *gf) polyEval(p poly, x byte) byte {
	var result byte
	xPow := byte(1)
	for _, c := range p {
		if c != 0 {
			result ^= g.mul(c, xPow)
		}
		xPow = g.mul(xPow, x)
	}
	return result
}

// derivative returns the formal derivative of an ascending-power polynomial
// over a field of characteristic 2: only odd-degree terms survive, each
// shifted down one power.
func derivative(p poly) poly {
	if len(p) <= 1 {
		return poly{0}
	}
	out := make(poly, len(p)-1)
	for i := 1; i < len(p); i++ {
		if i%2 == 1 {
			out[i-1] = p[i]
		}
	}
	return out
}
