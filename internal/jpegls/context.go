package jpegls

// numContexts is the number of regular contexts (9^3 quantized
// gradient triples, collapsed 2:1 by sign symmetry, per spec §3).
const numContexts = 365

// context holds one regular context's adaptive state.
type context struct {
	A, B, C, N int32
}

// contextSet is the full table of regular contexts plus the run
// interruption context used while in run mode. Pixel-interleaved RGB
// keeps three independent contextSets, one per component, per the
// resolved Open Question in spec §9/§4.4.
type contextSet struct {
	regular [numContexts]context
	runInterrupt context
	runIndex int
}

func newContextSet(p *Params) *contextSet {
	cs := &contextSet{}
	initA := int32(maxInt(2, (p.Range+32)/64))
	for i := range cs.regular {
		cs.regular[i] = context{A: initA, B: 0, C: 0, N: 1}
	}
	cs.runInterrupt = context{A: initA, B: 0, C: 0, N: 1}
	return cs
}

// quantizeGradient maps a difference to one of the 9 regions
// {-4..4} using the context thresholds.
func quantizeGradient(d int, p *Params) int {
	switch {
	case d <= -p.T3:
		return -4
	case d <= -p.T2:
		return -3
	case d <= -p.T1:
		return -2
	case d < 0:
		return -1
	case d == 0:
		return 0
	case d < p.T1:
		return 1
	case d < p.T2:
		return 2
	case d < p.T3:
		return 3
	default:
		return 4
	}
}

// contextIndex combines the three quantized gradients into a context
// index in [0,364] plus the sign that must be applied to the
// prediction/error values coded against it.
func contextIndex(q1, q2, q3 int) (index, sign int) {
	raw := (q1*9+q2)*9 + q3
	if raw < 0 {
		return -raw, -1
	}
	return raw, 1
}

// golombK returns the adapted Golomb-Rice parameter for a context:
// the smallest k such that N*2^k >= A.
func golombK(c *context) int {
	k := 0
	for (c.N << uint(k)) < c.A {
		k++
	}
	return k
}

// updateRegular applies the post-coding adaptation for a regular
// context, halving A, B and N when N reaches RESET (C is kept).
func updateRegular(c *context, errval int, p *Params) {
	c.B += int32(errval * (2*p.Near + 1))
	c.A += int32(absInt(errval))
	if c.N == int32(p.Reset) {
		c.A >>= 1
		if c.B >= 0 {
			c.B = (c.B + 1) / 2
		} else {
			c.B = -((1 - c.B) / 2)
		}
		c.N >>= 1
	}
	c.N++
	if c.B <= -c.N {
		if c.C > -128 {
			c.C--
		}
		c.B += c.N
		if c.B <= -c.N {
			c.B = -c.N + 1
		}
	} else if c.B > 0 {
		if c.C < 127 {
			c.C++
		}
		c.B -= c.N
		if c.B > 0 {
			c.B = 0
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
