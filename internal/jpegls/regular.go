package jpegls

import (
	"github.com/go-codecs/stillcodec/internal/bitio"
	"github.com/go-codecs/stillcodec/pixelbuf"
)

// neighbors returns the causal context pixels a (west), b (north),
// cx (north-west) and d (north-east) for (x, y, c), applying the
// boundary substitutions from spec §4.4: the first line has no north
// row so b=cx=d=a, and the first/last columns reuse b in place of the
// missing diagonal neighbor.
func neighbors(buf *pixelbuf.Image, x, y, c, width, defaultVal int) (a, b, cx, d int) {
	if y == 0 {
		if x == 0 {
			a = defaultVal
		} else {
			a = int(buf.SampleAt(x-1, y, c))
		}
		return a, a, a, a
	}
	if x == 0 {
		b = int(buf.SampleAt(x, y-1, c))
		a = b
		cx = b
	} else {
		a = int(buf.SampleAt(x-1, y, c))
		b = int(buf.SampleAt(x, y-1, c))
		cx = int(buf.SampleAt(x-1, y-1, c))
	}
	if x == width-1 {
		d = b
	} else {
		d = int(buf.SampleAt(x+1, y-1, c))
	}
	return a, b, cx, d
}

// medPredict applies the median edge detector to the causal neighbors.
func medPredict(a, b, cx int) int {
	switch {
	case cx >= maxInt(a, b):
		return minInt(a, b)
	case cx <= minInt(a, b):
		return maxInt(a, b)
	default:
		return a + b - cx
	}
}

// quantizeNearLossless maps a sign-corrected prediction error onto the
// representative of its near-lossless reconstruction bucket.
func quantizeNearLossless(errval int, p *Params) int {
	if p.Near == 0 {
		return errval
	}
	if errval > 0 {
		return (errval + p.Near) / (2*p.Near + 1)
	}
	return -((p.Near - errval) / (2*p.Near + 1))
}

// encodeSample codes one regular-mode sample and advances recon so later
// neighbor lookups see the same reconstructed value the decoder will.
func encodeSample(w *bitio.Writer, img, recon *pixelbuf.Image, cs *contextSet, p *Params, x, y, c, width int) error {
	defaultVal := 1 << uint(p.Bits-1)
	a, b, cx, d := neighbors(recon, x, y, c, width, defaultVal)
	q1 := quantizeGradient(d-b, p)
	q2 := quantizeGradient(b-cx, p)
	q3 := quantizeGradient(cx-a, p)
	idx, sign := contextIndex(q1, q2, q3)
	ctx := &cs.regular[idx]

	px := clampInt(medPredict(a, b, cx)+sign*int(ctx.C), 0, p.MaxVal)
	actual := int(img.SampleAt(x, y, c))
	errval := quantizeNearLossless(sign*(actual-px), p)

	k := golombK(ctx)
	merr := mapErrval(errval, k, ctx)
	if err := encodeGolomb(w, merr, k, p); err != nil {
		return err
	}

	reconstructed := clampInt(px+sign*errval*(2*p.Near+1), 0, p.MaxVal)
	recon.SetSampleAt(x, y, c, uint16(reconstructed))
	updateRegular(ctx, errval, p)
	return nil
}

// decodeSample reverses encodeSample, writing directly into out since
// the decoded output doubles as the causal-neighbor buffer.
func decodeSample(r *bitio.Reader, out *pixelbuf.Image, cs *contextSet, p *Params, x, y, c, width int) error {
	defaultVal := 1 << uint(p.Bits-1)
	a, b, cx, d := neighbors(out, x, y, c, width, defaultVal)
	q1 := quantizeGradient(d-b, p)
	q2 := quantizeGradient(b-cx, p)
	q3 := quantizeGradient(cx-a, p)
	idx, sign := contextIndex(q1, q2, q3)
	ctx := &cs.regular[idx]

	px := clampInt(medPredict(a, b, cx)+sign*int(ctx.C), 0, p.MaxVal)

	k := golombK(ctx)
	merr, err := decodeGolomb(r, k, p)
	if err != nil {
		return err
	}
	errval := unmapErrval(merr, k, ctx)

	reconstructed := clampInt(px+sign*errval*(2*p.Near+1), 0, p.MaxVal)
	out.SetSampleAt(x, y, c, uint16(reconstructed))
	updateRegular(ctx, errval, p)
	return nil
}

// encodeRunInterrupt codes the sample that breaks a run, using a
// single shared interruption context rather than the two RItype-indexed
// contexts of the literal standard: a simplification in the same spirit
// as the explicit run-termination flag in run.go, traded for simpler,
// self-consistent encode/decode symmetry over maximum bit efficiency.
func encodeRunInterrupt(w *bitio.Writer, img, recon *pixelbuf.Image, cs *contextSet, p *Params, x, y, c, ra, rb int) error {
	sign := 1
	px := ra
	if ra > rb {
		sign = -1
		px = rb
	}
	ctx := &cs.runInterrupt
	actual := int(img.SampleAt(x, y, c))
	errval := quantizeNearLossless(sign*(actual-px), p)

	k := golombK(ctx)
	merr := mapErrval(errval, k, ctx)
	if err := encodeGolomb(w, merr, k, p); err != nil {
		return err
	}

	reconstructed := clampInt(px+sign*errval*(2*p.Near+1), 0, p.MaxVal)
	recon.SetSampleAt(x, y, c, uint16(reconstructed))
	updateRegular(ctx, errval, p)
	return nil
}

func decodeRunInterrupt(r *bitio.Reader, out *pixelbuf.Image, cs *contextSet, p *Params, x, y, c, ra, rb int) error {
	sign := 1
	px := ra
	if ra > rb {
		sign = -1
		px = rb
	}
	ctx := &cs.runInterrupt

	k := golombK(ctx)
	merr, err := decodeGolomb(r, k, p)
	if err != nil {
		return err
	}
	errval := unmapErrval(merr, k, ctx)

	reconstructed := clampInt(px+sign*errval*(2*p.Near+1), 0, p.MaxVal)
	out.SetSampleAt(x, y, c, uint16(reconstructed))
	updateRegular(ctx, errval, p)
	return nil
}

// encodeRunRow is called at every x position when scanning in
// InterleaveLine order. It returns 0 (and codes nothing) unless the
// west and north neighbors agree, in which case it measures and codes
// the full run plus, unless the run reached the end of the row, the
// interruption sample, returning the total number of samples consumed.
func encodeRunRow(w *bitio.Writer, img, recon *pixelbuf.Image, cs *contextSet, p *Params, x, y, c, maxRun int) (int, error) {
	defaultVal := 1 << uint(p.Bits-1)
	a, b, _, _ := neighbors(recon, x, y, c, width(img), defaultVal)
	if a != b {
		return 0, nil
	}

	runLen := 0
	for runLen < maxRun && int(img.SampleAt(x+runLen, y, c)) == a {
		runLen++
	}
	if err := encodeRunLength(w, &cs.runIndex, runLen, maxRun); err != nil {
		return 0, err
	}
	for i := 0; i < runLen; i++ {
		recon.SetSampleAt(x+i, y, c, uint16(a))
	}
	if runLen == maxRun {
		return runLen, nil
	}

	ix := x + runLen
	_, rb, _, _ := neighbors(recon, ix, y, c, width(img), defaultVal)
	if err := encodeRunInterrupt(w, img, recon, cs, p, ix, y, c, a, rb); err != nil {
		return 0, err
	}
	return runLen + 1, nil
}

func decodeRunRow(r *bitio.Reader, out *pixelbuf.Image, cs *contextSet, p *Params, x, y, c, maxRun int) (int, error) {
	defaultVal := 1 << uint(p.Bits-1)
	a, b, _, _ := neighbors(out, x, y, c, width(out), defaultVal)
	if a != b {
		return 0, nil
	}

	runLen, hitEnd, err := decodeRunLength(r, &cs.runIndex, maxRun)
	if err != nil {
		return 0, err
	}
	for i := 0; i < runLen; i++ {
		out.SetSampleAt(x+i, y, c, uint16(a))
	}
	if hitEnd {
		return runLen, nil
	}

	ix := x + runLen
	_, rb, _, _ := neighbors(out, ix, y, c, width(out), defaultVal)
	if err := decodeRunInterrupt(r, out, cs, p, ix, y, c, a, rb); err != nil {
		return 0, err
	}
	return runLen + 1, nil
}

func width(img *pixelbuf.Image) int { return img.Width }
