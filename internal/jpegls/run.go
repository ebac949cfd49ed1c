package jpegls

import "github.com/go-codecs/stillcodec/internal/bitio"

// encodeRunLength writes a completed run using the adaptive 2^J(RUNindex)
// code from spec §4.4. runLen is the true number of consecutive pixels
// matching the west neighbor (bounded by maxRun, the pixels remaining
// in the line); maxRun is known to the decoder from position alone, so
// only the information the decoder cannot already derive is written.
func encodeRunLength(w *bitio.Writer, runIndex *int, runLen, maxRun int) error {
	accumulated := 0
	for {
		j := jTable[*runIndex]
		unit := 1 << uint(j)
		if accumulated+unit > maxRun || runLen < accumulated+unit {
			break
		}
		if err := w.WriteBit(1); err != nil {
			return err
		}
		accumulated += unit
		if *runIndex < 31 {
			*runIndex++
		}
	}

	j := jTable[*runIndex]
	unit := 1 << uint(j)
	if accumulated+unit > maxRun {
		remaining := maxRun - accumulated
		if remaining == 0 {
			return nil // the run covered the whole line; nothing left to signal
		}
		if runLen >= maxRun {
			return w.WriteBit(1) // full match through end of line
		}
		if err := w.WriteBit(0); err != nil {
			return err
		}
		return w.WriteBits(uint32(runLen-accumulated), uint(ceilLog2(remaining)))
	}

	// Interruption inside a unit that would otherwise have fit the budget.
	if err := w.WriteBit(0); err != nil {
		return err
	}
	return w.WriteBits(uint32(runLen-accumulated), uint(j))
}

// decodeRunLength mirrors encodeRunLength.
func decodeRunLength(r *bitio.Reader, runIndex *int, maxRun int) (runLen int, hitEnd bool, err error) {
	accumulated := 0
	for {
		j := jTable[*runIndex]
		unit := 1 << uint(j)
		if accumulated+unit > maxRun {
			break
		}
		bit, e := r.ReadBit()
		if e != nil {
			return 0, false, e
		}
		if bit == 0 {
			residual, e := r.ReadBits(uint(j))
			if e != nil {
				return 0, false, e
			}
			return accumulated + int(residual), false, nil
		}
		accumulated += unit
		if *runIndex < 31 {
			*runIndex++
		}
	}

	remaining := maxRun - accumulated
	if remaining == 0 {
		return accumulated, true, nil
	}
	bit, e := r.ReadBit()
	if e != nil {
		return 0, false, e
	}
	if bit == 1 {
		return maxRun, true, nil
	}
	residual, e := r.ReadBits(uint(ceilLog2(remaining)))
	if e != nil {
		return 0, false, e
	}
	return accumulated + int(residual), false, nil
}
