package jpegls

import "github.com/go-codecs/stillcodec/internal/bitio"

// jTable is the adaptive run-length parameter table from spec §4.4.
var jTable = [32]int{
	0, 0, 0, 0, 1, 1, 1, 1,
	2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7,
	8, 9, 10, 11, 12, 13, 14, 15,
}

// mapErrval folds a signed prediction error into a non-negative value
// for Golomb-Rice coding, including the k=0 negative-bias special case.
func mapErrval(errval, k int, c *context) int {
	if k == 0 && 2*c.B <= -c.N {
		if errval >= 0 {
			return 2*errval + 1
		}
		return -2*errval - 2
	}
	if errval >= 0 {
		return 2 * errval
	}
	return -2*errval - 1
}

// unmapErrval reverses mapErrval.
func unmapErrval(merrval, k int, c *context) int {
	if k == 0 && 2*c.B <= -c.N {
		if merrval&1 == 0 {
			return -(merrval / 2) - 1
		}
		return merrval / 2
	}
	if merrval&1 == 0 {
		return merrval / 2
	}
	return -(merrval + 1) / 2
}

// encodeGolomb writes mErrval using Rice parameter k, escaping to a
// raw qbpp-bit value when the unary prefix would exceed LIMIT.
func encodeGolomb(w *bitio.Writer, mErrval, k int, p *Params) error {
	q := mErrval >> uint(k)
	escapeLen := p.Limit - p.Qbpp - 1
	if q < escapeLen {
		for i := 0; i < q; i++ {
			if err := w.WriteBit(1); err != nil {
				return err
			}
		}
		if err := w.WriteBit(0); err != nil {
			return err
		}
		if k > 0 {
			return w.WriteBits(uint32(mErrval)&((1<<uint(k))-1), uint(k))
		}
		return nil
	}
	for i := 0; i < escapeLen; i++ {
		if err := w.WriteBit(1); err != nil {
			return err
		}
	}
	if err := w.WriteBit(0); err != nil {
		return err
	}
	return w.WriteBits(uint32(mErrval-1), uint(p.Qbpp))
}

// decodeGolomb reverses encodeGolomb.
func decodeGolomb(r *bitio.Reader, k int, p *Params) (int, error) {
	q := 0
	escapeLen := p.Limit - p.Qbpp - 1
	for q < escapeLen {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			break
		}
		q++
	}
	if q == escapeLen {
		if _, err := r.ReadBit(); err != nil { // terminating 0
			return 0, err
		}
		raw, err := r.ReadBits(uint(p.Qbpp))
		if err != nil {
			return 0, err
		}
		return int(raw) + 1, nil
	}
	if k == 0 {
		return q, nil
	}
	low, err := r.ReadBits(uint(k))
	if err != nil {
		return 0, err
	}
	return (q << uint(k)) | int(low), nil
}
