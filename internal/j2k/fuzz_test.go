package j2k

import (
	"bytes"
	"testing"
)

// FuzzDecode checks that Decode never panics on arbitrary input, valid
// codestream or not.
func FuzzDecode(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0xFF, 0x4F})
	f.Add([]byte{0xFF, 0x4F, 0xFF, 0x51})

	src := makeGrayRamp(16, 16)
	opts := DefaultOptions()
	opts.Lossless = true
	opts.NumResolutions = 2
	var buf bytes.Buffer
	if err := Encode(&buf, src, opts); err == nil {
		f.Add(buf.Bytes())
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = Decode(bytes.NewReader(data))
	})
}
