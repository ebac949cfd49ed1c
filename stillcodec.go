// Package stillcodec is a pure Go library for baseline JPEG, JPEG-LS,
// and JPEG 2000 still-image encoding and decoding, sharing a single
// pixel buffer type (pixelbuf.Image) across all three formats.
//
// Decoding auto-detects the format from its leading marker bytes:
//
//	dec := stillcodec.NewDecoder(data)
//	info, err := dec.ReadHeader()
//	out := make([]byte, info.DecodedSize())
//	err = dec.Decode(out)
//
// Encoding goes through one function per format:
//
//	data, err := stillcodec.EncodeJPEG(img, 85)
package stillcodec

import (
	"bytes"
	"encoding/binary"

	"github.com/go-codecs/stillcodec/internal/j2k"
	"github.com/go-codecs/stillcodec/internal/jpeg"
	"github.com/go-codecs/stillcodec/internal/jpegls"
	"github.com/go-codecs/stillcodec/pixelbuf"
	"github.com/pkg/errors"
)

// Format identifies the still-image codec a stream was detected as.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatJPEGLS
	FormatJPEG2000
	FormatJP2
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatJPEGLS:
		return "JPEG-LS"
	case FormatJPEG2000:
		return "JPEG2000"
	case FormatJP2:
		return "JP2"
	default:
		return "Unknown"
	}
}

// ImageInfo is the geometry a Decoder reports after ReadHeader, before
// any entropy-coded pixel data has been touched.
type ImageInfo struct {
	Width         int
	Height        int
	Components    int
	BitsPerSample int
	Format        Format
}

// bytesPerSample is how much space one decoded sample occupies in the
// caller-provided output buffer Decode writes into.
func (info ImageInfo) bytesPerSample() int {
	return (info.BitsPerSample + 7) / 8
}

// DecodedSize is the minimum out buffer length Decode requires.
func (info ImageInfo) DecodedSize() int {
	return info.Width * info.Height * info.Components * info.bytesPerSample()
}

// Decoder borrows an encoded byte slice and decodes it once ReadHeader
// has identified its format and geometry.
type Decoder struct {
	data []byte
	info ImageInfo
	read bool
}

// NewDecoder borrows data for the lifetime of the returned Decoder; the
// caller must not mutate it before Decode returns.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// ReadHeader identifies the codec by its leading marker bytes and
// reports image geometry. It is idempotent: later calls return the
// cached result without re-scanning.
func (d *Decoder) ReadHeader() (ImageInfo, error) {
	if d.read {
		return d.info, nil
	}
	format, err := detectFormat(d.data)
	if err != nil {
		return ImageInfo{}, err
	}
	var info ImageInfo
	switch format {
	case FormatJPEG:
		info, err = readJPEGHeader(d.data)
	case FormatJPEGLS:
		info, err = readJPEGLSHeader(d.data)
	case FormatJPEG2000:
		info, err = readJ2KHeader(d.data)
	case FormatJP2:
		err = newCodecError(StatusUnsupportedFeature, errors.New("stillcodec: JP2 box container is unsupported, only the raw code-stream is"))
	default:
		err = newCodecError(StatusInvalidInput, errors.New("stillcodec: unrecognized image format"))
	}
	if err != nil {
		return ImageInfo{}, err
	}
	info.Format = format
	d.info = info
	d.read = true
	return d.info, nil
}

// Decode fully decodes the image into out, which must be at least
// info.DecodedSize() bytes (info from a prior ReadHeader call).
func (d *Decoder) Decode(out []byte) error {
	info, err := d.ReadHeader()
	if err != nil {
		return err
	}
	if len(out) < info.DecodedSize() {
		return newCodecError(StatusBufferTooSmall, errors.Errorf("stillcodec: out buffer is %d bytes, need at least %d", len(out), info.DecodedSize()))
	}

	var img *pixelbuf.Image
	switch info.Format {
	case FormatJPEG:
		img, err = jpeg.Decode(d.data)
	case FormatJPEGLS:
		img, err = jpegls.Decode(d.data)
	case FormatJPEG2000:
		img, err = decodeJ2K(d.data)
	}
	if err != nil {
		return newCodecError(StatusCorruptStream, errors.Wrapf(err, "stillcodec: decoding %s", info.Format))
	}
	copy(out, img.Pix)
	return nil
}

// detectFormat inspects the leading bytes of data per the magic-byte
// table: FFD8 followed by any other FFxx marker is JPEG (SOF0 is only
// checked later, by the JPEG header reader); FFD8 FFF7 is
// JPEG-LS (SOF55 follows SOI directly, no intervening APPn); FF4F FF51
// is a raw JPEG 2000 code-stream (SOC then SIZ); the JP2 box signature
// is recognized so callers get UnsupportedFeature rather than
// InvalidInput on a file-format-wrapped stream.
func detectFormat(data []byte) (Format, error) {
	if len(data) < 4 {
		return FormatUnknown, newCodecError(StatusInvalidInput, errors.New("stillcodec: input too short to contain a marker"))
	}
	if len(data) >= 12 && bytes.Equal(data[:4], []byte{0x00, 0x00, 0x00, 0x0C}) && bytes.Equal(data[4:8], []byte{0x6A, 0x50, 0x20, 0x20}) {
		return FormatJP2, nil
	}
	first := binary.BigEndian.Uint16(data[0:2])
	second := binary.BigEndian.Uint16(data[2:4])
	switch {
	case first == 0xFF4F && second == 0xFF51:
		return FormatJPEG2000, nil
	case first == 0xFFD8 && second == 0xFFF7:
		return FormatJPEGLS, nil
	case first == 0xFFD8 && second&0xFF00 == 0xFF00:
		return FormatJPEG, nil
	default:
		return FormatUnknown, newCodecError(StatusInvalidInput, errors.New("stillcodec: no recognized marker at start of input"))
	}
}

// readJPEGHeader parses only the segments up to SOF0, so a stream whose
// entropy-coded scan is truncated or corrupt still reports geometry
// correctly; the corruption surfaces from Decode instead.
func readJPEGHeader(data []byte) (ImageInfo, error) {
	h, err := jpeg.ReadHeader(data)
	if err != nil {
		return ImageInfo{}, newCodecError(StatusCorruptStream, errors.Wrap(err, "stillcodec: reading JPEG header"))
	}
	return ImageInfo{Width: h.Width, Height: h.Height, Components: h.Components, BitsPerSample: h.Bits}, nil
}

// readJPEGLSHeader parses only the segments up to SOF55/LSE, leaving
// the entropy-coded scan unread.
func readJPEGLSHeader(data []byte) (ImageInfo, error) {
	h, err := jpegls.ReadHeader(data)
	if err != nil {
		return ImageInfo{}, newCodecError(StatusCorruptStream, errors.Wrap(err, "stillcodec: reading JPEG-LS header"))
	}
	return ImageInfo{Width: h.Width, Height: h.Height, Components: h.Components, BitsPerSample: h.Bits}, nil
}

func readJ2KHeader(data []byte) (ImageInfo, error) {
	md, err := j2k.DecodeMetadata(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, newCodecError(StatusCorruptStream, errors.Wrap(err, "stillcodec: reading JPEG 2000 header"))
	}
	bits := 8
	if len(md.BitsPerComponent) > 0 {
		bits = md.BitsPerComponent[0]
	}
	return ImageInfo{Width: md.Width, Height: md.Height, Components: md.NumComponents, BitsPerSample: bits}, nil
}

// decodeJ2K bridges internal/j2k's image.Image-based API to pixelbuf.
func decodeJ2K(data []byte) (*pixelbuf.Image, error) {
	m, err := j2k.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imageToPixelbuf(m)
}

// EncodeJPEG compresses pix to baseline sequential JPEG at the given
// quality (1-100).
func EncodeJPEG(pix *pixelbuf.Image, quality int) ([]byte, error) {
	data, err := jpeg.Encode(pix, jpeg.Options{Quality: quality})
	if err != nil {
		return nil, newCodecError(classifyEncodeErr(err), err)
	}
	return data, nil
}

// EncodeJPEGLS compresses pix to JPEG-LS. near == 0 is lossless;
// near > 0 bounds the per-sample reconstruction error to near.
func EncodeJPEGLS(pix *pixelbuf.Image, near int) ([]byte, error) {
	data, err := jpegls.Encode(pix, jpegls.Options{Near: near})
	if err != nil {
		return nil, newCodecError(classifyEncodeErr(err), err)
	}
	return data, nil
}

// EncodeJPEG2000 compresses pix to a raw JPEG 2000 code-stream at the
// given quality (1-100); quality <= 0 selects the codec's lossless
// default.
func EncodeJPEG2000(pix *pixelbuf.Image, quality int) ([]byte, error) {
	img, err := pixelbufToImage(pix)
	if err != nil {
		return nil, newCodecError(StatusInvalidInput, err)
	}
	opts := j2k.DefaultOptions()
	if quality > 0 {
		opts.Quality = quality
		opts.Lossless = false
	}
	var buf bytes.Buffer
	if err := j2k.Encode(&buf, img, opts); err != nil {
		return nil, newCodecError(classifyEncodeErr(err), err)
	}
	return buf.Bytes(), nil
}

// classifyEncodeErr maps an encoder's failure to a Status. Every
// failure an encoder can currently return traces back to input
// validation (bad geometry, unsupported bit depth or component count),
// so this is InvalidInput rather than Internal; a codec package
// returning some other class of error would need a matching case here.
func classifyEncodeErr(err error) Status {
	return StatusInvalidInput
}
