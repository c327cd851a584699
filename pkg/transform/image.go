package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/request"
)

// DefaultImageMaxBytes caps the memory a single decoded image may occupy.
const DefaultImageMaxBytes = 64 << 20

// Image decodes a payload into an image laid out in a concrete pixel format.
//
// Decoding is attempted in Primary first. If that fails and the request declared
// a different format, it is retried once in the declared format.
type Image struct {
	// Primary is the first format attempted.
	Primary request.PixelFormat
	// MaxBytes bounds the size of the converted image. Zero means DefaultImageMaxBytes.
	MaxBytes int64
	// MaxDimension downscales images whose longer side exceeds it. Zero disables scaling.
	MaxDimension int
}

// NewImage returns an image transform with RGBA8888 as the primary format.
func NewImage() *Image {
	return &Image{Primary: request.FormatRGBA8888, MaxBytes: DefaultImageMaxBytes}
}

// Kind implements Transform.
func (t *Image) Kind() request.Kind {
	return request.KindImage
}

// Convert decodes in.Body.
func (t *Image) Convert(in Input) (image.Image, error) {
	if len(in.Body) == 0 {
		return nil, errors.ErrEmptyBody
	}

	img, err := t.decodeAs(in.Body, t.Primary)
	if err == nil {
		return img, nil
	}
	if in.Format == t.Primary {
		return nil, err
	}

	logger.Debug("retrying image decode with declared format", logger.Fields{
		"primary":  t.Primary.String(),
		"fallback": in.Format.String(),
		"error":    err.Error(),
	})
	return t.decodeAs(in.Body, in.Format)
}

func (t *Image) maxBytes() int64 {
	if t.MaxBytes <= 0 {
		return DefaultImageMaxBytes
	}
	return t.MaxBytes
}

func (t *Image) decodeAs(body []byte, format request.PixelFormat) (img image.Image, err error) {
	bpp, err := bytesPerPixel(format)
	if err != nil {
		return nil, err
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(errors.ErrDecode, err)
	}

	w, h := t.targetSize(cfg.Width, cfg.Height)
	need := int64(w) * int64(h) * bpp
	if need > t.maxBytes() {
		return nil, errors.Join(errors.ErrDecode, errors.Wrapf(errors.ErrImageTooLarge,
			"%s %dx%d as %s needs %d bytes, limit %d", name, w, h, format, need, t.maxBytes()))
	}

	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = errors.Join(errors.ErrDecode, fmt.Errorf("%s decoder panicked: %v", name, rec))
		}
	}()

	src, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(errors.ErrDecode, err)
	}

	return convert(src, format, image.Rect(0, 0, w, h)), nil
}

func (t *Image) targetSize(w, h int) (int, int) {
	if t.MaxDimension <= 0 || (w <= t.MaxDimension && h <= t.MaxDimension) {
		return w, h
	}
	if w >= h {
		return t.MaxDimension, max(1, h*t.MaxDimension/w)
	}
	return max(1, w*t.MaxDimension/h), t.MaxDimension
}

func bytesPerPixel(format request.PixelFormat) (int64, error) {
	switch format {
	case request.FormatRGBA8888, request.FormatNRGBA8888:
		return 4, nil
	case request.FormatGray8:
		return 1, nil
	default:
		return 0, errors.Join(errors.ErrDecode, fmt.Errorf("unsupported pixel format %s", format))
	}
}

func newTarget(format request.PixelFormat, r image.Rectangle) draw.Image {
	switch format {
	case request.FormatNRGBA8888:
		return image.NewNRGBA(r)
	case request.FormatGray8:
		return image.NewGray(r)
	default:
		return image.NewRGBA(r)
	}
}

func convert(src image.Image, format request.PixelFormat, r image.Rectangle) image.Image {
	dst := newTarget(format, r)
	if r.Dx() == src.Bounds().Dx() && r.Dy() == src.Bounds().Dy() {
		draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, r, src, src.Bounds(), draw.Src, nil)
	return dst
}

// PixelFormatOf reports the layout of an image produced by Image.
func PixelFormatOf(img image.Image) (request.PixelFormat, bool) {
	switch img.ColorModel() {
	case color.RGBAModel:
		return request.FormatRGBA8888, true
	case color.NRGBAModel:
		return request.FormatNRGBA8888, true
	case color.GrayModel:
		return request.FormatGray8, true
	default:
		return 0, false
	}
}
