package transform

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/request"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 200, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func TestRaw(t *testing.T) {
	out, err := Raw{}.Convert(Input{Body: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)

	_, err = Raw{}.Convert(Input{})
	assert.ErrorIs(t, err, errors.ErrEmptyBody)
	assert.Equal(t, request.KindRaw, Raw{}.Kind())
}

func TestImage_Convert(t *testing.T) {
	tests := []struct {
		name       string
		body       func(t *testing.T) []byte
		transform  *Image
		declared   request.PixelFormat
		wantFormat request.PixelFormat
		wantSize   image.Point
		wantErr    error
	}{
		{
			name:       "png decodes to primary RGBA",
			body:       func(t *testing.T) []byte { return encodePNG(t, 8, 4) },
			transform:  NewImage(),
			declared:   request.FormatRGBA8888,
			wantFormat: request.FormatRGBA8888,
			wantSize:   image.Pt(8, 4),
		},
		{
			name:       "jpeg decodes to primary RGBA",
			body:       func(t *testing.T) []byte { return encodeJPEG(t, 5, 5) },
			transform:  NewImage(),
			declared:   request.FormatGray8,
			wantFormat: request.FormatRGBA8888,
			wantSize:   image.Pt(5, 5),
		},
		{
			name:       "over budget falls back to declared gray",
			body:       func(t *testing.T) []byte { return encodePNG(t, 10, 10) },
			transform:  &Image{Primary: request.FormatRGBA8888, MaxBytes: 200},
			declared:   request.FormatGray8,
			wantFormat: request.FormatGray8,
			wantSize:   image.Pt(10, 10),
		},
		{
			name:      "over budget without different declared format fails",
			body:      func(t *testing.T) []byte { return encodePNG(t, 10, 10) },
			transform: &Image{Primary: request.FormatRGBA8888, MaxBytes: 200},
			declared:  request.FormatRGBA8888,
			wantErr:   errors.ErrImageTooLarge,
		},
		{
			name:      "fallback also over budget fails",
			body:      func(t *testing.T) []byte { return encodePNG(t, 10, 10) },
			transform: &Image{Primary: request.FormatRGBA8888, MaxBytes: 50},
			declared:  request.FormatGray8,
			wantErr:   errors.ErrImageTooLarge,
		},
		{
			name:       "primary NRGBA",
			body:       func(t *testing.T) []byte { return encodePNG(t, 3, 3) },
			transform:  &Image{Primary: request.FormatNRGBA8888},
			declared:   request.FormatNRGBA8888,
			wantFormat: request.FormatNRGBA8888,
			wantSize:   image.Pt(3, 3),
		},
		{
			name:       "downscales to max dimension keeping aspect ratio",
			body:       func(t *testing.T) []byte { return encodePNG(t, 40, 20) },
			transform:  &Image{Primary: request.FormatRGBA8888, MaxDimension: 10},
			declared:   request.FormatRGBA8888,
			wantFormat: request.FormatRGBA8888,
			wantSize:   image.Pt(10, 5),
		},
		{
			name:      "garbage bytes",
			body:      func(t *testing.T) []byte { return []byte("definitely not an image") },
			transform: NewImage(),
			declared:  request.FormatGray8,
			wantErr:   errors.ErrDecode,
		},
		{
			name:      "truncated png",
			body:      func(t *testing.T) []byte { b := encodePNG(t, 16, 16); return b[:len(b)/2] },
			transform: NewImage(),
			declared:  request.FormatRGBA8888,
			wantErr:   errors.ErrDecode,
		},
		{
			name:      "empty body",
			body:      func(t *testing.T) []byte { return nil },
			transform: NewImage(),
			wantErr:   errors.ErrEmptyBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := tt.transform.Convert(Input{Body: tt.body(t), Format: tt.declared})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, img)
				return
			}
			require.NoError(t, err)
			format, ok := PixelFormatOf(img)
			require.True(t, ok)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, tt.wantSize, img.Bounds().Size())
		})
	}
}

func TestImage_BudgetErrorIsDecodeFailure(t *testing.T) {
	tr := &Image{Primary: request.FormatRGBA8888, MaxBytes: 16}
	_, err := tr.Convert(Input{Body: encodePNG(t, 4, 4), Format: request.FormatRGBA8888})
	assert.ErrorIs(t, err, errors.ErrDecode)
	assert.ErrorIs(t, err, errors.ErrImageTooLarge)
}

func TestImage_PreservesPixels(t *testing.T) {
	img, err := NewImage().Convert(Input{Body: encodePNG(t, 2, 2), Format: request.FormatRGBA8888})
	require.NoError(t, err)

	rgba, ok := img.(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 16, G: 16, B: 200, A: 255}, rgba.RGBAAt(1, 1))
}

func TestJSON_Convert(t *testing.T) {
	tests := []struct {
		name        string
		transform   JSON
		body        string
		contentType string
		wantErr     error
		check       func(t *testing.T, doc *Document)
	}{
		{
			name:        "object",
			body:        `{"name":"a","size":3,"tags":["x","y"]}`,
			contentType: "application/json; charset=utf-8",
			check: func(t *testing.T, doc *Document) {
				assert.True(t, doc.IsObject())
				assert.False(t, doc.IsArray())
				assert.Equal(t, 3, doc.Len())
				v, ok := doc.Get("name")
				assert.True(t, ok)
				assert.Equal(t, "a", v)
				assert.Equal(t, "y", doc.Path("tags", 1).ToString())
				assert.Nil(t, doc.Array())
			},
		},
		{
			name:        "array",
			body:        `[1,2,3]`,
			contentType: "text/json",
			check: func(t *testing.T, doc *Document) {
				assert.True(t, doc.IsArray())
				assert.Equal(t, 3, doc.Len())
				_, ok := doc.Get("x")
				assert.False(t, ok)
				assert.Nil(t, doc.Object())
				assert.Equal(t, "[1,2,3]", doc.String())
			},
		},
		{
			name:        "vendor json",
			body:        `{"data":[]}`,
			contentType: "application/vnd.api+json",
			check: func(t *testing.T, doc *Document) {
				assert.True(t, doc.IsObject())
				assert.Equal(t, []byte(`{"data":[]}`), doc.Raw())
			},
		},
		{
			name:        "javascript",
			body:        `{}`,
			contentType: "text/javascript",
			check: func(t *testing.T, doc *Document) {
				assert.Equal(t, 0, doc.Len())
			},
		},
		{
			name:        "missing content type allowed",
			transform:   JSON{AllowMissingContentType: true},
			body:        `{"a":1}`,
			contentType: "",
			check: func(t *testing.T, doc *Document) {
				assert.True(t, doc.IsObject())
			},
		},
		{
			name:        "missing content type rejected",
			body:        `{"a":1}`,
			contentType: "",
			wantErr:     errors.ErrUnexpectedContentType,
		},
		{
			name:        "html rejected",
			body:        `{"a":1}`,
			contentType: "text/html",
			wantErr:     errors.ErrUnexpectedContentType,
		},
		{
			name:        "malformed content type",
			body:        `{"a":1}`,
			contentType: "application/json; =",
			wantErr:     errors.ErrUnexpectedContentType,
		},
		{
			name:        "scalar rejected",
			body:        `42`,
			contentType: "application/json",
			wantErr:     errors.ErrParse,
		},
		{
			name:        "invalid json",
			body:        `{"a":`,
			contentType: "application/json",
			wantErr:     errors.ErrParse,
		},
		{
			name:        "empty body",
			body:        ``,
			contentType: "application/json",
			wantErr:     errors.ErrEmptyBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := tt.transform.Convert(Input{Body: []byte(tt.body), ContentType: tt.contentType})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			tt.check(t, doc)
		})
	}
}

func TestIsJSONMediaType(t *testing.T) {
	assert.True(t, IsJSONMediaType("APPLICATION/JSON"))
	assert.True(t, IsJSONMediaType("application/problem+json"))
	assert.False(t, IsJSONMediaType("text/plain"))
	assert.False(t, IsJSONMediaType("image/svg+xml"))
}

func TestSet(t *testing.T) {
	set := Default()
	assert.Equal(t, 3, set.Len())

	for _, kind := range []request.Kind{request.KindRaw, request.KindImage, request.KindJSON} {
		tr, ok := set.For(kind)
		require.True(t, ok, kind.String())
		assert.Equal(t, kind, tr.Kind())
	}

	_, ok := NewSet[any]().For(request.KindImage)
	assert.False(t, ok)
}

func TestErase(t *testing.T) {
	tr := Erase[[]byte](Raw{})

	v, err := tr.Convert(Input{Body: []byte("abc")})
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)

	v, err = tr.Convert(Input{})
	assert.ErrorIs(t, err, errors.ErrEmptyBody)
	assert.Nil(t, v)
}
