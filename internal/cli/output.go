package cli

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"github.com/glorpus-work/fetchcache/pkg/transform"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe summarizes a fetched value in one line.
func describe(v any) string {
	switch value := v.(type) {
	case []byte:
		return fmt.Sprintf("raw, %s", humanize.IBytes(uint64(len(value))))
	case image.Image:
		b := value.Bounds()
		format := "unknown"
		if f, ok := transform.PixelFormatOf(value); ok {
			format = f.String()
		}
		return fmt.Sprintf("image %dx%d, %s", b.Dx(), b.Dy(), format)
	case *transform.Document:
		switch {
		case value.IsObject():
			return fmt.Sprintf("json object, %d keys", value.Len())
		case value.IsArray():
			return fmt.Sprintf("json array, %d items", value.Len())
		}
		return "json"
	case nil:
		return "empty"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// encodeValue turns a fetched value back into bytes for writing to disk.
// Images are written as PNG in their converted pixel format.
func encodeValue(v any) ([]byte, error) {
	switch value := v.(type) {
	case []byte:
		return value, nil
	case *transform.Document:
		return value.Raw(), nil
	case image.Image:
		var buf bytes.Buffer
		if err := png.Encode(&buf, value); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("cannot write value of type %T", v)
	}
}
