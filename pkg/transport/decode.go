package transport

import (
	"fmt"
	"io"
	"strings"

	"github.com/mholt/archives"
)

// decompressor picks the decoder for a Content-Encoding header value.
// An empty or identity encoding returns nil.
func decompressor(encoding string) (archives.Decompressor, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return nil, nil
	case "gzip", "x-gzip":
		return archives.Gz{}, nil
	case "br":
		return archives.Brotli{}, nil
	case "zstd":
		return archives.Zstd{}, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// decodeBody wraps r so that reading it yields the decoded payload.
func decodeBody(encoding string, r io.Reader) (io.ReadCloser, error) {
	dec, err := decompressor(encoding)
	if err != nil {
		return nil, err
	}
	if dec == nil {
		return io.NopCloser(r), nil
	}
	rc, err := dec.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open %s decoder: %w", encoding, err)
	}
	return rc, nil
}
