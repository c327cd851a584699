// Package request describes a logical request for a remote resource.
package request

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

// Kind selects the byte transform applied to a fetched payload.
type Kind int

const (
	// KindRaw leaves the payload untouched.
	KindRaw Kind = iota
	// KindImage decodes the payload into an image.
	KindImage
	// KindJSON parses the payload as a JSON object or array.
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindImage:
		return "image"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a CLI or config name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "raw", "":
		return KindRaw, nil
	case "image":
		return KindImage, nil
	case "json":
		return KindJSON, nil
	default:
		return KindRaw, fmt.Errorf("unknown request kind %q, must be one of: raw, image, json", name)
	}
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindRaw, KindImage, KindJSON}
}

// PixelFormat is the in-memory layout requested for decoded images.
type PixelFormat int

const (
	// FormatRGBA8888 stores 8 bits per channel with premultiplied alpha.
	FormatRGBA8888 PixelFormat = iota
	// FormatNRGBA8888 stores 8 bits per channel with straight alpha.
	FormatNRGBA8888
	// FormatGray8 stores a single 8 bit luminance channel.
	FormatGray8
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatNRGBA8888:
		return "NRGBA8888"
	case FormatGray8:
		return "Gray8"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a name written by PixelFormat.String back to the format. Case is ignored.
func ParseFormat(name string) (PixelFormat, error) {
	for _, f := range []PixelFormat{FormatRGBA8888, FormatNRGBA8888, FormatGray8} {
		if strings.EqualFold(name, f.String()) {
			return f, nil
		}
	}
	return FormatRGBA8888, fmt.Errorf("unknown pixel format %q, must be one of: RGBA8888, NRGBA8888, Gray8", name)
}

// LowMemoryThreshold is the memory limit at or below which images default to FormatGray8.
const LowMemoryThreshold = 34603008

// ContentTypeJSON is the content type declared by NewJSON.
const ContentTypeJSON = "application/json"

// memoryLimit reports the runtime soft memory limit without changing it.
var memoryLimit = func() int64 { return debug.SetMemoryLimit(-1) }

// PreferredFormat picks the pixel format for image requests from the runtime memory limit.
func PreferredFormat() PixelFormat {
	if memoryLimit() > LowMemoryThreshold {
		return FormatRGBA8888
	}
	return FormatGray8
}

// Header is a single request header. Order is preserved on the wire.
type Header struct {
	Name  string
	Value string
}

// Request is an immutable description of a resource to fetch. The URL is the coalescing key.
type Request[M any] struct {
	URL         string
	ContentType string
	Headers     []Header
	Metadata    M
	Kind        Kind
	Format      PixelFormat
}

// New creates a raw request for url.
func New[M any](url string, metadata M) (*Request[M], error) {
	if url == "" {
		return nil, errors.ErrEmptyURL
	}
	return &Request[M]{
		URL:      url,
		Headers:  []Header{{Name: "Accept-Encoding", Value: "gzip"}},
		Metadata: metadata,
		Kind:     KindRaw,
		Format:   PreferredFormat(),
	}, nil
}

// NewJSON creates a request whose payload is parsed as JSON.
func NewJSON[M any](url string, metadata M) (*Request[M], error) {
	r, err := New(url, metadata)
	if err != nil {
		return nil, err
	}
	r.ContentType = ContentTypeJSON
	r.Kind = KindJSON
	return r, nil
}

// NewImage creates a request whose payload is decoded as an image in the preferred format.
func NewImage[M any](url string, metadata M) (*Request[M], error) {
	r, err := New(url, metadata)
	if err != nil {
		return nil, err
	}
	r.Kind = KindImage
	return r, nil
}

// WithHeader returns a copy of r with an additional header.
func (r *Request[M]) WithHeader(name, value string) *Request[M] {
	c := *r
	c.Headers = make([]Header, 0, len(r.Headers)+1)
	c.Headers = append(c.Headers, r.Headers...)
	c.Headers = append(c.Headers, Header{Name: name, Value: value})
	return &c
}

// WithFormat returns a copy of r declaring a different pixel format.
func (r *Request[M]) WithFormat(format PixelFormat) *Request[M] {
	c := *r
	c.Headers = append([]Header(nil), r.Headers...)
	c.Format = format
	return &c
}

// HeaderValue returns the first value for name, compared case-insensitively.
func (r *Request[M]) HeaderValue(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

func (r *Request[M]) String() string {
	if r.ContentType == "" {
		return r.URL
	}
	return r.URL + "(Content-Type: " + r.ContentType + ")"
}
