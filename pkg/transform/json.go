package transform

import (
	"fmt"
	"mime"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/request"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON parses a payload into a Document. Only objects and arrays are accepted at the top level.
type JSON struct {
	// AllowMissingContentType accepts payloads that carry no content type at all.
	AllowMissingContentType bool
}

// Kind implements Transform.
func (JSON) Kind() request.Kind {
	return request.KindJSON
}

// Convert checks the content type and parses the body.
func (t JSON) Convert(in Input) (*Document, error) {
	if len(in.Body) == 0 {
		return nil, errors.ErrEmptyBody
	}
	if err := t.checkContentType(in.ContentType); err != nil {
		return nil, err
	}

	var v interface{}
	if err := json.Unmarshal(in.Body, &v); err != nil {
		return nil, errors.Join(errors.ErrParse, err)
	}

	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return &Document{value: v, raw: in.Body}, nil
	default:
		return nil, errors.Join(errors.ErrParse, fmt.Errorf("top-level value is %T, want object or array", v))
	}
}

func (t JSON) checkContentType(contentType string) error {
	if strings.TrimSpace(contentType) == "" {
		if t.AllowMissingContentType {
			return nil
		}
		return errors.Wrap(errors.ErrUnexpectedContentType, "missing content type")
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return errors.Join(errors.ErrUnexpectedContentType, err)
	}
	if !IsJSONMediaType(mediaType) {
		return errors.Wrapf(errors.ErrUnexpectedContentType, "%q", mediaType)
	}
	return nil
}

// IsJSONMediaType reports whether a media type (without parameters) denotes JSON.
func IsJSONMediaType(mediaType string) bool {
	mediaType = strings.ToLower(mediaType)
	switch mediaType {
	case "application/json", "text/json", "text/javascript":
		return true
	}
	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

// Document is a parsed JSON object or array.
type Document struct {
	value interface{}
	raw   []byte
}

// IsObject reports whether the document is a JSON object.
func (d *Document) IsObject() bool {
	_, ok := d.value.(map[string]interface{})
	return ok
}

// IsArray reports whether the document is a JSON array.
func (d *Document) IsArray() bool {
	_, ok := d.value.([]interface{})
	return ok
}

// Object returns the object members, or nil for an array.
func (d *Document) Object() map[string]interface{} {
	m, _ := d.value.(map[string]interface{})
	return m
}

// Array returns the array elements, or nil for an object.
func (d *Document) Array() []interface{} {
	a, _ := d.value.([]interface{})
	return a
}

// Get returns a top-level member of an object document.
func (d *Document) Get(key string) (interface{}, bool) {
	m, ok := d.value.(map[string]interface{})
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Path looks up a nested value. Path elements are object keys (string) or array indexes (int).
func (d *Document) Path(path ...interface{}) jsoniter.Any {
	return json.Get(d.raw, path...)
}

// Len returns the number of members or elements.
func (d *Document) Len() int {
	switch v := d.value.(type) {
	case map[string]interface{}:
		return len(v)
	case []interface{}:
		return len(v)
	default:
		return 0
	}
}

// Raw returns the bytes the document was parsed from.
func (d *Document) Raw() []byte {
	return d.raw
}

func (d *Document) String() string {
	out, err := json.Marshal(d.value)
	if err != nil {
		return string(d.raw)
	}
	return string(out)
}
