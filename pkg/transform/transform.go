// Package transform converts fetched bytes into typed values.
//
// Transforms are pure: the same Input always yields the same value or error,
// and they hold no state between calls.
package transform

import (
	"image"

	"github.com/glorpus-work/fetchcache/pkg/request"
)

// Input is the payload handed to a transform.
type Input struct {
	Body []byte
	// ContentType is the response content type, or the request's declared one when the response had none.
	ContentType string
	// Format is the pixel format declared by the request, used as the image fallback.
	Format request.PixelFormat
}

// Transform converts a payload of one request kind into V.
type Transform[V any] interface {
	Kind() request.Kind
	Convert(in Input) (V, error)
}

// Set selects a transform by request kind.
type Set[V any] struct {
	byKind map[request.Kind]Transform[V]
}

// NewSet builds a set. Later transforms replace earlier ones of the same kind.
func NewSet[V any](transforms ...Transform[V]) Set[V] {
	s := Set[V]{byKind: make(map[request.Kind]Transform[V], len(transforms))}
	for _, t := range transforms {
		if t != nil {
			s.byKind[t.Kind()] = t
		}
	}
	return s
}

// For returns the transform registered for kind.
func (s Set[V]) For(kind request.Kind) (Transform[V], bool) {
	t, ok := s.byKind[kind]
	return t, ok
}

// Len returns the number of registered kinds.
func (s Set[V]) Len() int {
	return len(s.byKind)
}

// Erase adapts a typed transform to one producing any, so different kinds can share a coordinator.
func Erase[V any](t Transform[V]) Transform[any] {
	return erased[V]{inner: t}
}

type erased[V any] struct {
	inner Transform[V]
}

func (e erased[V]) Kind() request.Kind {
	return e.inner.Kind()
}

func (e erased[V]) Convert(in Input) (any, error) {
	v, err := e.inner.Convert(in)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Default returns the raw, image and JSON transforms erased to any.
func Default() Set[any] {
	return NewSet(
		Erase[[]byte](Raw{}),
		Erase[image.Image](NewImage()),
		Erase[*Document](JSON{AllowMissingContentType: true}),
	)
}
