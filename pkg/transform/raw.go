package transform

import (
	"github.com/glorpus-work/fetchcache/pkg/errors"
	"github.com/glorpus-work/fetchcache/pkg/request"
)

// Raw passes the payload through unchanged.
type Raw struct{}

// Kind implements Transform.
func (Raw) Kind() request.Kind {
	return request.KindRaw
}

// Convert returns the body itself. An empty body is an error.
func (Raw) Convert(in Input) ([]byte, error) {
	if len(in.Body) == 0 {
		return nil, errors.ErrEmptyBody
	}
	return in.Body, nil
}
