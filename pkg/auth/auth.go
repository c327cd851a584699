// Package auth applies credentials to outgoing fetch requests.
//
//go:generate mockgen -destination=./mocks/auth.go -package=mocks . Authenticator
package auth

import (
	"net/http"
	"strings"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

// Authenticator adds credentials to a request before it is sent.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	// NoneType sends requests without credentials.
	NoneType Type = ""
	// BasicAuthType represents HTTP Basic Authentication.
	BasicAuthType Type = "basic"
	// BearerAuthType represents Bearer token authentication.
	BearerAuthType Type = "bearer"
	// HeaderAuthType represents a single custom header such as an API key.
	HeaderAuthType Type = "header"
)

// ParseType validates an authentication type name. The empty string means no authentication.
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case NoneType, BasicAuthType, BearerAuthType, HeaderAuthType:
		return t, nil
	default:
		return NoneType, errors.Wrapf(errors.ErrUnknownAuthType, "%q, must be one of: basic, bearer, header", name)
	}
}

// Credentials holds every field an authenticator may need. Only the fields of the chosen type are read.
type Credentials struct {
	Username string
	Password string
	Token    string
	Header   string
	Value    string
}

// New builds the authenticator for t. NoneType returns nil.
func New(t Type, c Credentials) (Authenticator, error) {
	switch t {
	case NoneType:
		return nil, nil
	case BasicAuthType:
		if c.Username == "" {
			return nil, errors.Wrap(errors.ErrAuthCredentials, "basic authentication requires a username")
		}
		return Basic{Username: c.Username, Password: c.Password}, nil
	case BearerAuthType:
		if c.Token == "" {
			return nil, errors.Wrap(errors.ErrAuthCredentials, "bearer authentication requires a token")
		}
		return Bearer{Token: c.Token}, nil
	case HeaderAuthType:
		if c.Header == "" {
			return nil, errors.Wrap(errors.ErrAuthCredentials, "header authentication requires a header name")
		}
		return Header{Name: c.Header, Value: c.Value}, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownAuthType, "%q", string(t))
	}
}

// Basic represents HTTP Basic Authentication credentials.
type Basic struct {
	Username string
	Password string
}

// Apply sets the Authorization header.
func (b Basic) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns BasicAuthType.
func (b Basic) Type() Type { return BasicAuthType }

// Bearer represents Bearer token authentication.
type Bearer struct {
	Token string
}

// Apply sets the Authorization header.
func (b Bearer) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns BearerAuthType.
func (b Bearer) Type() Type { return BearerAuthType }

// Header sends a secret in a custom header. It replaces any value the request already carries.
type Header struct {
	Name  string
	Value string
}

// Apply sets the header.
func (h Header) Apply(req *http.Request) error {
	if h.Name == "" {
		return errors.Wrap(errors.ErrAuthCredentials, "header name is empty")
	}
	req.Header.Set(h.Name, h.Value)
	return nil
}

// Type returns HeaderAuthType.
func (h Header) Type() Type { return HeaderAuthType }
