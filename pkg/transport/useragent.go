package transport

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/glorpus-work/fetchcache/internal/version"
)

// DefaultUserAgent describes this library, the platform and the Go runtime.
func DefaultUserAgent() string {
	return fmt.Sprintf("fetchcache/%s (%s; %s) Go/%s",
		version.Version, runtime.GOOS, runtime.GOARCH, strings.TrimPrefix(runtime.Version(), "go"))
}
