package adapter

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable reports that the catalog fetch did not succeed.
var ErrUpstreamUnavailable = errors.New("upstream catalog unavailable")

// UpstreamError carries the details of a failed catalog fetch.
// StatusCode is zero for transport failures.
type UpstreamError struct {
	Source     string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %s: status %d: %s", ErrUpstreamUnavailable, e.Source, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: status %d", ErrUpstreamUnavailable, e.Source, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrUpstreamUnavailable, e.Source, e.Err)
	default:
		return fmt.Sprintf("%s: %s", ErrUpstreamUnavailable, e.Source)
	}
}

// Is makes every UpstreamError match ErrUpstreamUnavailable.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

func (e *UpstreamError) Unwrap() error { return e.Err }
