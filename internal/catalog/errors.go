package catalog

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is matched by every *NotFoundError.
var ErrModelNotFound = errors.New("model not found")

// NotFoundError reports an identifier that matched no record.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrModelNotFound, e.Identifier)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrModelNotFound }
