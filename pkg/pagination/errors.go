package pagination

import (
	"errors"
	"fmt"
)

// ErrPaginationLoop is returned when the next page token does not advance past
// the token just used. Retrying would reproduce the same loop.
var ErrPaginationLoop = errors.New("pagination loop detected")

// LoopError describes a non-advancing page token.
type LoopError struct {
	Path     string
	Previous int
	Next     int
}

// Error implements the error interface.
func (e *LoopError) Error() string {
	if e.Next == e.Previous {
		return fmt.Sprintf("%s: %s: page token %d is identical to prior token",
			ErrPaginationLoop, e.Path, e.Next)
	}
	return fmt.Sprintf("%s: %s: page token %d does not advance past prior token %d",
		ErrPaginationLoop, e.Path, e.Next, e.Previous)
}

// Is reports whether target is ErrPaginationLoop.
func (e *LoopError) Is(target error) bool {
	return target == ErrPaginationLoop
}
