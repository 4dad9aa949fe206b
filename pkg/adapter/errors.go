package adapter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnmapped means an item expected in the flattened list was not found.
	ErrUnmapped = errors.New("item missing from flattened list")
	// ErrHidden means the item exists but sits under a collapsed header.
	ErrHidden = errors.New("item hidden under collapsed header")
	// ErrOutOfRange reports an index outside the list bounds.
	ErrOutOfRange = errors.New("index out of range")
	// ErrNotHeader reports a handle or position that is not a live header.
	ErrNotHeader = errors.New("not a header")
	// ErrNotItem reports a position holding a header where an item was expected.
	ErrNotItem = errors.New("not an item")
	// ErrSwipeDisabled reports a swipe toward a disabled direction.
	ErrSwipeDisabled = errors.New("swipe direction disabled")
	// ErrNoSource reports an operation that needs a bound source list.
	ErrNoSource = errors.New("no source list bound")
)

// MissingBindingError is returned by OnSwiped when no command is bound for
// the swipe direction.
type MissingBindingError struct {
	Direction SwipeDirection
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("no command bound for swipe toward %s: bind one or disable swiping toward %s", e.Direction, e.Direction)
}
