// Package model holds the items and headers of a grouped list in an arena
// addressed by stable handles. Flattened lists and header child lists store
// handles only, so a node is never duplicated across the two.
package model

import "fmt"

// Kind discriminates the two node variants.
type Kind uint8

const (
	KindItem Kind = iota
	KindHeader
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindHeader:
		return "header"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Handle references a node in a Store. The zero Handle is never valid.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.slot == 0 }

func (h Handle) String() string {
	if h.IsZero() {
		return "#nil"
	}
	return fmt.Sprintf("#%d.%d", h.slot-1, h.gen)
}

// Item describes a plain list item to allocate.
type Item[K any] struct {
	Model       any
	Key         K
	HasKey      bool
	Sequence    Sequence
	Selected    bool
	Highlighted bool
}

// KeyedItem is shorthand for an item with a grouping key.
func KeyedItem[K any](model any, key K, seq Sequence) Item[K] {
	return Item[K]{Model: model, Key: key, HasKey: true, Sequence: seq}
}

// HeaderSpec describes a header to allocate. A header key cannot change
// after construction.
type HeaderSpec[K any] struct {
	Name      string
	Key       K
	Model     any
	Rules     Rule
	Collapsed bool
}
