// Package source provides the observable list of item handles that feeds an
// adapter. The list is the source of truth; subscribers receive one Change
// per mutation, synchronously and in subscription order.
package source

import (
	"slices"

	"github.com/vanderheijden86/expandable/pkg/model"
)

type subscriber struct {
	id int
	fn func(Change)
}

// List is an ordered, observable collection of item handles.
// It is not safe for concurrent use.
type List struct {
	items  []model.Handle
	subs   []subscriber
	nextID int
}

// NewList returns a list holding items.
func NewList(items ...model.Handle) *List {
	return &List{items: slices.Clone(items)}
}

// Subscribe registers fn for every subsequent change. The returned cancel
// func removes the subscription and may be called more than once.
func (l *List) Subscribe(fn func(Change)) (cancel func()) {
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscriber{id: id, fn: fn})
	return func() {
		l.subs = slices.DeleteFunc(l.subs, func(s subscriber) bool { return s.id == id })
	}
}

// Subscribers returns the number of active subscriptions.
func (l *List) Subscribers() int { return len(l.subs) }

func (l *List) emit(c Change) {
	for _, s := range slices.Clone(l.subs) {
		s.fn(c)
	}
}

func (l *List) Len() int { return len(l.items) }

// At returns the handle at index i, or the zero handle when out of range.
func (l *List) At(i int) model.Handle {
	if i < 0 || i >= len(l.items) {
		return model.Handle{}
	}
	return l.items[i]
}

// Items returns a copy of the contents.
func (l *List) Items() []model.Handle { return slices.Clone(l.items) }

// IndexOf returns the index of h, or -1.
func (l *List) IndexOf(h model.Handle) int { return slices.Index(l.items, h) }

// Contains reports whether h is in the list.
func (l *List) Contains(h model.Handle) bool { return l.IndexOf(h) >= 0 }

// Append adds items at the end.
func (l *List) Append(items ...model.Handle) {
	l.Insert(len(l.items), items...)
}

// Insert adds items at index i, clamped to the list bounds.
func (l *List) Insert(i int, items ...model.Handle) {
	if len(items) == 0 {
		return
	}
	i = max(0, min(i, len(l.items)))
	l.items = slices.Insert(l.items, i, items...)
	l.emit(Added{Items: slices.Clone(items), Start: i})
}

// RemoveAt removes the item at index i. It reports false when i is out of range.
func (l *List) RemoveAt(i int) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	h := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	l.emit(Removed{Items: []model.Handle{h}, Start: i})
	return true
}

// Remove removes the first occurrence of h.
func (l *List) Remove(h model.Handle) bool {
	return l.RemoveAt(l.IndexOf(h))
}

// Move relocates the item at from to index to.
func (l *List) Move(from, to int) bool {
	if from < 0 || from >= len(l.items) || to < 0 || to >= len(l.items) || from == to {
		return false
	}
	h := l.items[from]
	l.items = slices.Delete(l.items, from, from+1)
	l.items = slices.Insert(l.items, to, h)
	l.emit(Moved{Items: []model.Handle{h}, OldStart: from, NewStart: to})
	return true
}

// Set replaces the item at index i with h.
func (l *List) Set(i int, h model.Handle) bool {
	if i < 0 || i >= len(l.items) || l.items[i] == h {
		return false
	}
	old := l.items[i]
	l.items[i] = h
	l.emit(Replaced{Old: []model.Handle{old}, New: []model.Handle{h}, Start: i})
	return true
}

// ResetTo replaces the whole contents.
func (l *List) ResetTo(items []model.Handle) {
	l.items = slices.Clone(items)
	l.emit(Reset{})
}

// Clear empties the list.
func (l *List) Clear() {
	l.ResetTo(nil)
}
