package source

import (
	"cmp"

	"github.com/vanderheijden86/expandable/pkg/model"
)

// Update moves item into the group for key by removing and re-adding it,
// so subscribers regroup it. The adapter clears the sequence of removed
// items; preserveSequence restores it before the item is added again.
func Update[K cmp.Ordered](store *model.Store[K], l *List, item model.Handle, key K, preserveSequence bool) bool {
	seq := store.Sequence(item)
	if !l.Remove(item) {
		return false
	}
	store.SetKey(item, key)
	if preserveSequence {
		store.SetSequence(item, seq)
	}
	l.Append(item)
	return true
}

// UpdateAll moves every item present in l into the group for key.
func UpdateAll[K cmp.Ordered](store *model.Store[K], l *List, items []model.Handle, key K) int {
	n := 0
	for _, it := range items {
		if !l.Remove(it) {
			continue
		}
		store.SetKey(it, key)
		l.Append(it)
		n++
	}
	return n
}

// Models returns the payloads of type T, in list order.
func Models[T any, K cmp.Ordered](store *model.Store[K], l *List, pred func(T) bool) []T {
	var out []T
	for _, h := range l.items {
		if m, ok := store.Model(h).(T); ok && (pred == nil || pred(m)) {
			out = append(out, m)
		}
	}
	return out
}

// FirstModel returns the first payload of type T accepted by pred.
func FirstModel[T any, K cmp.Ordered](store *model.Store[K], l *List, pred func(T) bool) (T, bool) {
	for _, h := range l.items {
		if m, ok := store.Model(h).(T); ok && (pred == nil || pred(m)) {
			return m, true
		}
	}
	var zero T
	return zero, false
}

// LastModel returns the last payload of type T accepted by pred.
func LastModel[T any, K cmp.Ordered](store *model.Store[K], l *List, pred func(T) bool) (T, bool) {
	for i := len(l.items) - 1; i >= 0; i-- {
		if m, ok := store.Model(l.items[i]).(T); ok && (pred == nil || pred(m)) {
			return m, true
		}
	}
	var zero T
	return zero, false
}

// Find returns the first item whose payload satisfies pred.
func Find[K cmp.Ordered](store *model.Store[K], l *List, pred func(any) bool) model.Handle {
	for _, h := range l.items {
		if pred(store.Model(h)) {
			return h
		}
	}
	return model.Handle{}
}
