package adapter

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/expandable/pkg/model"
)

// ItemCount returns the number of rows in the flattened list.
func (a *Adapter[K]) ItemCount() int { return len(a.flat) }

// Item returns the handle at flattened position pos, or the zero handle.
func (a *Adapter[K]) Item(pos int) model.Handle {
	if pos < 0 || pos >= len(a.flat) {
		return model.Handle{}
	}
	return a.flat[pos]
}

// Flattened returns a copy of the flattened list.
func (a *Adapter[K]) Flattened() []model.Handle { return slices.Clone(a.flat) }

// PositionOf returns the flattened position of h, or -1.
func (a *Adapter[K]) PositionOf(h model.Handle) int { return slices.Index(a.flat, h) }

// IsHeader reports whether the row at pos is a header.
func (a *Adapter[K]) IsHeader(pos int) bool { return a.store.IsHeader(a.Item(pos)) }

// ViewType returns the host template id for the row at pos.
func (a *Adapter[K]) ViewType(pos int) int {
	h := a.Item(pos)
	header := a.store.IsHeader(h)
	if a.viewType != nil {
		return a.viewType(h, header)
	}
	if header {
		return ViewTypeHeader
	}
	return ViewTypeItem
}

// Headers returns all headers in flattened order.
func (a *Adapter[K]) Headers() []model.Handle {
	var out []model.Handle
	for _, h := range a.flat {
		if a.store.IsHeader(h) {
			out = append(out, h)
		}
	}
	return out
}

// HeaderKeys returns the keys of all headers in flattened order.
func (a *Adapter[K]) HeaderKeys() []K {
	hs := a.Headers()
	out := make([]K, len(hs))
	for i, h := range hs {
		out[i], _ = a.store.Key(h)
	}
	return out
}

// HeaderFor returns the header for key.
func (a *Adapter[K]) HeaderFor(key K) (model.Handle, bool) {
	h, ok := a.headers[key]
	return h, ok
}

// HeaderOf returns the header holding item. A header is its own header.
func (a *Adapter[K]) HeaderOf(item model.Handle) model.Handle {
	if a.store.IsHeader(item) {
		return item
	}
	if p := a.store.Parent(item); !p.IsZero() {
		return p
	}
	if k, ok := a.store.Key(item); ok {
		return a.headers[k]
	}
	return model.Handle{}
}

// HeaderAt returns the header owning the row at pos.
func (a *Adapter[K]) HeaderAt(pos int) model.Handle {
	return a.HeaderOf(a.Item(pos))
}

// HeaderPosition returns the flattened position of the header owning the
// row at pos.
func (a *Adapter[K]) HeaderPosition(pos int) (int, error) {
	if pos < 0 || pos >= len(a.flat) {
		return -1, fmt.Errorf("header position for %d of %d rows: %w", pos, len(a.flat), ErrOutOfRange)
	}
	hp := a.PositionOf(a.HeaderAt(pos))
	if hp < 0 {
		return -1, fmt.Errorf("header position for row %d (%v): %w", pos, a.flat[pos], ErrUnmapped)
	}
	return hp, nil
}

// IsCollapsed reports whether the header for key is collapsed.
func (a *Adapter[K]) IsCollapsed(key K) bool {
	return a.store.Collapsed(a.headers[key])
}

// CountVisibleItemsInHeader returns how many children of header are rendered.
func (a *Adapter[K]) CountVisibleItemsInHeader(header model.Handle) int {
	if a.store.Collapsed(header) {
		return 0
	}
	return a.store.Count(header)
}

// IsDragging reports whether a drag is in progress.
func (a *Adapter[K]) IsDragging() bool { return a.state == StateDragging }

// State returns the interaction state.
func (a *Adapter[K]) State() State { return a.state }

// SelectedItem returns the item last picked up or dropped.
func (a *Adapter[K]) SelectedItem() model.Handle { return a.selected }

// ViewPosition maps an index of the source list to a flattened position.
func (a *Adapter[K]) ViewPosition(sourceIndex int) (int, error) {
	if a.src == nil {
		return -1, ErrNoSource
	}
	if sourceIndex < 0 || sourceIndex >= a.src.Len() {
		return -1, fmt.Errorf("source index %d of %d: %w", sourceIndex, a.src.Len(), ErrOutOfRange)
	}
	h := a.src.At(sourceIndex)
	if pos := a.PositionOf(h); pos >= 0 {
		return pos, nil
	}
	if a.store.Collapsed(a.HeaderOf(h)) {
		return -1, fmt.Errorf("source index %d (%v): %w", sourceIndex, h, ErrHidden)
	}
	return -1, fmt.Errorf("source index %d (%v): %w", sourceIndex, h, ErrUnmapped)
}

// OnHeaderClick toggles header between collapsed and expanded, inserting or
// removing its children in the flattened list. suppress skips the range
// notification, for replaying saved state before the host lays out.
func (a *Adapter[K]) OnHeaderClick(header model.Handle, suppress bool) error {
	a.checkThread("OnHeaderClick")
	pos := a.PositionOf(header)
	if pos < 0 || !a.store.IsHeader(header) {
		return fmt.Errorf("toggle %v: %w", header, ErrNotHeader)
	}
	children := a.store.Children(header)
	start := pos + 1
	n := Notification{Position: start, Count: len(children)}
	if a.store.Collapsed(header) {
		a.flat = slices.Insert(a.flat, start, children...)
		a.store.SetCollapsed(header, false)
		n.Kind = ItemRangeInserted
	} else {
		a.flat = slices.Delete(a.flat, start, start+len(children))
		a.store.SetCollapsed(header, true)
		n.Kind = ItemRangeRemoved
	}
	if !suppress {
		a.emit(n)
	}
	return nil
}

// ToggleHeader toggles the header for key.
func (a *Adapter[K]) ToggleHeader(key K, suppress bool) error {
	h, ok := a.headers[key]
	if !ok {
		return fmt.Errorf("toggle key %v: %w", key, ErrNotHeader)
	}
	return a.OnHeaderClick(h, suppress)
}

// OnHeaderLongClick forwards a long press to the configured handler.
func (a *Adapter[K]) OnHeaderLongClick(header model.Handle) {
	if a.onLongClick != nil && a.store.IsHeader(header) {
		a.onLongClick(header)
	}
}

// addHeader returns the header for spec.Key, allocating and inserting it
// when missing.
func (a *Adapter[K]) addHeader(spec model.HeaderSpec[K]) (model.Handle, bool) {
	if h, ok := a.headers[spec.Key]; ok {
		return h, false
	}
	h := a.store.NewHeader(spec)
	a.insertHeader(h)
	return h, true
}

// insertHeader places the empty header h before the first header with a
// greater key.
func (a *Adapter[K]) insertHeader(h model.Handle) {
	key, _ := a.store.Key(h)
	a.headers[key] = h
	pos := len(a.flat)
	for i, row := range a.flat {
		if !a.store.IsHeader(row) || row == h {
			continue
		}
		if k, _ := a.store.Key(row); k > key {
			pos = i
			break
		}
	}
	a.flat = slices.Insert(a.flat, pos, h)
	a.emit(Notification{Kind: ItemInserted, Position: pos})
}

// removeTemporary drops header when it is temporary and empty.
func (a *Adapter[K]) removeTemporary(header model.Handle) bool {
	if !a.store.Rules(header).Has(model.RuleTemporary) || a.store.Count(header) > 0 {
		return false
	}
	key, _ := a.store.Key(header)
	if a.headers[key] == header {
		delete(a.headers, key)
	}
	pos := a.PositionOf(header)
	a.store.Release(header)
	if pos < 0 {
		return true
	}
	a.flat = slices.Delete(a.flat, pos, pos+1)
	a.emit(Notification{Kind: ItemRemoved, Position: pos})
	return true
}
