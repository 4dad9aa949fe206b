package adapter

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/metrics"
	"github.com/vanderheijden86/expandable/pkg/model"
	"github.com/vanderheijden86/expandable/pkg/source"
)

// Apply brings the flattened list in line with one source change. It is
// called by the source subscription and may be called directly when the
// adapter is driven without one.
func (a *Adapter[K]) Apply(c source.Change) error {
	defer metrics.Timer(metrics.IncrementalApply)()
	debug.Log("adapter: apply %s", c)
	switch c := c.(type) {
	case source.Added:
		for _, h := range c.Items {
			if err := a.added(h); err != nil {
				return err
			}
		}
	case source.Removed:
		for _, h := range c.Items {
			if err := a.removed(h); err != nil {
				return err
			}
		}
	case source.Moved:
		a.moved(c)
	case source.Replaced:
		return a.replaced(c)
	case source.Reset:
		a.rebuild()
	case nil:
		a.rebuild()
	default:
		return fmt.Errorf("unsupported change %T", c)
	}
	return nil
}

func (a *Adapter[K]) added(item model.Handle) error {
	if !a.store.Valid(item) {
		return fmt.Errorf("add %v: %w", item, ErrUnmapped)
	}
	if a.store.IsHeader(item) {
		a.warn("header %v added to the source list; headers are generated and it is ignored", item)
		return nil
	}
	key, hasKey := a.store.Key(item)
	header, ok := model.Handle{}, false
	if hasKey {
		header, ok = a.headers[key]
	}
	if !ok {
		spec := a.engine.Generate(key, hasKey)
		if !hasKey {
			a.store.SetKey(item, spec.Key)
		}
		header, _ = a.addHeader(spec)
	}

	count := a.store.Count(header)
	offset := count
	if seq, ok := a.store.Sequence(item).Get(); ok && seq >= 0 && seq <= count {
		offset = seq
	}
	a.store.InsertChild(header, offset, item)
	if a.store.Collapsed(header) {
		return nil
	}
	pos := a.PositionOf(header) + offset + 1
	a.flat = slices.Insert(a.flat, pos, item)
	a.emit(Notification{Kind: ItemInserted, Position: pos})
	return nil
}

func (a *Adapter[K]) removed(item model.Handle) error {
	a.store.SetSequence(item, model.NoSequence)
	header := a.HeaderOf(item)
	if header.IsZero() {
		return fmt.Errorf("remove %v: no header: %w", item, ErrUnmapped)
	}
	a.store.RemoveChild(header, item)
	if !a.store.Collapsed(header) {
		pos := a.PositionOf(item)
		if pos < 0 {
			return fmt.Errorf("remove %v: %w", item, ErrUnmapped)
		}
		a.flat = slices.Delete(a.flat, pos, pos+1)
		a.emit(Notification{Kind: ItemRemoved, Position: pos})
	}
	a.removeTemporary(header)
	return nil
}

// moved reports each visible moved item as changed in place. Rows are
// ordered by sequence within their header, so a reorder of the source maps
// every (old, new) pair to the same flattened position.
func (a *Adapter[K]) moved(c source.Moved) {
	for _, h := range c.Items {
		pos := a.PositionOf(h)
		if pos < 0 {
			continue
		}
		a.emit(Notification{Kind: ItemChanged, Position: pos})
	}
}

// replaced swaps new items into the slots of old ones sharing their key and
// reports the touched rows as changed ranges. An item with a different key
// is regrouped through remove and add.
func (a *Adapter[K]) replaced(c source.Replaced) error {
	var changed []int
	for i, old := range c.Old {
		if i >= len(c.New) {
			if err := a.removed(old); err != nil {
				return err
			}
			continue
		}
		nu := c.New[i]
		header := a.HeaderOf(old)
		oldKey, oldHas := a.store.Key(old)
		newKey, newHas := a.store.Key(nu)
		if header.IsZero() || !oldHas || !newHas || oldKey != newKey || a.store.IsHeader(nu) {
			if err := a.removed(old); err != nil {
				return err
			}
			if err := a.added(nu); err != nil {
				return err
			}
			continue
		}
		idx := a.store.IndexOfChild(header, old)
		a.store.RemoveChild(header, old)
		a.store.InsertChild(header, idx, nu)
		if pos := a.PositionOf(old); pos >= 0 {
			a.flat[pos] = nu
			changed = append(changed, pos)
		}
	}
	for _, nu := range c.New[min(len(c.Old), len(c.New)):] {
		if err := a.added(nu); err != nil {
			return err
		}
	}
	a.emitRanges(changed)
	return nil
}
