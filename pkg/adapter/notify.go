package adapter

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/metrics"
)

// NotificationKind identifies a refresh notification for the host view.
type NotificationKind uint8

const (
	ItemInserted NotificationKind = iota
	ItemRemoved
	ItemMoved
	ItemChanged
	ItemRangeInserted
	ItemRangeRemoved
	ItemRangeChanged
	DataSetChanged
)

var kindNames = [...]string{
	ItemInserted:      "item_inserted",
	ItemRemoved:       "item_removed",
	ItemMoved:         "item_moved",
	ItemChanged:       "item_changed",
	ItemRangeInserted: "item_range_inserted",
	ItemRangeRemoved:  "item_range_removed",
	ItemRangeChanged:  "item_range_changed",
	DataSetChanged:    "data_set_changed",
}

func (k NotificationKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("notification(%d)", uint8(k))
}

// Notification is the minimal refresh a host view needs after a change.
// ToPosition is set for moves, Count for range notifications.
type Notification struct {
	Kind       NotificationKind
	Position   int
	ToPosition int
	Count      int
}

func (n Notification) String() string {
	switch n.Kind {
	case ItemMoved:
		return fmt.Sprintf("%s(%d->%d)", n.Kind, n.Position, n.ToPosition)
	case ItemRangeInserted, ItemRangeRemoved, ItemRangeChanged:
		return fmt.Sprintf("%s(%d,%d)", n.Kind, n.Position, n.Count)
	case DataSetChanged:
		return n.Kind.String()
	default:
		return fmt.Sprintf("%s(%d)", n.Kind, n.Position)
	}
}

// LayoutHost lets the adapter avoid notifying a view that is in the middle
// of computing its layout.
type LayoutHost interface {
	IsComputingLayout() bool
	// Post runs fn after the current layout pass.
	Post(fn func())
}

func (a *Adapter[K]) emit(n Notification) {
	if a.rebuilding {
		return
	}
	if a.host != nil && a.host.IsComputingLayout() {
		metrics.DeferredNotifications.Inc()
		debug.Log("adapter: deferring %s until layout completes", n)
		a.host.Post(func() { a.deliver(n) })
		return
	}
	a.deliver(n)
}

func (a *Adapter[K]) deliver(n Notification) {
	debug.Log("adapter: notify %s", n)
	if a.notify != nil {
		a.notify(n)
	}
}

// emitRanges reports ItemRangeChanged over each contiguous run of positions.
func (a *Adapter[K]) emitRanges(positions []int) {
	if len(positions) == 0 {
		return
	}
	positions = slices.Clone(positions)
	slices.Sort(positions)
	positions = slices.Compact(positions)
	start, count := positions[0], 1
	for _, p := range positions[1:] {
		if p == start+count {
			count++
			continue
		}
		a.emit(Notification{Kind: ItemRangeChanged, Position: start, Count: count})
		start, count = p, 1
	}
	a.emit(Notification{Kind: ItemRangeChanged, Position: start, Count: count})
}
