package adapter

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/metrics"
	"github.com/vanderheijden86/expandable/pkg/model"
)

// State is the interaction state of the list.
type State uint8

const (
	StateIdle State = iota
	StateDragging
	StateSwiping
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateSwiping:
		return "swiping"
	default:
		return "idle"
	}
}

// ActionState is reported by the gesture layer when a row is picked up.
type ActionState uint8

const (
	ActionIdle ActionState = iota
	ActionSwipe
	ActionDrag
)

// SwipeDirection is the edge a row is swiped toward.
type SwipeDirection uint8

const (
	SwipeStart SwipeDirection = iota + 1
	SwipeEnd

	// SwipeLeft and SwipeRight are the left-to-right layout names.
	SwipeLeft  = SwipeStart
	SwipeRight = SwipeEnd
)

func (d SwipeDirection) String() string {
	switch d {
	case SwipeStart:
		return "start"
	case SwipeEnd:
		return "end"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// SwipeDirectionFor maps a horizontal swipe offset to a direction.
// It reports false for a zero offset.
func SwipeDirectionFor(dx float64) (SwipeDirection, bool) {
	switch {
	case dx < 0:
		return SwipeStart, true
	case dx > 0:
		return SwipeEnd, true
	}
	return 0, false
}

// Command is an action bound to a swipe direction. It receives the item's
// Model.
type Command interface {
	CanExecute(arg any) bool
	Execute(arg any)
}

// CommandFunc adapts a func into a Command that can always execute.
type CommandFunc func(arg any)

func (f CommandFunc) CanExecute(any) bool { return true }
func (f CommandFunc) Execute(arg any)     { f(arg) }

// DragFlags are the allowed drag directions for a row.
type DragFlags uint8

const (
	DragUp DragFlags = 1 << iota
	DragDown
)

// SwipeFlags are the allowed swipe directions for a row.
type SwipeFlags uint8

const (
	SwipeTowardStart SwipeFlags = 1 << iota
	SwipeTowardEnd
)

// MovementFlags returns the gestures allowed for the row at pos. Headers,
// unknown rows and rows without a header allow none.
func (a *Adapter[K]) MovementFlags(pos int) (DragFlags, SwipeFlags) {
	item := a.Item(pos)
	if item.IsZero() || a.store.IsHeader(item) {
		return 0, 0
	}
	header := a.HeaderOf(item)
	if header.IsZero() {
		return 0, 0
	}
	rules := a.store.Rules(header)

	var drag DragFlags
	if a.enableDrag && !rules.Has(model.RuleDragOutDisabled) {
		drag = DragUp | DragDown
	}
	var swipe SwipeFlags
	if a.enableSwipe {
		if !rules.Has(model.RuleSwipeStartDisabled) {
			swipe |= SwipeTowardStart
		}
		if !rules.Has(model.RuleSwipeEndDisabled) {
			swipe |= SwipeTowardEnd
		}
	}
	return drag, swipe
}

// SetDragEnabled toggles dragging.
func (a *Adapter[K]) SetDragEnabled(v bool) { a.enableDrag = v }

// SetSwipeEnabled toggles swiping.
func (a *Adapter[K]) SetSwipeEnabled(v bool) { a.enableSwipe = v }

// SetSwipeCommands rebinds the swipe commands. A nil command unbinds.
func (a *Adapter[K]) SetSwipeCommands(start, end Command) {
	a.swipeStart, a.swipeEnd = start, end
}

// OnSelectedChanged records that the row at pos was picked up for a drag or
// swipe, or released.
func (a *Adapter[K]) OnSelectedChanged(pos int, action ActionState) {
	switch action {
	case ActionDrag:
		a.state = StateDragging
	case ActionSwipe:
		a.state = StateSwiping
	default:
		a.state = StateIdle
		return
	}
	if item := a.Item(pos); !item.IsZero() {
		if !a.selected.IsZero() && a.selected != item {
			a.store.SetSelected(a.selected, false)
		}
		a.selected = item
		a.store.SetSelected(item, true)
	}
}

// OnMove moves the row at from to position to while a drag is in progress.
// It refuses moves onto the first row, no-op moves, out of range positions
// and rows that cannot be dragged, reporting false without touching the list.
func (a *Adapter[K]) OnMove(from, to int) bool {
	if to <= 0 || from == to {
		return false
	}
	if from < 0 || from >= len(a.flat) || to >= len(a.flat) {
		return false
	}
	if drag, _ := a.MovementFlags(from); drag == 0 {
		return false
	}
	a.state = StateDragging
	item := a.flat[from]
	a.flat = slices.Delete(a.flat, from, from+1)
	a.flat = slices.Insert(a.flat, to, item)
	a.emit(Notification{Kind: ItemMoved, Position: from, ToPosition: to})
	return true
}

// OnSwiped runs the command bound to dir with the Model of the item at
// pos. It does not change the list; a command that deletes the item does so
// through the source list.
func (a *Adapter[K]) OnSwiped(pos int, dir SwipeDirection) error {
	defer func() { a.state = StateIdle }()
	item := a.Item(pos)
	if item.IsZero() {
		return fmt.Errorf("swipe row %d of %d: %w", pos, len(a.flat), ErrOutOfRange)
	}
	if a.store.IsHeader(item) {
		return fmt.Errorf("swipe row %d: %w", pos, ErrNotItem)
	}
	_, allowed := a.MovementFlags(pos)
	var cmd Command
	switch dir {
	case SwipeStart:
		if allowed&SwipeTowardStart == 0 {
			return fmt.Errorf("swipe row %d toward %s: %w", pos, dir, ErrSwipeDisabled)
		}
		cmd = a.swipeStart
	case SwipeEnd:
		if allowed&SwipeTowardEnd == 0 {
			return fmt.Errorf("swipe row %d toward %s: %w", pos, dir, ErrSwipeDisabled)
		}
		cmd = a.swipeEnd
	default:
		return fmt.Errorf("swipe row %d: unknown %s", pos, dir)
	}
	if cmd == nil {
		return &MissingBindingError{Direction: dir}
	}
	arg := a.store.Model(item)
	if cmd.CanExecute(arg) {
		cmd.Execute(arg)
	}
	return nil
}

// DropResult describes what OnClearView did with the released row.
type DropResult uint8

const (
	// DropAborted means the drop was ignored.
	DropAborted DropResult = iota
	// DropReordered means the item moved within its own header.
	DropReordered
	// DropReverted means the target header refused the item and it was
	// returned to the nearest edge of its own header.
	DropReverted
	// DropMoved means the item now belongs to the header above it.
	DropMoved
)

func (r DropResult) String() string {
	return [...]string{"aborted", "reordered", "reverted", "moved"}[r]
}

// OnClearView commits a drag released at droppedPos: the item joins the
// header of the row above it, unless that header refuses drag-ins.
func (a *Adapter[K]) OnClearView(droppedPos int) (DropResult, error) {
	defer metrics.Timer(metrics.DropCommit)()
	a.state = StateIdle

	if droppedPos <= 0 {
		a.clearSelection()
		return DropAborted, nil
	}
	if droppedPos >= len(a.flat) {
		a.clearSelection()
		return DropAborted, fmt.Errorf("drop at %d of %d: %w", droppedPos, len(a.flat), ErrOutOfRange)
	}
	item := a.flat[droppedPos]
	if a.store.IsHeader(item) {
		return DropAborted, fmt.Errorf("drop at %d: %w", droppedPos, ErrNotItem)
	}
	a.selected = item

	previous := a.HeaderOf(item)
	candidate := a.HeaderOf(a.flat[droppedPos-1])
	if previous.IsZero() || candidate.IsZero() {
		return DropAborted, fmt.Errorf("drop at %d: header lookup: %w", droppedPos, ErrUnmapped)
	}
	prevKey, _ := a.store.Key(previous)
	candKey, _ := a.store.Key(candidate)

	if prevKey == candKey {
		seq := droppedPos - a.PositionOf(previous) - 1
		a.store.SetSequence(item, model.Seq(seq))
		a.store.MoveChild(previous, item, seq)
		debug.Log("adapter: reordered %v to %d under %v", item, seq, prevKey)
		return DropReordered, nil
	}

	if a.store.Rules(candidate).Has(model.RuleDragInDisabled) {
		a.revertDrop(item, previous, candidate)
		return DropReverted, nil
	}

	a.store.SetKey(item, candKey)
	a.store.RemoveChild(previous, item)
	if a.store.Collapsed(candidate) {
		a.store.SetSequence(item, model.NoSequence)
		a.store.AppendChild(candidate, item)
		a.flat = slices.Delete(a.flat, droppedPos, droppedPos+1)
		a.emit(Notification{Kind: ItemRemoved, Position: droppedPos})
	} else {
		seq := droppedPos - a.PositionOf(candidate) - 1
		a.store.SetSequence(item, model.Seq(seq))
		a.store.InsertChild(candidate, seq, item)
		a.emit(Notification{Kind: ItemChanged, Position: droppedPos})
	}
	debug.Log("adapter: moved %v from %v to %v", item, prevKey, candKey)
	a.removeTemporary(previous)
	return DropMoved, nil
}

// revertDrop returns item to the edge of its own header nearest the header
// that refused it.
func (a *Adapter[K]) revertDrop(item, own, refused model.Handle) {
	ownPos := a.PositionOf(own)
	forward := ownPos < a.PositionOf(refused)

	newPos, idx := ownPos, 0
	if forward {
		newPos = ownPos + a.CountVisibleItemsInHeader(own)
		idx = newPos - ownPos - 1
	}
	a.store.MoveChild(own, item, idx)

	pos := a.PositionOf(item)
	a.flat = slices.Delete(a.flat, pos, pos+1)
	a.flat = slices.Insert(a.flat, newPos, item)
	a.emit(Notification{Kind: ItemMoved, Position: pos, ToPosition: newPos})
	debug.Log("adapter: drop of %v refused, returned to row %d", item, newPos)
}

func (a *Adapter[K]) clearSelection() {
	if !a.selected.IsZero() {
		a.store.SetSelected(a.selected, false)
	}
	a.selected = model.Handle{}
}
