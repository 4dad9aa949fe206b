// Package sticky positions the header pinned to the top of a scrolling
// grouped list. Given the laid-out rows it picks the header that owns the
// first visible row and computes the offset that lets the next header push
// the pinned one out of view.
package sticky

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/metrics"
	"github.com/vanderheijden86/expandable/pkg/model"
)

// ErrInvalidParent is returned by Attach for containers that cannot host an
// overlaid sticky header.
var ErrInvalidParent = errors.New("sticky header parent must be a frame or coordinator container")

// Helper is the read-only view of the list plus the intents the layout
// manager may trigger. *adapter.Adapter implements it.
type Helper[K cmp.Ordered] interface {
	ItemCount() int
	IsDragging() bool
	ViewType(pos int) int
	IsHeader(pos int) bool
	HeaderPosition(pos int) (int, error)
	HeaderAt(pos int) model.Handle
	HeaderKeys() []K
	IsCollapsed(key K) bool
	ToggleHeader(key K, suppress bool) error
	OnHeaderClick(header model.Handle, suppress bool) error
	OnHeaderLongClick(header model.Handle)
}

// Child is one laid-out row: its flattened position and vertical extent in
// the list's coordinate space, where 0 is the top edge of the viewport.
type Child struct {
	Position int
	Top      int
	Bottom   int
}

// Height returns the row height.
func (c Child) Height() int { return c.Bottom - c.Top }

// ParentKind is the kind of container holding the list.
type ParentKind uint8

const (
	ParentOther ParentKind = iota
	ParentFrame
	ParentCoordinator
)

// LayoutManager tracks the sticky header for one list.
type LayoutManager[K cmp.Ordered] struct {
	helper       Helper[K]
	headerHeight int

	position    int
	show        bool
	visible     bool
	translation int
	templateID  int
	header      model.Handle
	initialized bool
}

// New returns a layout manager for rows of helper whose sticky header is
// headerHeight tall.
func New[K cmp.Ordered](helper Helper[K], headerHeight int) *LayoutManager[K] {
	return &LayoutManager[K]{helper: helper, headerHeight: headerHeight, show: true}
}

// SetHelper swaps the list the manager reads from.
func (m *LayoutManager[K]) SetHelper(h Helper[K]) {
	if h == m.helper {
		return
	}
	m.helper = h
	m.initialized = false
}

// Attach validates the parent container and initialises the sticky header.
func (m *LayoutManager[K]) Attach(parent ParentKind) error {
	if parent != ParentFrame && parent != ParentCoordinator {
		return fmt.Errorf("attach to parent kind %d: %w", parent, ErrInvalidParent)
	}
	m.init()
	return nil
}

// Detach forgets the displayed header.
func (m *LayoutManager[K]) Detach() {
	m.header = model.Handle{}
	m.initialized = false
}

// ShowStickyHeader reports whether the sticky header is enabled.
func (m *LayoutManager[K]) ShowStickyHeader() bool { return m.show }

// SetShowStickyHeader enables or hides the sticky header.
func (m *LayoutManager[K]) SetShowStickyHeader(v bool) {
	m.show = v
	m.visible = v && m.visible
}

// Visible reports whether the sticky header is currently drawn.
func (m *LayoutManager[K]) Visible() bool { return m.show && m.visible }

// Translation is the vertical offset to apply to the sticky header; it is
// zero or negative.
func (m *LayoutManager[K]) Translation() int { return m.translation }

// StickyPosition is the flattened position of the displayed header.
func (m *LayoutManager[K]) StickyPosition() int { return m.position }

// Header is the displayed header.
func (m *LayoutManager[K]) Header() model.Handle { return m.header }

// TemplateID is the view type of the displayed header.
func (m *LayoutManager[K]) TemplateID() int { return m.templateID }

// HeaderHeight is the height of the sticky header.
func (m *LayoutManager[K]) HeaderHeight() int { return m.headerHeight }

func (m *LayoutManager[K]) init() {
	n := m.helper.ItemCount()
	if n <= 0 {
		return
	}
	m.position = max(0, min(m.position, n-1))
	hp, err := m.helper.HeaderPosition(m.position)
	if err != nil {
		debug.Log("sticky: init at %d: %v", m.position, err)
		return
	}
	m.position = hp
	m.header = m.helper.HeaderAt(hp)
	m.templateID = m.helper.ViewType(hp)
	m.visible = true
	m.initialized = true
}

// OnLayout is called after the host laid out children.
func (m *LayoutManager[K]) OnLayout(children []Child) {
	if !m.show || m.helper.IsDragging() {
		return
	}
	m.update(children)
	m.translate(children)
}

// OnScroll is called after the list scrolled and children moved.
func (m *LayoutManager[K]) OnScroll(children []Child) {
	if !m.initialized {
		m.init()
	}
	if !m.show {
		return
	}
	if m.helper.IsDragging() {
		m.visible = false
	} else {
		m.update(children)
	}
	m.translate(children)
}

// FirstVisible returns the position of the first child at least partly
// inside the viewport, or -1.
func FirstVisible(children []Child) int {
	for _, c := range children {
		if c.Bottom > 0 {
			return c.Position
		}
	}
	return -1
}

func (m *LayoutManager[K]) update(children []Child) {
	if m.helper.ItemCount() <= 0 {
		return
	}
	m.visible = true
	first := FirstVisible(children)
	if first < 0 {
		return
	}
	hp, err := m.helper.HeaderPosition(first)
	if err != nil {
		return
	}
	header := m.helper.HeaderAt(hp)
	if hp == m.position && header == m.header && m.initialized {
		return
	}
	m.position = hp
	m.header = header
	m.templateID = m.helper.ViewType(hp)
	m.initialized = true
	debug.Log("sticky: pinned header at row %d", hp)
}

// translate computes the push-up offset. The contact point is the bottom
// edge of the sticky header. Rows above it that start with a header form a
// pending run that must fit between the sticky header and the contact row.
func (m *LayoutManager[K]) translate(children []Child) {
	defer metrics.Timer(metrics.StickyTranslate)()
	n := m.helper.ItemCount()
	if n <= 0 {
		return
	}
	contact := m.headerHeight
	var inContact *Child
	pending := false
	pendingHeight := 0
	for i := range children {
		c := &children[i]
		if c.Bottom > contact && c.Top <= contact {
			inContact = c
			break
		}
		if c.Top > 0 && c.Bottom < contact && (pending || m.helper.IsHeader(c.Position)) {
			pending = true
			pendingHeight += c.Height()
		}
	}
	m.translation = 0
	if inContact == nil || inContact.Position < 0 || inContact.Position >= n {
		return
	}
	if pending || m.helper.IsHeader(inContact.Position) {
		m.translation = min(0, inContact.Top-m.headerHeight-pendingHeight)
	}
}

// OnStickyHeaderClick toggles the header shown in the sticky slot and
// returns the position the host should scroll to.
func (m *LayoutManager[K]) OnStickyHeaderClick(children []Child) (int, bool, error) {
	hp, ok := m.visibleHeader(children)
	if !ok {
		return -1, false, nil
	}
	if err := m.helper.OnHeaderClick(m.helper.HeaderAt(hp), false); err != nil {
		return -1, false, err
	}
	return hp, true, nil
}

// OnStickyHeaderLongClick forwards a long press on the sticky header.
func (m *LayoutManager[K]) OnStickyHeaderLongClick(children []Child) {
	if hp, ok := m.visibleHeader(children); ok {
		m.helper.OnHeaderLongClick(m.helper.HeaderAt(hp))
	}
}

func (m *LayoutManager[K]) visibleHeader(children []Child) (int, bool) {
	if m.helper.ItemCount() <= 0 {
		return -1, false
	}
	first := FirstVisible(children)
	if first < 0 {
		return -1, false
	}
	hp, err := m.helper.HeaderPosition(first)
	if err != nil {
		return -1, false
	}
	return hp, true
}
