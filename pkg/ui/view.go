package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/expandable/pkg/adapter"
	"github.com/vanderheijden86/expandable/pkg/debug"
)

// View renders the visible rows, the sticky header overlay and the status
// line.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.helpView()
	}
	body := m.bodyHeight()
	lines := make([]string, 0, body)
	for _, c := range m.children() {
		lines = append(lines, m.renderRow(c.Position))
	}
	if len(lines) == 0 {
		lines = append(lines, m.styles.Empty.Render(fit("no items", m.width)))
	}
	for len(lines) < body {
		lines = append(lines, "")
	}
	for i, l := range m.stickyLines() {
		if i < len(lines) {
			lines[i] = l
		}
	}
	lines = append(lines, m.statusLine())
	return strings.Join(lines, "\n")
}

// stickyLines returns the overlay drawn over the top rows. Rows pushed
// above the viewport by a negative translation are dropped.
func (m *Model) stickyLines() []string {
	if !m.sticky.Visible() || m.offset == 0 || m.ad.ItemCount() == 0 {
		return nil
	}
	pos := m.sticky.StickyPosition()
	if pos == m.offset {
		// the header row itself is at the top
		return nil
	}
	h := m.sticky.HeaderHeight()
	block := make([]string, h)
	block[0] = m.styles.Sticky.Render(fit(m.headerText(pos), m.width))
	for i := 1; i < h; i++ {
		block[i] = m.styles.Sticky.Render(fit("", m.width))
	}
	shift := min(h, -m.sticky.Translation())
	return block[shift:]
}

func (m *Model) headerText(pos int) string {
	h := m.ad.Item(pos)
	key, _ := m.store.Key(h)
	arrow := "▾"
	if m.ad.IsCollapsed(key) {
		arrow = "▸"
	}
	return fmt.Sprintf("%s %s (%d)", arrow, m.store.Name(h), m.store.Count(h))
}

func (m *Model) renderRow(pos int) string {
	h := m.ad.Item(pos)
	var line string
	var style lipgloss.Style
	if m.ad.IsHeader(pos) {
		line = m.headerText(pos)
		style = m.styles.Header
	} else {
		marker := "  "
		style = m.styles.Item
		switch {
		case m.ad.IsDragging() && h == m.dragItem:
			marker = "≡ "
			style = m.styles.Dragging
		case m.store.Selected(h):
			marker = "• "
			style = m.styles.Selected
		}
		line = "  " + marker + fmt.Sprint(m.store.Model(h))
		if seq := m.store.Sequence(h); seq.Valid() && debug.Enabled() {
			line += m.styles.Count.Render(" #" + seq.String())
		}
	}
	line = fit(line, m.width)
	if pos == m.cursor {
		return m.styles.Cursor.Inherit(style).Render(line)
	}
	return style.Render(line)
}

func (m *Model) statusLine() string {
	if m.statusMsg != "" {
		style := m.styles.Status
		if m.statusIsError {
			style = m.styles.StatusErr
		}
		return style.Render(truncate(m.statusMsg, m.width))
	}
	state := m.ad.State().String()
	if m.ad.IsDragging() {
		state = "dragging (↑/↓ move, space drop)"
	}
	text := fmt.Sprintf("%d rows · %d headers · %s · ? help", m.ad.ItemCount(), len(m.ad.HeaderKeys()), state)
	if debug.Enabled() && m.lastChange != (adapter.Notification{}) {
		text += " · " + m.lastChange.String()
	}
	return m.styles.Count.Render(truncate(text, m.width))
}
