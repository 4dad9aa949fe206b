package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Keys

| Key | Action |
|---|---|
| j / k, ↑ / ↓ | move |
| g / G | top / bottom |
| enter | collapse or expand the header |
| i | header details |
| z / Z | collapse / expand all |
| t | show or hide the sticky header |
| T | toggle the header in the sticky slot |
| d, shift+↑ / shift+↓ | pick up and drag the item |
| space, enter, esc | drop the dragged item |
| h / l | swipe toward start (archive) / end (copy) |
| y | copy the item |
| r | reload item files |
| w | write items back to the first file |
| q | quit and save the list state |

Dropping an item under another header moves it there, unless that header
refuses drag-ins; the item then returns to the nearest edge of its own group.
`

// renderHelp renders the help text into the viewport once per size.
func (m *Model) renderHelp() {
	if m.helpDone {
		return
	}
	m.helpVP.Width, m.helpVP.Height = m.width, max(1, m.height-2)
	content := helpMarkdown
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(20, m.width-4)),
	)
	if err == nil {
		if out, err := r.Render(helpMarkdown); err == nil {
			content = out
		}
	}
	m.helpVP.SetContent(content)
	m.helpDone = true
}

func (m *Model) updateHelp(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "?", "f1", "esc", "q":
		m.showHelp = false
		return nil
	case "ctrl+c":
		return m.quit()
	}
	var cmd tea.Cmd
	m.helpVP, cmd = m.helpVP.Update(msg)
	return cmd
}

func (m *Model) helpView() string {
	m.renderHelp()
	return m.helpVP.View() + "\n" + m.styles.Count.Render("esc to close")
}
