// Package ui is the terminal host for a grouped list: it lays out the
// flattened rows, drives the sticky header and maps keys onto header
// clicks, drags and swipes.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/expandable/internal/datasource"
	"github.com/vanderheijden86/expandable/pkg/adapter"
	"github.com/vanderheijden86/expandable/pkg/config"
	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/model"
	"github.com/vanderheijden86/expandable/pkg/source"
	"github.com/vanderheijden86/expandable/pkg/sticky"
	"github.com/vanderheijden86/expandable/pkg/watcher"
)

// FileChangedMsg is sent when watched item files change on disk.
type FileChangedMsg struct {
	Paths []string
}

// ItemsLoadedMsg carries freshly read records.
type ItemsLoadedMsg struct {
	Records []datasource.Record
	Err     error
}

// WatchFileCmd waits for the next batch of changed files.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		return FileChangedMsg{Paths: <-w.Changed()}
	}
}

// LoadItemsCmd reads paths off the UI loop.
func LoadItemsCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		recs, err := datasource.LoadAll(context.Background(), paths)
		return ItemsLoadedMsg{Records: recs, Err: err}
	}
}

// Options configures NewModel.
type Options struct {
	Config    config.Config
	Paths     []string         // item files, used for reload and write-back
	StatePath string           // saved sticky state; empty disables persistence
	Watcher   *watcher.Watcher // optional
	Clipboard func(string) error
}

// layoutHost defers adapter notifications raised while rows are laid out.
type layoutHost struct {
	computing bool
	posted    []func()
}

func (h *layoutHost) IsComputingLayout() bool { return h.computing }
func (h *layoutHost) Post(fn func())          { h.posted = append(h.posted, fn) }

func (h *layoutHost) flush() {
	for len(h.posted) > 0 {
		fn := h.posted[0]
		h.posted = h.posted[1:]
		fn()
	}
}

// Model is the bubbletea model for the list view.
type Model struct {
	cfg    config.Config
	opts   Options
	styles Styles

	store  *model.Store[string]
	list   *source.List
	ad     *adapter.Adapter[string]
	sticky *sticky.LayoutManager[string]
	host   *layoutHost

	width, height int
	cursor        int
	offset        int
	dragItem      model.Handle

	inUpdate      bool
	pendingReload []datasource.Record
	loaded        datasource.Loaded
	lastChange    adapter.Notification

	statusMsg     string
	statusIsError bool

	showHelp bool
	helpVP   viewport.Model
	helpDone bool

	quitting bool
}

// NewModel builds the view over records.
func NewModel(records []datasource.Record, opts Options) (*Model, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	m := &Model{
		cfg:    opts.Config,
		opts:   opts,
		styles: DefaultStyles(),
		store:  model.NewStore[string](),
		list:   source.NewList(),
		host:   &layoutHost{},
		width:  80,
		height: 24,
	}
	initial := opts.Config.InitialHeaders
	m.ad = adapter.New(m.store,
		adapter.WithHeaderFunc(opts.Config.HeaderFunc()),
		adapter.WithInitialHeaders(func() []string { return initial }),
		adapter.WithLayoutHost(m.host),
		adapter.WithNotify(func(n adapter.Notification) { m.lastChange = n }),
		adapter.WithThreadCheck(func() bool { return m.inUpdate }),
		adapter.WithDrag(opts.Config.Drag),
		adapter.WithSwipe(opts.Config.Swipe),
		adapter.WithSwipeStart(adapter.CommandFunc(m.archive)),
		adapter.WithSwipeEnd(adapter.CommandFunc(m.copyModel)),
		adapter.WithHeaderLongClick(m.headerInfo),
	)

	m.inUpdate = true
	m.ad.SetSource(m.list)
	m.loaded = datasource.Populate(m.store, m.list, records)
	m.inUpdate = false

	m.sticky = sticky.New[string](m.ad, max(1, opts.Config.HeaderHeight))
	m.sticky.SetShowStickyHeader(opts.Config.StickyHeader)
	if err := m.sticky.Attach(sticky.ParentFrame); err != nil {
		return nil, err
	}
	if err := m.restoreState(); err != nil {
		log.Printf("warning: restoring list state: %v", err)
	}
	m.relayout(true)
	return m, nil
}

func (m *Model) restoreState() error {
	if !m.cfg.PersistState || m.opts.StatePath == "" {
		return nil
	}
	st, err := sticky.LoadStateFile[string](m.opts.StatePath)
	if err != nil || st == nil {
		return err
	}
	m.inUpdate = true
	defer func() { m.inUpdate = false }()
	return m.sticky.Restore(*st)
}

// SaveState writes the collapse and sticky state to the state path.
func (m *Model) SaveState() error {
	if !m.cfg.PersistState || m.opts.StatePath == "" {
		return nil
	}
	return sticky.SaveStateFile(m.opts.StatePath, m.sticky.Save())
}

// Adapter exposes the list adapter.
func (m *Model) Adapter() *adapter.Adapter[string] { return m.ad }

// Sticky exposes the sticky header manager.
func (m *Model) Sticky() *sticky.LayoutManager[string] { return m.sticky }

// Store exposes the item store.
func (m *Model) Store() *model.Store[string] { return m.store }

// List exposes the source list.
func (m *Model) List() *source.List { return m.list }

// Cursor is the flattened position under the cursor.
func (m *Model) Cursor() int { return m.cursor }

// Offset is the first row drawn.
func (m *Model) Offset() int { return m.offset }

// Status returns the status line text and whether it reports an error.
func (m *Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

func (m *Model) setStatus(format string, args ...any) {
	m.statusMsg = fmt.Sprintf(format, args...)
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	m.statusMsg = "❌ " + err.Error()
	m.statusIsError = true
}

// Init starts watching for file changes.
func (m *Model) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return WatchFileCmd(m.opts.Watcher)
	}
	return nil
}

// Update handles one message on the UI loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.inUpdate = true
	defer func() { m.inUpdate = false }()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.helpVP.Width, m.helpVP.Height = msg.Width, max(1, msg.Height-2)
		m.helpDone = false
		m.relayout(false)
		return m, nil

	case FileChangedMsg:
		var cmds []tea.Cmd
		if len(msg.Paths) > 0 && len(m.opts.Paths) > 0 {
			cmds = append(cmds, LoadItemsCmd(m.opts.Paths))
		}
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}
		if len(cmds) == 1 {
			return m, cmds[0]
		}
		return m, tea.Batch(cmds...)

	case ItemsLoadedMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("reload: %w", msg.Err))
			return m, nil
		}
		m.applyRecords(msg.Records)
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			return m, m.updateHelp(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

// applyRecords syncs the list with reloaded records, holding them back
// while a drag is in progress.
func (m *Model) applyRecords(recs []datasource.Record) {
	if m.ad.IsDragging() {
		m.pendingReload = recs
		m.setStatus("reload queued until drop")
		return
	}
	stats := datasource.Sync(m.store, m.list, m.loaded, recs)
	m.setStatus("reloaded: +%d -%d ~%d", stats.Added, stats.Removed, stats.Updated)
	m.relayout(true)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.ad.IsDragging() {
		return m.handleDragKey(msg)
	}
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "pgdown", "ctrl+f":
		m.moveCursor(m.bodyHeight())
	case "pgup", "ctrl+b":
		m.moveCursor(-m.bodyHeight())
	case "g", "home":
		m.moveCursor(-m.ad.ItemCount())
	case "G", "end":
		m.moveCursor(m.ad.ItemCount())
	case "enter", "o":
		m.toggleAtCursor()
	case "i":
		if m.ad.IsHeader(m.cursor) {
			m.ad.OnHeaderLongClick(m.ad.Item(m.cursor))
		}
	case "t":
		m.toggleSticky()
	case "T":
		m.clickSticky()
	case "z":
		m.setAllCollapsed(true)
	case "Z":
		m.setAllCollapsed(false)
	case "d", "shift+down", "shift+up":
		if !m.pickUp() {
			return nil
		}
		switch msg.String() {
		case "shift+down":
			m.dragBy(1)
		case "shift+up":
			m.dragBy(-1)
		}
	case "h", "left":
		m.swipe(adapter.SwipeStart)
	case "l", "right":
		m.swipe(adapter.SwipeEnd)
	case "y":
		if it := m.ad.Item(m.cursor); !it.IsZero() && !m.ad.IsHeader(m.cursor) {
			m.copyModel(m.store.Model(it))
		}
	case "r", "ctrl+r":
		if len(m.opts.Paths) > 0 {
			m.setStatus("reloading…")
			return LoadItemsCmd(m.opts.Paths)
		}
	case "w":
		m.writeBack()
	case "?", "f1":
		m.showHelp = true
		m.renderHelp()
	}
	return nil
}

func (m *Model) handleDragKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		m.drop()
		return m.quit()
	case "j", "down", "shift+down":
		m.dragBy(1)
	case "k", "up", "shift+up":
		m.dragBy(-1)
	case " ", "space", "enter", "esc", "d":
		m.drop()
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	if err := m.SaveState(); err != nil {
		log.Printf("warning: saving list state: %v", err)
	}
	m.quitting = true
	return tea.Quit
}

func (m *Model) moveCursor(delta int) {
	n := m.ad.ItemCount()
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = max(0, min(m.cursor+delta, n-1))
	m.relayout(false)
}

func (m *Model) toggleAtCursor() {
	if !m.ad.IsHeader(m.cursor) {
		hp, err := m.ad.HeaderPosition(m.cursor)
		if err != nil {
			return
		}
		m.cursor = hp
	}
	if err := m.ad.OnHeaderClick(m.ad.Item(m.cursor), false); err != nil {
		m.setError(err)
		return
	}
	m.relayout(true)
}

func (m *Model) setAllCollapsed(collapsed bool) {
	for _, key := range m.ad.HeaderKeys() {
		if m.ad.IsCollapsed(key) != collapsed {
			if err := m.ad.ToggleHeader(key, false); err != nil {
				m.setError(err)
				return
			}
		}
	}
	if hp, err := m.ad.HeaderPosition(min(m.cursor, m.ad.ItemCount()-1)); err == nil && collapsed {
		m.cursor = hp
	}
	m.relayout(true)
}

func (m *Model) toggleSticky() {
	m.sticky.SetShowStickyHeader(!m.sticky.ShowStickyHeader())
	m.relayout(false)
	if m.sticky.ShowStickyHeader() {
		m.setStatus("sticky header on")
	} else {
		m.setStatus("sticky header off")
	}
}

func (m *Model) clickSticky() {
	pos, ok, err := m.sticky.OnStickyHeaderClick(m.children())
	switch {
	case err != nil:
		m.setError(err)
	case ok:
		m.cursor = pos
		m.offset = min(m.offset, pos)
		m.relayout(true)
	}
}

// pickUp starts a drag of the row under the cursor.
func (m *Model) pickUp() bool {
	if drag, _ := m.ad.MovementFlags(m.cursor); drag == 0 {
		m.setStatus("row cannot be dragged")
		return false
	}
	m.dragItem = m.ad.Item(m.cursor)
	m.ad.OnSelectedChanged(m.cursor, adapter.ActionDrag)
	m.relayout(false)
	return true
}

func (m *Model) dragBy(delta int) {
	if m.ad.OnMove(m.cursor, m.cursor+delta) {
		m.cursor += delta
	}
	m.relayout(false)
}

func (m *Model) drop() {
	res, err := m.ad.OnClearView(m.cursor)
	item := m.dragItem
	m.dragItem = model.Handle{}
	if pos := m.ad.PositionOf(item); pos >= 0 {
		m.cursor = pos
	}
	if err != nil {
		m.setError(err)
	} else {
		key, _ := m.store.Key(item)
		m.setStatus("drop %s: %v under %s", res, m.store.Model(item), key)
	}
	if recs := m.pendingReload; recs != nil {
		m.pendingReload = nil
		m.applyRecords(recs)
	}
	m.relayout(true)
}

func (m *Model) swipe(dir adapter.SwipeDirection) {
	if m.ad.IsHeader(m.cursor) {
		return
	}
	m.ad.OnSelectedChanged(m.cursor, adapter.ActionSwipe)
	err := m.ad.OnSwiped(m.cursor, dir)
	var missing *adapter.MissingBindingError
	switch {
	case errors.As(err, &missing):
		m.setStatus("nothing bound to swipe %s", missing.Direction)
	case err != nil:
		m.setError(err)
	}
	m.moveCursor(0)
}

// archive removes the swiped item from the list.
func (m *Model) archive(arg any) {
	h := source.Find(m.store, m.list, func(v any) bool { return v == arg })
	if h.IsZero() {
		return
	}
	m.list.Remove(h)
	m.store.Release(h)
	m.setStatus("archived %v", arg)
}

func (m *Model) copyModel(arg any) {
	text := fmt.Sprint(arg)
	if err := m.opts.Clipboard(text); err != nil {
		m.setError(fmt.Errorf("clipboard: %w", err))
		return
	}
	m.setStatus("📋 copied %s", text)
}

func (m *Model) headerInfo(h model.Handle) {
	key, _ := m.store.Key(h)
	m.setStatus("%s: %d items, rules %s", m.store.Name(h), m.store.Count(h), m.store.Rules(h))
	debug.Log("ui: header %s long-pressed", key)
}

// writeBack saves the current items to the first items file.
func (m *Model) writeBack() {
	if len(m.opts.Paths) == 0 {
		m.setStatus("no items file to write")
		return
	}
	path := m.opts.Paths[0]
	if err := datasource.SaveFile(path, datasource.Records(m.store, m.list)); err != nil {
		m.setError(err)
		return
	}
	m.loaded = datasource.Snapshot(m.store, m.list)
	m.setStatus("wrote %d items to %s", m.list.Len(), path)
}

func (m *Model) bodyHeight() int {
	return max(1, m.height-1)
}

// children lays out the rows currently on screen, one terminal line each.
func (m *Model) children() []sticky.Child {
	n := m.ad.ItemCount()
	end := min(n, m.offset+m.bodyHeight())
	out := make([]sticky.Child, 0, max(0, end-m.offset))
	for pos := m.offset; pos < end; pos++ {
		top := pos - m.offset
		out = append(out, sticky.Child{Position: pos, Top: top, Bottom: top + 1})
	}
	return out
}

// relayout clamps the cursor, scrolls it into view and updates the sticky
// header. dataChanged also runs a full layout pass.
func (m *Model) relayout(dataChanged bool) {
	n := m.ad.ItemCount()
	m.cursor = max(0, min(m.cursor, n-1))
	body := m.bodyHeight()
	margin := 0
	if m.sticky != nil && m.sticky.ShowStickyHeader() {
		margin = m.sticky.HeaderHeight()
	}
	if m.cursor < m.offset || (m.offset > 0 && m.cursor-m.offset < margin) {
		m.offset = max(0, m.cursor-margin)
	}
	if m.cursor >= m.offset+body {
		m.offset = m.cursor - body + 1
	}
	m.offset = max(0, min(m.offset, n-1))
	if m.sticky == nil {
		return
	}

	m.host.computing = true
	children := m.children()
	if dataChanged {
		m.sticky.OnLayout(children)
	}
	m.sticky.OnScroll(children)
	m.host.computing = false
	m.host.flush()
}
