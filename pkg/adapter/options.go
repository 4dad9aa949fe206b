package adapter

import (
	"cmp"

	"github.com/vanderheijden86/expandable/pkg/grouping"
	"github.com/vanderheijden86/expandable/pkg/model"
)

type settings struct {
	headerFunc  any
	initial     any
	notify      func(Notification)
	host        LayoutHost
	onUIThread  func() bool
	warn        func(format string, args ...any)
	viewType    func(h model.Handle, header bool) int
	onLongClick func(header model.Handle)
	enableDrag  bool
	enableSwipe bool
	swipeStart  Command
	swipeEnd    Command
}

// Option configures an Adapter.
type Option func(*settings)

// WithHeaderFunc sets the header generation strategy. Its key type must
// match the adapter's.
func WithHeaderFunc[K cmp.Ordered](fn grouping.HeaderFunc[K]) Option {
	return func(s *settings) { s.headerFunc = fn }
}

// WithInitialHeaders seeds empty headers for the returned keys on every
// rebuild. Keys whose generated header is temporary are skipped.
func WithInitialHeaders[K cmp.Ordered](fn func() []K) Option {
	return func(s *settings) { s.initial = fn }
}

// WithNotify sets the sink for refresh notifications.
func WithNotify(fn func(Notification)) Option {
	return func(s *settings) { s.notify = fn }
}

// WithLayoutHost defers notifications while the host is computing layout.
func WithLayoutHost(h LayoutHost) Option {
	return func(s *settings) { s.host = h }
}

// WithThreadCheck sets a func reporting whether the caller is on the UI loop.
func WithThreadCheck(fn func() bool) Option {
	return func(s *settings) { s.onUIThread = fn }
}

// WithWarnFunc replaces log.Printf for consistency warnings.
func WithWarnFunc(fn func(format string, args ...any)) Option {
	return func(s *settings) { s.warn = fn }
}

// WithViewType sets the view type lookup used by ViewType.
func WithViewType(fn func(h model.Handle, header bool) int) Option {
	return func(s *settings) { s.viewType = fn }
}

// WithHeaderLongClick sets the handler for long presses on a header.
func WithHeaderLongClick(fn func(header model.Handle)) Option {
	return func(s *settings) { s.onLongClick = fn }
}

// WithDrag enables or disables dragging. Enabled by default.
func WithDrag(enabled bool) Option {
	return func(s *settings) { s.enableDrag = enabled }
}

// WithSwipe enables or disables swiping. Enabled by default.
func WithSwipe(enabled bool) Option {
	return func(s *settings) { s.enableSwipe = enabled }
}

// WithSwipeStart binds the command run when an item is swiped toward the start edge.
func WithSwipeStart(c Command) Option {
	return func(s *settings) { s.swipeStart = c }
}

// WithSwipeEnd binds the command run when an item is swiped toward the end edge.
func WithSwipeEnd(c Command) Option {
	return func(s *settings) { s.swipeEnd = c }
}
