// Package adapter keeps the flattened list of a grouped view in step with an
// observable source list. It applies source changes incrementally, emits
// the minimal refresh notifications for a host view, and holds the drag and
// swipe decision logic.
//
// An Adapter is single-threaded: every method must run on the host's UI
// loop. Calls from elsewhere are reported through the warn func and then
// proceed without locking.
package adapter

import (
	"cmp"
	"fmt"
	"log"

	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/grouping"
	"github.com/vanderheijden86/expandable/pkg/metrics"
	"github.com/vanderheijden86/expandable/pkg/model"
	"github.com/vanderheijden86/expandable/pkg/source"
)

// View types returned by the default ViewType func.
const (
	ViewTypeItem   = 0
	ViewTypeHeader = 1
)

// Adapter owns the flattened list and every header child list for one
// source list.
type Adapter[K cmp.Ordered] struct {
	store  *model.Store[K]
	engine grouping.Engine[K]

	src    *source.List
	cancel func()

	flat    []model.Handle
	headers map[K]model.Handle

	initial     func() []K
	notify      func(Notification)
	host        LayoutHost
	onUIThread  func() bool
	warnf       func(format string, args ...any)
	viewType    func(h model.Handle, header bool) int
	onLongClick func(header model.Handle)

	enableDrag  bool
	enableSwipe bool
	swipeStart  Command
	swipeEnd    Command

	state      State
	selected   model.Handle
	rebuilding bool
}

// New returns an adapter over store. Bind a source with SetSource.
func New[K cmp.Ordered](store *model.Store[K], opts ...Option) *Adapter[K] {
	cfg := settings{enableDrag: true, enableSwipe: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	a := &Adapter[K]{
		store:       store,
		headers:     make(map[K]model.Handle),
		notify:      cfg.notify,
		host:        cfg.host,
		onUIThread:  cfg.onUIThread,
		warnf:       cfg.warn,
		viewType:    cfg.viewType,
		onLongClick: cfg.onLongClick,
		enableDrag:  cfg.enableDrag,
		enableSwipe: cfg.enableSwipe,
		swipeStart:  cfg.swipeStart,
		swipeEnd:    cfg.swipeEnd,
	}
	a.engine = grouping.Engine[K]{Store: store, Warn: a.warn}
	if cfg.headerFunc != nil {
		fn, ok := cfg.headerFunc.(grouping.HeaderFunc[K])
		if !ok {
			a.warn("header func has type %T, want grouping.HeaderFunc[%T]; using the default", cfg.headerFunc, *new(K))
		}
		a.engine.HeaderFunc = fn
	}
	if cfg.initial != nil {
		fn, ok := cfg.initial.(func() []K)
		if !ok {
			a.warn("initial headers func has type %T, want func() []%T; ignoring it", cfg.initial, *new(K))
		}
		a.initial = fn
	}
	return a
}

func (a *Adapter[K]) warn(format string, args ...any) {
	metrics.ConsistencyWarnings.Inc()
	if a.warnf != nil {
		a.warnf(format, args...)
		return
	}
	log.Printf("warning: "+format, args...)
}

func (a *Adapter[K]) checkThread(op string) {
	if a.onUIThread != nil && !a.onUIThread() {
		a.warn("%s called off the UI thread; the host view may read a stale list", op)
	}
}

// Store returns the backing store.
func (a *Adapter[K]) Store() *model.Store[K] { return a.store }

// Source returns the bound source list, or nil.
func (a *Adapter[K]) Source() *source.List { return a.src }

// SetSource binds l as the source of truth, rebuilding the flattened list.
// Binding the same list again is a no-op; binding nil clears the adapter.
func (a *Adapter[K]) SetSource(l *source.List) {
	a.checkThread("SetSource")
	if l == a.src {
		return
	}
	a.unsubscribe()
	a.src = l
	if l == nil {
		a.releaseHeaders(a.headers, nil)
		a.flat = nil
		a.headers = make(map[K]model.Handle)
		a.emit(Notification{Kind: DataSetChanged})
		return
	}
	a.cancel = l.Subscribe(a.onChange)
	a.rebuild()
}

func (a *Adapter[K]) unsubscribe() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// Close releases the source subscription and the swipe commands.
func (a *Adapter[K]) Close() {
	a.unsubscribe()
	a.src = nil
	a.swipeStart = nil
	a.swipeEnd = nil
}

func (a *Adapter[K]) onChange(c source.Change) {
	if a.cancel == nil || a.src == nil {
		return
	}
	a.checkThread("source change")
	if err := a.Apply(c); err != nil {
		a.warn("applying %s: %v", c, err)
	}
}

// rebuild regroups the whole source, reusing headers by key so collapse
// state survives, then seeds the initial headers.
func (a *Adapter[K]) rebuild() {
	a.rebuilding = true
	prev := a.headers
	var items []model.Handle
	if a.src != nil {
		items = a.src.Items()
	}
	used := make(map[model.Handle]bool)
	res := a.engine.Build(items, func(k K) (model.Handle, bool) {
		h, ok := prev[k]
		if ok {
			used[h] = true
		}
		return h, ok
	})
	a.flat = res.Flat
	a.headers = make(map[K]model.Handle, len(res.Headers))
	for _, h := range res.Headers {
		k, _ := a.store.Key(h)
		a.headers[k] = h
	}
	if a.initial != nil {
		for _, k := range a.initial() {
			if _, ok := a.headers[k]; ok {
				continue
			}
			spec := a.engine.Generate(k, true)
			if spec.Rules.Has(model.RuleTemporary) {
				continue
			}
			if h, ok := prev[spec.Key]; ok {
				used[h] = true
				a.store.SetChildren(h, nil)
				a.insertHeader(h)
				continue
			}
			a.addHeader(spec)
		}
	}
	a.releaseHeaders(prev, used)
	a.rebuilding = false
	debug.Log("adapter: rebuilt %d rows under %d headers", len(a.flat), len(a.headers))
	a.emit(Notification{Kind: DataSetChanged})
}

// releaseHeaders frees the headers of a previous build that were not kept.
func (a *Adapter[K]) releaseHeaders(prev map[K]model.Handle, keep map[model.Handle]bool) {
	for _, h := range prev {
		if !keep[h] {
			a.store.Release(h)
		}
	}
}

// Reload rebuilds from the current source, as a Reset change would.
func (a *Adapter[K]) Reload() {
	a.rebuild()
}

func (a *Adapter[K]) String() string {
	return fmt.Sprintf("adapter{rows=%d headers=%d state=%s}", len(a.flat), len(a.headers), a.state)
}
