package adapter

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/vanderheijden86/expandable/pkg/model"
	"github.com/vanderheijden86/expandable/pkg/source"
	"github.com/vanderheijden86/expandable/pkg/testutil"
)

type recorder struct {
	got []Notification
}

func (r *recorder) notify(n Notification) { r.got = append(r.got, n) }

func (r *recorder) reset() { r.got = nil }

func (r *recorder) strings() []string {
	out := make([]string, len(r.got))
	for i, n := range r.got {
		out[i] = n.String()
	}
	return out
}

type fixture struct {
	store *model.Store[int]
	list  *source.List
	ad    *Adapter[int]
	rec   *recorder
	items map[string]model.Handle
}

// newFixture builds A(1,0) B(1,1) C(2,0) behind an adapter.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{store: model.NewStore[int](), rec: &recorder{}, items: map[string]model.Handle{}}
	for _, it := range []struct {
		name string
		key  int
		seq  int
	}{{"A", 1, 0}, {"B", 1, 1}, {"C", 2, 0}} {
		f.items[it.name] = f.store.NewItem(model.KeyedItem[int](it.name, it.key, model.Seq(it.seq)))
	}
	f.list = source.NewList(f.items["A"], f.items["B"], f.items["C"])
	opts = append([]Option{WithNotify(f.rec.notify), WithWarnFunc(func(format string, args ...any) {
		t.Logf("warning: "+format, args...)
	})}, opts...)
	f.ad = New(f.store, opts...)
	f.ad.SetSource(f.list)
	f.rec.reset()
	return f
}

func (f *fixture) labels() []string {
	return testutil.Labels(f.store, f.ad.Flattened())
}

func (f *fixture) check(t *testing.T) {
	t.Helper()
	testutil.AssertFlattened(t, f.store, f.ad.Flattened())
}

func (f *fixture) header(t *testing.T, key int) model.Handle {
	t.Helper()
	h, ok := f.ad.HeaderFor(key)
	if !ok {
		t.Fatalf("no header for key %d", key)
	}
	return h
}

func expectLabels(t *testing.T, f *fixture, want ...string) {
	t.Helper()
	if got := f.labels(); !slices.Equal(got, want) {
		t.Fatalf("flattened = %v, want %v", got, want)
	}
}

func TestInitialBuild(t *testing.T) {
	f := newFixture(t)
	expectLabels(t, f, "H1", "A", "B", "H2", "C")
	f.check(t)
	if f.ad.ItemCount() != 5 || !f.ad.IsHeader(0) || f.ad.IsHeader(1) {
		t.Error("query surface disagrees with flattened list")
	}
	if f.ad.ViewType(0) != ViewTypeHeader || f.ad.ViewType(1) != ViewTypeItem {
		t.Error("default view types")
	}
	if got := f.ad.HeaderKeys(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("HeaderKeys = %v", got)
	}
}

func TestSetSourceEmitsDataSetChanged(t *testing.T) {
	s := model.NewStore[int]()
	rec := &recorder{}
	ad := New(s, WithNotify(rec.notify))
	l := source.NewList(s.NewItem(model.KeyedItem[int]("x", 1, model.NoSequence)))
	ad.SetSource(l)
	ad.SetSource(l)
	if got := rec.strings(); !slices.Equal(got, []string{"data_set_changed"}) {
		t.Errorf("notifications = %v", got)
	}
	if l.Subscribers() != 1 {
		t.Fatalf("subscribers = %d", l.Subscribers())
	}

	other := source.NewList()
	ad.SetSource(other)
	if l.Subscribers() != 0 || other.Subscribers() != 1 {
		t.Error("previous subscription not released")
	}
	if ad.ItemCount() != 0 {
		t.Errorf("empty source gave %d rows", ad.ItemCount())
	}
	ad.Close()
	if other.Subscribers() != 0 {
		t.Error("Close did not release subscription")
	}
	other.Append(s.NewItem(model.KeyedItem[int]("y", 1, model.NoSequence)))
	if ad.ItemCount() != 0 {
		t.Error("closed adapter still applies changes")
	}
}

func TestCollapseHidesChildren(t *testing.T) {
	f := newFixture(t)
	h1 := f.header(t, 1)
	if err := f.ad.OnHeaderClick(h1, false); err != nil {
		t.Fatal(err)
	}
	expectLabels(t, f, "H1", "H2", "C")
	if kids := testutil.Labels(f.store, f.store.Children(h1)); !slices.Equal(kids, []string{"A", "B"}) {
		t.Errorf("collapsed header children = %v", kids)
	}
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_range_removed(1,2)"}) {
		t.Errorf("notifications = %v", got)
	}
	f.check(t)

	f.rec.reset()
	if err := f.ad.OnHeaderClick(h1, false); err != nil {
		t.Fatal(err)
	}
	expectLabels(t, f, "H1", "A", "B", "H2", "C")
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_range_inserted(1,2)"}) {
		t.Errorf("notifications = %v", got)
	}

	f.rec.reset()
	if err := f.ad.ToggleHeader(2, true); err != nil {
		t.Fatal(err)
	}
	if len(f.rec.got) != 0 || !f.ad.IsCollapsed(2) {
		t.Error("suppressed toggle should collapse silently")
	}
	if err := f.ad.ToggleHeader(9, false); !errors.Is(err, ErrNotHeader) {
		t.Errorf("unknown key err = %v", err)
	}
	if err := f.ad.OnHeaderClick(f.items["A"], false); !errors.Is(err, ErrNotHeader) {
		t.Errorf("item click err = %v", err)
	}
}

func TestAddIntoExpandedHeader(t *testing.T) {
	f := newFixture(t)
	d := f.store.NewItem(model.KeyedItem[int]("D", 2, model.Seq(0)))
	f.list.Append(d)

	expectLabels(t, f, "H1", "A", "B", "H2", "D", "C")
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_inserted(4)"}) {
		t.Errorf("notifications = %v, want a single insert", got)
	}
	if f.store.Sequence(f.items["C"]) != model.Seq(1) {
		t.Errorf("C sequence = %v, want renumbered 1", f.store.Sequence(f.items["C"]))
	}
	f.check(t)
}

func TestAddIntoCollapsedHeader(t *testing.T) {
	f := newFixture(t)
	f.ad.ToggleHeader(1, true)
	e := f.store.NewItem(model.KeyedItem[int]("E", 1, model.Seq(1)))
	f.list.Append(e)
	expectLabels(t, f, "H1", "H2", "C")
	if len(f.rec.got) != 0 {
		t.Errorf("collapsed insert notified %v", f.rec.strings())
	}
	kids := testutil.Labels(f.store, f.store.Children(f.header(t, 1)))
	if !slices.Equal(kids, []string{"A", "E", "B"}) {
		t.Errorf("children = %v", kids)
	}
	f.check(t)
}

func TestAddCreatesHeaderInKeyOrder(t *testing.T) {
	f := newFixture(t)
	z := f.store.NewItem(model.KeyedItem[int]("Z", 0, model.NoSequence))
	m := f.store.NewItem(model.KeyedItem[int]("M", 5, model.Seq(7)))
	f.list.Append(z, m)

	expectLabels(t, f, "H0", "Z", "H1", "A", "B", "H2", "C", "H5", "M")
	want := []string{"item_inserted(0)", "item_inserted(1)", "item_inserted(7)", "item_inserted(8)"}
	if got := f.rec.strings(); !slices.Equal(got, want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}
	f.check(t)
}

func TestAddUnkeyedItemTakesGeneratedKey(t *testing.T) {
	var warnings []string
	f := newFixture(t, WithWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}))
	u := f.store.NewItem(model.Item[int]{Model: "U"})
	f.list.Append(u)
	if k, ok := f.store.Key(u); !ok || k != 0 {
		t.Errorf("key = %d,%v", k, ok)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "without a grouping key") {
		t.Errorf("warnings = %v", warnings)
	}
	expectLabels(t, f, "H0", "U", "H1", "A", "B", "H2", "C")
}

func TestRemoveKeepsPermanentEmptyHeader(t *testing.T) {
	f := newFixture(t)
	f.list.Remove(f.items["C"])
	expectLabels(t, f, "H1", "A", "B", "H2")
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_removed(4)"}) {
		t.Errorf("notifications = %v", got)
	}
	if f.store.Sequence(f.items["C"]).Valid() {
		t.Error("removed item keeps its sequence")
	}
	f.check(t)
}

func TestRemoveLastChildOfTemporaryHeader(t *testing.T) {
	f := newFixture(t, WithHeaderFunc(func(key int, hasKey bool) model.HeaderSpec[int] {
		spec := model.HeaderSpec[int]{Name: fmt.Sprint(key), Key: key}
		if key == 2 {
			spec.Rules = model.RuleTemporary
		}
		return spec
	}))
	f.list.Remove(f.items["C"])
	expectLabels(t, f, "H1", "A", "B")
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_removed(4)", "item_removed(3)"}) {
		t.Errorf("notifications = %v", got)
	}
	if _, ok := f.ad.HeaderFor(2); ok {
		t.Error("temporary header still registered")
	}
	f.check(t)

	f.list.Append(f.items["C"])
	expectLabels(t, f, "H1", "A", "B", "H2", "C")
}

func TestRemoveFromCollapsedHeader(t *testing.T) {
	f := newFixture(t)
	f.ad.ToggleHeader(1, true)
	f.list.Remove(f.items["A"])
	if len(f.rec.got) != 0 {
		t.Errorf("notifications = %v", f.rec.strings())
	}
	if f.store.Count(f.header(t, 1)) != 1 || f.store.Sequence(f.items["B"]) != model.Seq(0) {
		t.Error("collapsed header not updated")
	}
	f.check(t)
}

func TestMoveReportsChangeInPlace(t *testing.T) {
	f := newFixture(t)
	f.list.Move(0, 2)
	expectLabels(t, f, "H1", "A", "B", "H2", "C")
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_changed(1)"}) {
		t.Errorf("notifications = %v", got)
	}
}

func TestReplaceSameKey(t *testing.T) {
	f := newFixture(t)
	b2 := f.store.NewItem(model.KeyedItem[int]("B2", 1, model.Seq(1)))
	f.list.Set(1, b2)
	expectLabels(t, f, "H1", "A", "B2", "H2", "C")
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_range_changed(2,1)"}) {
		t.Errorf("notifications = %v", got)
	}
	f.check(t)
}

func TestReplaceDifferentKeyRegroups(t *testing.T) {
	f := newFixture(t)
	x := f.store.NewItem(model.KeyedItem[int]("X", 2, model.NoSequence))
	f.list.Set(0, x)
	expectLabels(t, f, "H1", "B", "H2", "C", "X")
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_removed(1)", "item_inserted(4)"}) {
		t.Errorf("notifications = %v", got)
	}
	f.check(t)
}

func TestResetKeepsCollapseState(t *testing.T) {
	f := newFixture(t)
	h1 := f.header(t, 1)
	f.ad.ToggleHeader(1, false)
	f.rec.reset()

	f.list.ResetTo([]model.Handle{f.items["C"], f.items["B"], f.items["A"]})
	expectLabels(t, f, "H1", "H2", "C")
	if f.header(t, 1) != h1 {
		t.Error("header not reused across reset")
	}
	if got := f.rec.strings(); !slices.Equal(got, []string{"data_set_changed"}) {
		t.Errorf("notifications = %v", got)
	}

	f.list.ResetTo([]model.Handle{f.items["C"]})
	expectLabels(t, f, "H2", "C")
	if f.store.Valid(h1) {
		t.Error("dropped header not released")
	}
}

func TestInitialHeadersSeeded(t *testing.T) {
	f := newFixture(t,
		WithInitialHeaders(func() []int { return []int{0, 2, 7} }),
		WithHeaderFunc(func(key int, hasKey bool) model.HeaderSpec[int] {
			spec := model.HeaderSpec[int]{Name: fmt.Sprint(key), Key: key}
			if key == 7 {
				spec.Rules = model.RuleTemporary
			}
			return spec
		}),
	)
	expectLabels(t, f, "H0", "H1", "A", "B", "H2", "C")
	f.check(t)
}

func TestViewPosition(t *testing.T) {
	f := newFixture(t)
	if pos, err := f.ad.ViewPosition(2); err != nil || pos != 4 {
		t.Errorf("ViewPosition(2) = %d, %v", pos, err)
	}
	if _, err := f.ad.ViewPosition(3); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out of range err = %v", err)
	}
	f.ad.ToggleHeader(1, true)
	if _, err := f.ad.ViewPosition(0); !errors.Is(err, ErrHidden) {
		t.Errorf("hidden err = %v", err)
	}
	if _, err := New(f.store).ViewPosition(0); !errors.Is(err, ErrNoSource) {
		t.Errorf("unbound err = %v", err)
	}
}

func TestHeaderPosition(t *testing.T) {
	f := newFixture(t)
	for pos, want := range []int{0, 0, 0, 3, 3} {
		got, err := f.ad.HeaderPosition(pos)
		if err != nil || got != want {
			t.Errorf("HeaderPosition(%d) = %d,%v want %d", pos, got, err, want)
		}
	}
	if _, err := f.ad.HeaderPosition(5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v", err)
	}
	if f.ad.CountVisibleItemsInHeader(f.header(t, 1)) != 2 {
		t.Error("visible count")
	}
}

type fakeHost struct {
	computing bool
	posted    []func()
}

func (h *fakeHost) IsComputingLayout() bool { return h.computing }
func (h *fakeHost) Post(fn func())          { h.posted = append(h.posted, fn) }

func TestNotificationsDeferredDuringLayout(t *testing.T) {
	host := &fakeHost{}
	f := newFixture(t, WithLayoutHost(host))
	host.computing = true
	f.list.Remove(f.items["C"])
	if len(f.rec.got) != 0 || len(host.posted) != 1 {
		t.Fatalf("notify during layout: got %v posted %d", f.rec.strings(), len(host.posted))
	}
	host.computing = false
	host.posted[0]()
	if got := f.rec.strings(); !slices.Equal(got, []string{"item_removed(4)"}) {
		t.Errorf("deferred notifications = %v", got)
	}
}

func TestOffThreadChangesWarnAndApply(t *testing.T) {
	var warnings []string
	onUI := true
	f := newFixture(t,
		WithThreadCheck(func() bool { return onUI }),
		WithWarnFunc(func(format string, args ...any) { warnings = append(warnings, fmt.Sprintf(format, args...)) }),
	)
	onUI = false
	f.list.Remove(f.items["A"])
	if len(warnings) != 1 || !strings.Contains(warnings[0], "off the UI thread") {
		t.Errorf("warnings = %v", warnings)
	}
	expectLabels(t, f, "H1", "B", "H2", "C")
}

func TestApplyUnsupportedChange(t *testing.T) {
	f := newFixture(t)
	if err := f.ad.Apply(nil); err != nil {
		t.Errorf("nil change should rebuild, got %v", err)
	}
	if err := f.ad.Apply(source.Removed{Items: []model.Handle{f.store.NewItem(model.Item[int]{})}}); !errors.Is(err, ErrUnmapped) {
		t.Errorf("unknown removal err = %v", err)
	}
}

func TestGeneratedItemsBuildConsistently(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.UnkeyedRatio = 0.2
	s := model.NewStore[int]()
	l := source.NewList(testutil.New(cfg).Items(s, 60)...)
	ad := New(s, WithWarnFunc(func(string, ...any) {}))
	ad.SetSource(l)

	testutil.AssertFlattened(t, s, ad.Flattened())
	if got, want := ad.ItemCount(), 60+len(ad.Headers()); got != want {
		t.Errorf("ItemCount = %d, want %d", got, want)
	}
}

func TestIncrementalAddsMatchRebuild(t *testing.T) {
	s := model.NewStore[int]()
	items := testutil.Grouped(s, 3, 4, 1, 7)

	l := source.NewList()
	ad := New(s, WithWarnFunc(func(string, ...any) {}))
	ad.SetSource(l)
	for _, it := range items {
		l.Append(it)
	}
	testutil.AssertFlattened(t, s, ad.Flattened())
	incremental := testutil.Labels(s, ad.Flattened())

	if err := ad.Apply(source.Reset{}); err != nil {
		t.Fatal(err)
	}
	if rebuilt := testutil.Labels(s, ad.Flattened()); !slices.Equal(incremental, rebuilt) {
		t.Errorf("incremental %v, rebuilt %v", incremental, rebuilt)
	}
}
