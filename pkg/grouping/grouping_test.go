package grouping

import (
	"fmt"
	"slices"
	"testing"

	"github.com/vanderheijden86/expandable/pkg/model"
	"pgregory.net/rapid"
)

func names(s *model.Store[int], hs []model.Handle) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		if s.IsHeader(h) {
			out[i] = "H" + s.Name(h)
			continue
		}
		out[i] = fmt.Sprint(s.Model(h))
	}
	return out
}

func TestBuildBasicScenario(t *testing.T) {
	s := model.NewStore[int]()
	a := s.NewItem(model.KeyedItem[int]("A", 1, model.Seq(0)))
	b := s.NewItem(model.KeyedItem[int]("B", 1, model.Seq(1)))
	c := s.NewItem(model.KeyedItem[int]("C", 2, model.Seq(0)))

	e := &Engine[int]{Store: s}
	res := e.Build([]model.Handle{c, b, a}, nil)

	want := []string{"H1", "A", "B", "H2", "C"}
	if got := names(s, res.Flat); !slices.Equal(got, want) {
		t.Fatalf("flat = %v, want %v", got, want)
	}
	if len(res.Headers) != 2 || s.Parent(a) != res.Headers[0] {
		t.Errorf("headers = %v", res.Headers)
	}
}

func TestBuildOrdersSequencedFirst(t *testing.T) {
	s := model.NewStore[int]()
	x := s.NewItem(model.KeyedItem[int]("x", 1, model.NoSequence))
	y := s.NewItem(model.KeyedItem[int]("y", 1, model.Seq(5)))
	z := s.NewItem(model.KeyedItem[int]("z", 1, model.NoSequence))
	w := s.NewItem(model.KeyedItem[int]("w", 1, model.Seq(2)))

	e := &Engine[int]{Store: s}
	res := e.Build([]model.Handle{x, y, z, w}, nil)

	if got := names(s, res.Flat); !slices.Equal(got, []string{"H1", "w", "y", "x", "z"}) {
		t.Fatalf("flat = %v", got)
	}
	if s.Sequence(w) != model.Seq(0) || s.Sequence(y) != model.Seq(1) || s.Sequence(x).Valid() {
		t.Errorf("sequences not renumbered: w=%v y=%v x=%v", s.Sequence(w), s.Sequence(y), s.Sequence(x))
	}
}

func TestBuildUnkeyedItemsWarnAndTakeKey(t *testing.T) {
	s := model.NewStore[int]()
	u := s.NewItem(model.Item[int]{Model: "u"})
	k := s.NewItem(model.KeyedItem[int]("k", 0, model.NoSequence))

	var warnings []string
	e := &Engine[int]{Store: s, Warn: func(f string, args ...any) { warnings = append(warnings, fmt.Sprintf(f, args...)) }}
	res := e.Build([]model.Handle{k, u}, nil)

	if len(warnings) != 1 {
		t.Fatalf("warnings = %v", warnings)
	}
	if key, ok := s.Key(u); !ok || key != 0 {
		t.Errorf("unkeyed item key = %d,%v", key, ok)
	}
	if len(res.Headers) != 1 {
		t.Fatalf("placeholder group should merge with key 0, got %d headers", len(res.Headers))
	}
	if got := names(s, res.Flat); !slices.Equal(got, []string{"H0", "u", "k"}) {
		t.Errorf("flat = %v", got)
	}
}

func TestBuildCustomHeaderFunc(t *testing.T) {
	s := model.NewStore[int]()
	u := s.NewItem(model.Item[int]{Model: "u"})
	a := s.NewItem(model.KeyedItem[int]("a", 3, model.NoSequence))

	calls := 0
	e := &Engine[int]{Store: s, HeaderFunc: func(key int, hasKey bool) model.HeaderSpec[int] {
		calls++
		if !hasKey {
			return model.HeaderSpec[int]{Name: "none", Key: -1, Rules: model.RuleTemporary}
		}
		return model.HeaderSpec[int]{Name: fmt.Sprintf("group %d", key), Key: key, Collapsed: true}
	}, Warn: func(string, ...any) { t.Error("custom header func should not warn") }}
	res := e.Build([]model.Handle{a, u}, nil)

	if calls != 2 {
		t.Errorf("header func called %d times", calls)
	}
	if got := names(s, res.Flat); !slices.Equal(got, []string{"Hnone", "u", "Hgroup 3"}) {
		t.Errorf("flat = %v", got)
	}
	if !s.Rules(res.Headers[0]).Has(model.RuleTemporary) {
		t.Error("rules from header func not applied")
	}
}

func TestBuildReusesHeaders(t *testing.T) {
	s := model.NewStore[int]()
	a := s.NewItem(model.KeyedItem[int]("A", 1, model.NoSequence))
	e := &Engine[int]{Store: s}

	first := e.Build([]model.Handle{a}, nil)
	s.SetCollapsed(first.Headers[0], true)

	b := s.NewItem(model.KeyedItem[int]("B", 1, model.NoSequence))
	second := e.Build([]model.Handle{a, b}, func(k int) (model.Handle, bool) {
		return first.Headers[0], k == 1
	})
	if second.Headers[0] != first.Headers[0] {
		t.Fatal("header not reused")
	}
	if len(second.Flat) != 1 || s.Count(second.Headers[0]) != 2 {
		t.Errorf("collapsed reused header: flat=%v count=%d", second.Flat, s.Count(second.Headers[0]))
	}
}

func TestBuildSkipsHeaders(t *testing.T) {
	s := model.NewStore[int]()
	stray := s.NewHeader(model.HeaderSpec[int]{Name: "stray", Key: 9})
	a := s.NewItem(model.KeyedItem[int]("A", 1, model.NoSequence))
	res := (&Engine[int]{Store: s}).Build([]model.Handle{stray, a}, nil)
	if len(res.Headers) != 1 || res.Headers[0] == stray {
		t.Errorf("source headers must be excluded: %v", res.Headers)
	}
}

func TestBuildGroupingCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := model.NewStore[int]()
		n := rapid.IntRange(0, 30).Draw(t, "n")
		var items []model.Handle
		keys := map[int]bool{}
		for i := 0; i < n; i++ {
			k := rapid.IntRange(-3, 3).Draw(t, "key")
			seq := model.NoSequence
			if rapid.Bool().Draw(t, "sequenced") {
				seq = model.Seq(rapid.IntRange(0, 10).Draw(t, "seq"))
			}
			keys[k] = true
			items = append(items, s.NewItem(model.KeyedItem[int](i, k, seq)))
		}
		res := (&Engine[int]{Store: s}).Build(items, nil)

		if len(res.Headers) != len(keys) {
			t.Fatalf("%d headers for %d keys", len(res.Headers), len(keys))
		}
		var prev *int
		var extracted []model.Handle
		for _, h := range res.Flat {
			if s.IsHeader(h) {
				k, _ := s.Key(h)
				if prev != nil && *prev >= k {
					t.Fatalf("headers out of order: %d then %d", *prev, k)
				}
				prev = &k
				continue
			}
			extracted = append(extracted, h)
		}
		var children []model.Handle
		for _, h := range res.Headers {
			children = append(children, s.Children(h)...)
			hk, _ := s.Key(h)
			for _, c := range s.Children(h) {
				if ck, _ := s.Key(c); ck != hk {
					t.Fatalf("child key %d under header %d", ck, hk)
				}
			}
		}
		if !slices.Equal(extracted, children) {
			t.Fatalf("flattened children %v differ from header children %v", extracted, children)
		}
		if len(children) != n {
			t.Fatalf("%d children for %d items", len(children), n)
		}
	})
}
