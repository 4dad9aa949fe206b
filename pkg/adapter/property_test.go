package adapter

import (
	"fmt"
	"slices"
	"testing"

	"github.com/vanderheijden86/expandable/pkg/model"
	"github.com/vanderheijden86/expandable/pkg/source"
	"github.com/vanderheijden86/expandable/pkg/testutil"
	"pgregory.net/rapid"
)

// drawAdapter builds an adapter over random keyed items whose headers carry
// random rules.
func drawAdapter(t *rapid.T) (*model.Store[int], *source.List, *Adapter[int]) {
	s := model.NewStore[int]()
	n := rapid.IntRange(1, 25).Draw(t, "items")
	var items []model.Handle
	for i := 0; i < n; i++ {
		seq := model.NoSequence
		if rapid.Bool().Draw(t, "sequenced") {
			seq = model.Seq(rapid.IntRange(0, 8).Draw(t, "seq"))
		}
		key := rapid.IntRange(0, 4).Draw(t, "key")
		items = append(items, s.NewItem(model.KeyedItem[int](fmt.Sprintf("i%d", i), key, seq)))
	}
	rules := map[int]model.Rule{}
	for k := 0; k <= 4; k++ {
		rules[k] = model.Rule(rapid.IntRange(0, 63).Draw(t, "rules")).Without(model.RuleDragOutDisabled)
	}
	l := source.NewList(items...)
	ad := New(s,
		WithWarnFunc(func(string, ...any) {}),
		WithHeaderFunc(func(key int, hasKey bool) model.HeaderSpec[int] {
			return model.HeaderSpec[int]{Name: fmt.Sprint(key), Key: key, Rules: rules[key]}
		}))
	ad.SetSource(l)
	return s, l, ad
}

func consistent(t *rapid.T, s *model.Store[int], ad *Adapter[int]) {
	if err := testutil.CheckFlattened(s, ad.Flattened()); err != nil {
		t.Fatalf("%v\n%s", err, testutil.Describe(s, ad.Flattened()))
	}
}

func TestPropertyCollapseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, _, ad := drawAdapter(t)
		headers := ad.Headers()
		h := rapid.SampledFrom(headers).Draw(t, "header")
		before := ad.Flattened()
		children := s.Children(h)

		if err := ad.OnHeaderClick(h, false); err != nil {
			t.Fatal(err)
		}
		consistent(t, s, ad)
		if err := ad.OnHeaderClick(h, false); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(before, ad.Flattened()) {
			t.Fatalf("flattened list changed across collapse and expand")
		}
		if !slices.Equal(children, s.Children(h)) {
			t.Fatalf("child order changed across collapse and expand")
		}
	})
}

func TestPropertyMoveGuard(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_, _, ad := drawAdapter(t)
		before := ad.Flattened()
		from := rapid.IntRange(0, ad.ItemCount()-1).Draw(t, "from")
		if ad.OnMove(from, 0) || ad.OnMove(from, from) {
			t.Fatal("guarded move accepted")
		}
		if !slices.Equal(before, ad.Flattened()) {
			t.Fatal("guarded move changed the list")
		}
	})
}

func TestPropertyDropKeepsInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, _, ad := drawAdapter(t)
		var draggable []int
		for pos := 0; pos < ad.ItemCount(); pos++ {
			if drag, _ := ad.MovementFlags(pos); drag != 0 {
				draggable = append(draggable, pos)
			}
		}
		if len(draggable) == 0 {
			t.Skip("nothing to drag")
		}
		from := rapid.SampledFrom(draggable).Draw(t, "from")
		to := rapid.IntRange(1, ad.ItemCount()-1).Draw(t, "to")
		item := ad.Item(from)
		own := ad.HeaderOf(item)
		ownKey, _ := s.Key(own)

		ad.OnMove(from, to)
		target := ad.HeaderAt(to - 1)
		res, err := ad.OnClearView(to)
		if err != nil {
			t.Fatalf("drop: %v", err)
		}
		consistent(t, s, ad)

		key, _ := s.Key(item)
		refused := target != own && s.Rules(target).Has(model.RuleDragInDisabled)
		if refused {
			if res != DropReverted || key != ownKey {
				t.Fatalf("drop into drag-in disabled header: result %v, key %d -> %d", res, ownKey, key)
			}
			return
		}
		targetKey, _ := s.Key(target)
		if key != targetKey {
			t.Fatalf("item key %d, want target %d (result %v)", key, targetKey, res)
		}
	})
}

func TestPropertyIncrementalMatchesRebuild(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, l, ad := drawAdapter(t)
		steps := rapid.IntRange(1, 15).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch op := rapid.IntRange(0, 2).Draw(t, "op"); {
			case op == 0 || l.Len() == 0:
				key := rapid.IntRange(0, 5).Draw(t, "key")
				l.Append(s.NewItem(model.KeyedItem[int](fmt.Sprintf("n%d", i), key, model.NoSequence)))
			case op == 1:
				l.RemoveAt(rapid.IntRange(0, l.Len()-1).Draw(t, "remove"))
			default:
				if hs := ad.Headers(); len(hs) > 0 {
					ad.OnHeaderClick(rapid.SampledFrom(hs).Draw(t, "toggle"), false)
				}
			}
			consistent(t, s, ad)
		}

		want := map[int]int{}
		for _, h := range l.Items() {
			k, _ := s.Key(h)
			want[k]++
		}
		for k, n := range want {
			h, ok := ad.HeaderFor(k)
			if !ok || s.Count(h) != n {
				t.Fatalf("header %d holds %d items, source has %d", k, s.Count(h), n)
			}
		}
	})
}
