package testutil

import (
	"cmp"
	"fmt"
	"strings"
	"testing"

	"github.com/vanderheijden86/expandable/pkg/model"
)

// CheckFlattened verifies the structural invariants of a flattened list:
// headers strictly ascending by key, each followed by exactly its children
// when expanded and by nothing when collapsed, children carrying their
// header's key, no empty temporary header, no duplicate rows, and
// contiguous sequences under headers that renumber.
func CheckFlattened[K cmp.Ordered](s *model.Store[K], flat []model.Handle) error {
	seen := make(map[model.Handle]bool, len(flat))
	var prevKey K
	first := true
	for i := 0; i < len(flat); {
		h := flat[i]
		if !s.IsHeader(h) {
			return fmt.Errorf("row %d (%v) is an item outside any header run", i, h)
		}
		key, _ := s.Key(h)
		if !first && cmp.Compare(prevKey, key) >= 0 {
			return fmt.Errorf("header %v at row %d not after %v", key, i, prevKey)
		}
		prevKey, first = key, false
		if seen[h] {
			return fmt.Errorf("header %v repeated", key)
		}
		seen[h] = true

		children := s.Children(h)
		rules := s.Rules(h)
		if rules.Has(model.RuleTemporary) && len(children) == 0 {
			return fmt.Errorf("empty temporary header %v present", key)
		}
		i++
		if !s.Collapsed(h) {
			for j, c := range children {
				if i >= len(flat) || flat[i] != c {
					return fmt.Errorf("header %v child %d (%v) not at row %d", key, j, c, i)
				}
				i++
			}
		}
		for j, c := range children {
			if seen[c] {
				return fmt.Errorf("item %v repeated", c)
			}
			seen[c] = true
			if s.Parent(c) != h {
				return fmt.Errorf("item %v under %v has parent %v", c, key, s.Parent(c))
			}
			if ck, ok := s.Key(c); !ok || ck != key {
				return fmt.Errorf("item %v under %v has key %v", c, key, ck)
			}
			if rules.Has(model.RuleSequenceDisabled) {
				continue
			}
			if n, ok := s.Sequence(c).Get(); ok && n != j {
				return fmt.Errorf("item %v under %v has sequence %d at index %d", c, key, n, j)
			}
		}
	}
	return nil
}

// AssertFlattened fails the test when CheckFlattened reports a violation.
func AssertFlattened[K cmp.Ordered](t testing.TB, s *model.Store[K], flat []model.Handle) {
	t.Helper()
	if err := CheckFlattened(s, flat); err != nil {
		t.Fatalf("inconsistent flattened list: %v\n%s", err, Describe(s, flat))
	}
}

// Describe renders rows as "[H:key] model" lines for failure messages.
func Describe[K cmp.Ordered](s *model.Store[K], flat []model.Handle) string {
	var sb strings.Builder
	for i, h := range flat {
		if s.IsHeader(h) {
			k, _ := s.Key(h)
			fmt.Fprintf(&sb, "%3d [H:%v] %s collapsed=%v\n", i, k, s.Name(h), s.Collapsed(h))
			continue
		}
		fmt.Fprintf(&sb, "%3d     %v seq=%v\n", i, s.Model(h), s.Sequence(h))
	}
	return sb.String()
}

// Labels returns "H<key>" for headers and the model text for items.
func Labels[K cmp.Ordered](s *model.Store[K], flat []model.Handle) []string {
	out := make([]string, len(flat))
	for i, h := range flat {
		if s.IsHeader(h) {
			k, _ := s.Key(h)
			out[i] = fmt.Sprintf("H%v", k)
			continue
		}
		out[i] = fmt.Sprint(s.Model(h))
	}
	return out
}
