// Package grouping builds the flattened list of a grouped view: one header
// per distinct grouping key, ordered by key, each followed by its children
// when expanded.
package grouping

import (
	"cmp"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/metrics"
	"github.com/vanderheijden86/expandable/pkg/model"
)

// HeaderFunc builds the header for a grouping key. hasKey is false for the
// group of items without a key; the returned spec's Key is then assigned
// to every member of that group. It is called once per distinct key.
type HeaderFunc[K cmp.Ordered] func(key K, hasKey bool) model.HeaderSpec[K]

// DefaultHeaderFunc names the header after its key. Items without a key
// are grouped under the zero value of K.
func DefaultHeaderFunc[K cmp.Ordered](key K, hasKey bool) model.HeaderSpec[K] {
	return model.HeaderSpec[K]{Name: fmt.Sprint(key), Key: key}
}

// Engine groups items of one store.
type Engine[K cmp.Ordered] struct {
	Store      *model.Store[K]
	HeaderFunc HeaderFunc[K]
	// Warn reports consistency problems. Defaults to log.Printf.
	Warn func(format string, args ...any)
}

// Result is the output of Build.
type Result[K cmp.Ordered] struct {
	// Flat is the render-order list of headers and visible children.
	Flat []model.Handle
	// Headers lists every header in ascending key order.
	Headers []model.Handle
}

func (e *Engine[K]) warn(format string, args ...any) {
	metrics.ConsistencyWarnings.Inc()
	if e.Warn != nil {
		e.Warn(format, args...)
		return
	}
	log.Printf("warning: "+format, args...)
}

// Generate returns the header spec for key using the configured HeaderFunc.
func (e *Engine[K]) Generate(key K, hasKey bool) model.HeaderSpec[K] {
	if e.HeaderFunc != nil {
		return e.HeaderFunc(key, hasKey)
	}
	if !hasKey {
		e.warn("item without a grouping key; grouping it under placeholder %v. Supply a header func that maps unset keys", key)
	}
	return DefaultHeaderFunc(key, hasKey)
}

type group[K cmp.Ordered] struct {
	spec  model.HeaderSpec[K]
	items []model.Handle
}

// Build groups items. Header handles among items are ignored. reuse, when
// non-nil, supplies an existing header for a key so its collapse state and
// rules survive the rebuild; otherwise a new header is allocated.
func (e *Engine[K]) Build(items []model.Handle, reuse func(K) (model.Handle, bool)) Result[K] {
	defer metrics.Timer(metrics.GroupBuild)()
	start := time.Now()
	s := e.Store

	var unkeyed []model.Handle
	byKey := make(map[K][]model.Handle)
	var keys []K
	for _, h := range items {
		if !s.Valid(h) || s.IsHeader(h) {
			continue
		}
		k, ok := s.Key(h)
		if !ok {
			unkeyed = append(unkeyed, h)
			continue
		}
		if _, seen := byKey[k]; !seen {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], h)
	}
	slices.Sort(keys)

	var groups []*group[K]
	index := make(map[K]*group[K])
	add := func(spec model.HeaderSpec[K], members []model.Handle) {
		if g, ok := index[spec.Key]; ok {
			g.items = append(g.items, members...)
			return
		}
		g := &group[K]{spec: spec, items: slices.Clone(members)}
		index[spec.Key] = g
		groups = append(groups, g)
	}

	if len(unkeyed) > 0 {
		var zero K
		spec := e.Generate(zero, false)
		for _, h := range unkeyed {
			s.SetKey(h, spec.Key)
		}
		add(spec, unkeyed)
	}
	for _, k := range keys {
		add(e.Generate(k, true), byKey[k])
	}

	slices.SortStableFunc(groups, func(a, b *group[K]) int { return cmp.Compare(a.spec.Key, b.spec.Key) })

	res := Result[K]{Headers: make([]model.Handle, 0, len(groups))}
	for _, g := range groups {
		hd, ok := model.Handle{}, false
		if reuse != nil {
			hd, ok = reuse(g.spec.Key)
		}
		if !ok || !s.IsHeader(hd) {
			hd = s.NewHeader(g.spec)
		}
		members := g.items
		slices.SortStableFunc(members, func(a, b model.Handle) int {
			sa, sb := s.Sequence(a), s.Sequence(b)
			switch {
			case sa.Less(sb):
				return -1
			case sb.Less(sa):
				return 1
			}
			return 0
		})
		s.SetChildren(hd, members)
		res.Headers = append(res.Headers, hd)
	}
	res.Flat = Flatten(s, res.Headers)
	debug.Log("grouping: %d items into %d headers, %d visible rows", len(items), len(res.Headers), len(res.Flat))
	debug.LogTiming("grouping: build", time.Since(start))
	return res
}

// Flatten emits each header followed by its children when expanded.
func Flatten[K cmp.Ordered](s *model.Store[K], headers []model.Handle) []model.Handle {
	var out []model.Handle
	for _, h := range headers {
		out = append(out, h)
		if !s.Collapsed(h) {
			out = append(out, s.Children(h)...)
		}
	}
	return out
}
