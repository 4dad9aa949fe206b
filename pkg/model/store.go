package model

import (
	"cmp"
	"slices"
)

type node[K cmp.Ordered] struct {
	gen  uint32
	live bool
	kind Kind

	model       any
	key         K
	hasKey      bool
	seq         Sequence
	selected    bool
	highlighted bool
	parent      Handle

	// header only
	name      string
	collapsed bool
	rules     Rule
	children  []Handle
}

// Store is the arena owning every item and header of one list.
// It is not safe for concurrent use.
type Store[K cmp.Ordered] struct {
	nodes []node[K]
	free  []uint32
}

// NewStore returns an empty store.
func NewStore[K cmp.Ordered]() *Store[K] {
	return &Store[K]{}
}

func (s *Store[K]) alloc() (Handle, *node[K]) {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.nodes = append(s.nodes, node[K]{})
		idx = uint32(len(s.nodes) - 1)
	}
	nd := &s.nodes[idx]
	gen := nd.gen + 1
	*nd = node[K]{gen: gen, live: true}
	return Handle{slot: idx + 1, gen: gen}, nd
}

func (s *Store[K]) node(h Handle) *node[K] {
	if h.slot == 0 || int(h.slot) > len(s.nodes) {
		return nil
	}
	nd := &s.nodes[h.slot-1]
	if !nd.live || nd.gen != h.gen {
		return nil
	}
	return nd
}

func (s *Store[K]) header(h Handle) *node[K] {
	nd := s.node(h)
	if nd == nil || nd.kind != KindHeader {
		return nil
	}
	return nd
}

// NewItem allocates a plain item.
func (s *Store[K]) NewItem(it Item[K]) Handle {
	h, nd := s.alloc()
	nd.kind = KindItem
	nd.model = it.Model
	nd.key = it.Key
	nd.hasKey = it.HasKey
	nd.seq = it.Sequence
	nd.selected = it.Selected
	nd.highlighted = it.Highlighted
	return h
}

// NewHeader allocates an empty header.
func (s *Store[K]) NewHeader(spec HeaderSpec[K]) Handle {
	h, nd := s.alloc()
	nd.kind = KindHeader
	nd.name = spec.Name
	nd.key = spec.Key
	nd.hasKey = true
	nd.model = spec.Model
	nd.rules = spec.Rules
	nd.collapsed = spec.Collapsed
	return h
}

// Release frees a node. Handles to it become invalid. Releasing a header
// detaches its children without releasing them.
func (s *Store[K]) Release(h Handle) {
	nd := s.node(h)
	if nd == nil {
		return
	}
	if nd.kind == KindHeader {
		for _, c := range nd.children {
			if cn := s.node(c); cn != nil && cn.parent == h {
				cn.parent = Handle{}
			}
		}
	} else if p := s.header(nd.parent); p != nil {
		if i := slices.Index(p.children, h); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
	}
	gen := nd.gen
	*nd = node[K]{gen: gen}
	s.free = append(s.free, h.slot-1)
}

// Valid reports whether h refers to a live node.
func (s *Store[K]) Valid(h Handle) bool { return s.node(h) != nil }

// Len returns the number of live nodes.
func (s *Store[K]) Len() int { return len(s.nodes) - len(s.free) }

func (s *Store[K]) Kind(h Handle) Kind {
	if nd := s.node(h); nd != nil {
		return nd.kind
	}
	return KindItem
}

// IsHeader reports whether h is a live header.
func (s *Store[K]) IsHeader(h Handle) bool { return s.header(h) != nil }

func (s *Store[K]) Model(h Handle) any {
	if nd := s.node(h); nd != nil {
		return nd.model
	}
	return nil
}

// Key returns the grouping key and whether one is set. Headers always have
// a key.
func (s *Store[K]) Key(h Handle) (K, bool) {
	if nd := s.node(h); nd != nil {
		return nd.key, nd.hasKey
	}
	var zero K
	return zero, false
}

// Sequence is always unset for headers.
func (s *Store[K]) Sequence(h Handle) Sequence {
	if nd := s.node(h); nd != nil {
		return nd.seq
	}
	return NoSequence
}

func (s *Store[K]) Selected(h Handle) bool {
	nd := s.node(h)
	return nd != nil && nd.selected
}

func (s *Store[K]) Highlighted(h Handle) bool {
	nd := s.node(h)
	return nd != nil && nd.highlighted
}

// Parent returns the header currently holding the item, if any.
func (s *Store[K]) Parent(h Handle) Handle {
	if nd := s.node(h); nd != nil && nd.kind == KindItem {
		if s.header(nd.parent) != nil {
			return nd.parent
		}
	}
	return Handle{}
}

func (s *Store[K]) Name(h Handle) string {
	if nd := s.header(h); nd != nil {
		return nd.name
	}
	return ""
}

func (s *Store[K]) Collapsed(h Handle) bool {
	nd := s.header(h)
	return nd != nil && nd.collapsed
}

func (s *Store[K]) Rules(h Handle) Rule {
	if nd := s.header(h); nd != nil {
		return nd.rules
	}
	return RuleNone
}

// Children returns a copy of the header's child list.
func (s *Store[K]) Children(h Handle) []Handle {
	if nd := s.header(h); nd != nil {
		return slices.Clone(nd.children)
	}
	return nil
}

// ChildAt returns the i-th child or the zero handle.
func (s *Store[K]) ChildAt(h Handle, i int) Handle {
	nd := s.header(h)
	if nd == nil || i < 0 || i >= len(nd.children) {
		return Handle{}
	}
	return nd.children[i]
}

// Count returns the number of children of a header.
func (s *Store[K]) Count(h Handle) int {
	if nd := s.header(h); nd != nil {
		return len(nd.children)
	}
	return 0
}

// IndexOfChild returns the position of item under header, or -1.
func (s *Store[K]) IndexOfChild(header, item Handle) int {
	if nd := s.header(header); nd != nil {
		return slices.Index(nd.children, item)
	}
	return -1
}

// SetKey changes an item's grouping key. Header keys are immutable.
func (s *Store[K]) SetKey(h Handle, key K) bool {
	nd := s.node(h)
	if nd == nil || nd.kind == KindHeader {
		return false
	}
	if nd.hasKey && nd.key == key {
		return false
	}
	nd.key, nd.hasKey = key, true
	return true
}

// ClearKey removes an item's grouping key.
func (s *Store[K]) ClearKey(h Handle) bool {
	nd := s.node(h)
	if nd == nil || nd.kind == KindHeader || !nd.hasKey {
		return false
	}
	var zero K
	nd.key, nd.hasKey = zero, false
	return true
}

// SetSequence changes an item's sequence. Headers never carry one.
func (s *Store[K]) SetSequence(h Handle, seq Sequence) bool {
	nd := s.node(h)
	if nd == nil || nd.kind == KindHeader || nd.seq == seq {
		return false
	}
	nd.seq = seq
	return true
}

func (s *Store[K]) SetSelected(h Handle, v bool) bool {
	nd := s.node(h)
	if nd == nil || nd.selected == v {
		return false
	}
	nd.selected = v
	return true
}

func (s *Store[K]) SetHighlighted(h Handle, v bool) bool {
	nd := s.node(h)
	if nd == nil || nd.highlighted == v {
		return false
	}
	nd.highlighted = v
	return true
}

func (s *Store[K]) SetCollapsed(h Handle, v bool) bool {
	nd := s.header(h)
	if nd == nil || nd.collapsed == v {
		return false
	}
	nd.collapsed = v
	return true
}

func (s *Store[K]) SetRules(h Handle, r Rule) bool {
	nd := s.header(h)
	if nd == nil || nd.rules == r {
		return false
	}
	nd.rules = r
	return true
}

func (s *Store[K]) SetName(h Handle, name string) bool {
	nd := s.header(h)
	if nd == nil || nd.name == name {
		return false
	}
	nd.name = name
	return true
}
