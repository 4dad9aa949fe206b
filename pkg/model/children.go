package model

import "slices"

// SetChildren replaces a header's child list, then resequences it.
func (s *Store[K]) SetChildren(header Handle, items []Handle) bool {
	hd := s.header(header)
	if hd == nil {
		return false
	}
	for _, c := range hd.children {
		if cn := s.node(c); cn != nil && cn.parent == header {
			cn.parent = Handle{}
		}
	}
	hd.children = hd.children[:0]
	for _, it := range items {
		if cn := s.node(it); cn != nil && cn.kind == KindItem {
			s.detach(it, cn)
			cn.parent = header
			hd.children = append(hd.children, it)
		}
	}
	s.Resequence(header)
	return true
}

// InsertChild places item at index i under header; i is clamped to the
// child range. An item held by another header is detached from it first,
// without resequencing that header.
func (s *Store[K]) InsertChild(header Handle, i int, item Handle) bool {
	hd := s.header(header)
	cn := s.node(item)
	if hd == nil || cn == nil || cn.kind != KindItem {
		return false
	}
	s.detach(item, cn)
	i = max(0, min(i, len(hd.children)))
	hd.children = slices.Insert(hd.children, i, item)
	cn.parent = header
	s.Resequence(header)
	return true
}

// AppendChild adds item at the end of header's children.
func (s *Store[K]) AppendChild(header Handle, item Handle) bool {
	return s.InsertChild(header, s.Count(header), item)
}

// RemoveChild detaches item from header and resequences it.
func (s *Store[K]) RemoveChild(header, item Handle) bool {
	hd := s.header(header)
	if hd == nil {
		return false
	}
	i := slices.Index(hd.children, item)
	if i < 0 {
		return false
	}
	hd.children = slices.Delete(hd.children, i, i+1)
	if cn := s.node(item); cn != nil && cn.parent == header {
		cn.parent = Handle{}
	}
	s.Resequence(header)
	return true
}

// MoveChild relocates item within header to index to.
func (s *Store[K]) MoveChild(header, item Handle, to int) bool {
	hd := s.header(header)
	if hd == nil {
		return false
	}
	from := slices.Index(hd.children, item)
	if from < 0 {
		return false
	}
	hd.children = slices.Delete(hd.children, from, from+1)
	to = max(0, min(to, len(hd.children)))
	hd.children = slices.Insert(hd.children, to, item)
	s.Resequence(header)
	return true
}

func (s *Store[K]) detach(item Handle, cn *node[K]) {
	p := s.header(cn.parent)
	if p == nil {
		cn.parent = Handle{}
		return
	}
	if i := slices.Index(p.children, item); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	cn.parent = Handle{}
}

// Resequence renumbers a header's children 0..n up to the last sequenced
// child. Trailing unsequenced children keep no sequence. Headers with
// RuleSequenceDisabled, or without any sequenced child, are left alone.
// It reports whether any sequence changed.
func (s *Store[K]) Resequence(header Handle) bool {
	hd := s.header(header)
	if hd == nil || hd.rules.Has(RuleSequenceDisabled) {
		return false
	}
	last := -1
	for i, c := range hd.children {
		if cn := s.node(c); cn != nil && cn.seq.ok {
			last = i
		}
	}
	changed := false
	for i := 0; i <= last; i++ {
		if s.SetSequence(hd.children[i], Seq(i)) {
			changed = true
		}
	}
	return changed
}
