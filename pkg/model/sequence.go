package model

import "strconv"

// Sequence is an optional position of an item within its group.
// The zero value is unsequenced.
type Sequence struct {
	n  int
	ok bool
}

// NoSequence marks an item that is appended at the end of its group.
var NoSequence = Sequence{}

// Seq returns a set sequence.
func Seq(n int) Sequence { return Sequence{n: n, ok: true} }

// Get returns the value and whether it is set.
func (s Sequence) Get() (int, bool) { return s.n, s.ok }

// Valid reports whether the sequence is set.
func (s Sequence) Valid() bool { return s.ok }

// Less orders set sequences before unset ones, then by value.
func (s Sequence) Less(o Sequence) bool {
	if s.ok != o.ok {
		return s.ok
	}
	return s.ok && s.n < o.n
}

func (s Sequence) String() string {
	if !s.ok {
		return "-"
	}
	return strconv.Itoa(s.n)
}
