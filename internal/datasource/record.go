// Package datasource reads grouped list items from JSON, JSON Lines, YAML
// and SQLite files and feeds them into a source list.
package datasource

import (
	"fmt"
	"strings"
)

// Record is one item as stored on disk. A nil Header leaves the item
// without a grouping key; a nil Sequence appends it at the end of its group.
type Record struct {
	Model    string  `json:"model" yaml:"model"`
	Header   *string `json:"header,omitempty" yaml:"header,omitempty"`
	Sequence *int    `json:"sequence,omitempty" yaml:"sequence,omitempty"`
}

// Validate checks that the record has a model.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return fmt.Errorf("record has an empty model")
	}
	if r.Sequence != nil && *r.Sequence < 0 {
		return fmt.Errorf("record %q has negative sequence %d", r.Model, *r.Sequence)
	}
	return nil
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Model)
	if r.Header != nil {
		fmt.Fprintf(&b, " [%s]", *r.Header)
	}
	if r.Sequence != nil {
		fmt.Fprintf(&b, " #%d", *r.Sequence)
	}
	return b.String()
}

// Rec builds a record; an empty header leaves it unkeyed and a negative
// sequence leaves it unsequenced.
func Rec(model, header string, seq int) Record {
	r := Record{Model: model}
	if header != "" {
		r.Header = &header
	}
	if seq >= 0 {
		r.Sequence = &seq
	}
	return r
}
