package model

import (
	"fmt"
	"strings"
)

// Rule is a bitset of behavioral restrictions attached to a header.
type Rule uint8

const (
	// RuleDragInDisabled rejects items dropped into the header from another group.
	RuleDragInDisabled Rule = 1 << iota
	// RuleDragOutDisabled prevents items of the header from being picked up for a drag.
	RuleDragOutDisabled
	// RuleSwipeStartDisabled prevents swiping items toward the start edge.
	RuleSwipeStartDisabled
	// RuleSwipeEndDisabled prevents swiping items toward the end edge.
	RuleSwipeEndDisabled
	// RuleSequenceDisabled leaves child sequences untouched after mutations.
	RuleSequenceDisabled
	// RuleTemporary removes the header once its last child is gone.
	RuleTemporary
)

// RuleNone is the empty rule set.
const RuleNone Rule = 0

var ruleNames = []struct {
	rule Rule
	name string
}{
	{RuleDragInDisabled, "drag_in_disabled"},
	{RuleDragOutDisabled, "drag_out_disabled"},
	{RuleSwipeStartDisabled, "swipe_start_disabled"},
	{RuleSwipeEndDisabled, "swipe_end_disabled"},
	{RuleSequenceDisabled, "sequence_disabled"},
	{RuleTemporary, "temporary"},
}

// Legacy left/right names map onto start/end.
var ruleAliases = map[string]Rule{
	"swipe_left_disabled":  RuleSwipeStartDisabled,
	"swipe_right_disabled": RuleSwipeEndDisabled,
}

// Has reports whether every bit of other is set in r.
func (r Rule) Has(other Rule) bool {
	return other != 0 && r&other == other
}

// With returns r with other added.
func (r Rule) With(other Rule) Rule { return r | other }

// Without returns r with other cleared.
func (r Rule) Without(other Rule) Rule { return r &^ other }

// Names returns the snake_case names of the set bits in declaration order.
func (r Rule) Names() []string {
	var names []string
	for _, rn := range ruleNames {
		if r.Has(rn.rule) {
			names = append(names, rn.name)
		}
	}
	return names
}

func (r Rule) String() string {
	if r == RuleNone {
		return "none"
	}
	return strings.Join(r.Names(), "|")
}

// ParseRule resolves a single rule name. Matching ignores case and accepts
// dashes in place of underscores.
func ParseRule(name string) (Rule, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.ReplaceAll(norm, "-", "_")
	for _, rn := range ruleNames {
		if rn.name == norm {
			return rn.rule, nil
		}
	}
	if r, ok := ruleAliases[norm]; ok {
		return r, nil
	}
	return RuleNone, fmt.Errorf("unknown header rule %q", name)
}

// ParseRules combines several rule names into one set.
func ParseRules(names []string) (Rule, error) {
	var out Rule
	for _, n := range names {
		r, err := ParseRule(n)
		if err != nil {
			return RuleNone, err
		}
		out |= r
	}
	return out, nil
}
