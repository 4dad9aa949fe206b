// Package testutil provides deterministic fixtures and invariant checks for
// grouped lists.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/expandable/pkg/model"
)

// GeneratorConfig controls item generation.
type GeneratorConfig struct {
	Seed           int64   // random seed; 0 picks 42
	Keys           int     // number of distinct grouping keys (default 3)
	SequencedRatio float64 // share of items with a sequence
	UnkeyedRatio   float64 // share of items without a key
	Prefix         string  // model prefix (default "item")
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, Keys: 3, SequencedRatio: 0.5, Prefix: "item"}
}

// Generator allocates pseudo-random items.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	n   int
}

// New returns a generator for cfg.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Keys <= 0 {
		cfg.Keys = 3
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "item"
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Item allocates one item in s. Its model is a unique string.
func (g *Generator) Item(s *model.Store[int]) model.Handle {
	it := model.Item[int]{Model: fmt.Sprintf("%s-%03d", g.cfg.Prefix, g.n)}
	g.n++
	if g.rng.Float64() >= g.cfg.UnkeyedRatio {
		it.Key, it.HasKey = g.rng.Intn(g.cfg.Keys), true
	}
	if g.rng.Float64() < g.cfg.SequencedRatio {
		it.Sequence = model.Seq(g.rng.Intn(g.cfg.Keys * 4))
	}
	return s.NewItem(it)
}

// Items allocates n items.
func (g *Generator) Items(s *model.Store[int], n int) []model.Handle {
	out := make([]model.Handle, n)
	for i := range out {
		out[i] = g.Item(s)
	}
	return out
}

// Grouped allocates perKey sequenced items for each of the given keys,
// sequences starting at 0 within every key.
func Grouped(s *model.Store[int], perKey int, keys ...int) []model.Handle {
	var out []model.Handle
	for _, k := range keys {
		for i := 0; i < perKey; i++ {
			out = append(out, s.NewItem(model.KeyedItem[int](fmt.Sprintf("%d.%d", k, i), k, model.Seq(i))))
		}
	}
	return out
}
