package main

import (
	"fmt"
	"io"

	"github.com/vanderheijden86/expandable/internal/datasource"
	"github.com/vanderheijden86/expandable/pkg/adapter"
	"github.com/vanderheijden86/expandable/pkg/config"
	"github.com/vanderheijden86/expandable/pkg/model"
	"github.com/vanderheijden86/expandable/pkg/source"
	"github.com/vanderheijden86/expandable/pkg/ui"
)

// printList writes the flattened list, one row per line.
func printList(w io.Writer, cfg config.Config, records []datasource.Record) error {
	store := model.NewStore[string]()
	list := source.NewList()
	initial := cfg.InitialHeaders
	ad := adapter.New(store,
		adapter.WithHeaderFunc(cfg.HeaderFunc()),
		adapter.WithInitialHeaders(func() []string { return initial }),
	)
	ad.SetSource(list)
	defer ad.Close()
	datasource.Populate(store, list, records)

	styles := ui.DefaultStyles()
	for pos := range ad.ItemCount() {
		h := ad.Item(pos)
		if ad.IsHeader(pos) {
			key, _ := store.Key(h)
			arrow := "▾"
			if ad.IsCollapsed(key) {
				arrow = "▸"
			}
			line := fmt.Sprintf("%s %s (%d)", arrow, store.Name(h), store.Count(h))
			if _, err := fmt.Fprintln(w, styles.Header.Render(line)); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, styles.Item.Render("    "+fmt.Sprint(store.Model(h)))); err != nil {
			return err
		}
	}
	return nil
}
