package datasource

import (
	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/model"
	"github.com/vanderheijden86/expandable/pkg/source"
)

func newItem(store *model.Store[string], rec Record) model.Handle {
	it := model.Item[string]{Model: rec.Model}
	if rec.Header != nil {
		it.Key, it.HasKey = *rec.Header, true
	}
	if rec.Sequence != nil {
		it.Sequence = model.Seq(*rec.Sequence)
	}
	return store.NewItem(it)
}

// Loaded maps each item to the record it was last read from. Grouping
// renumbers sequences in the store, so a reload compares against this
// instead.
type Loaded map[model.Handle]Record

// Populate replaces the contents of l with fresh items for records and
// releases the items it held before.
func Populate(store *model.Store[string], l *source.List, records []Record) Loaded {
	prev := l.Items()
	items := make([]model.Handle, len(records))
	loaded := make(Loaded, len(records))
	for i, rec := range records {
		items[i] = newItem(store, rec)
		loaded[items[i]] = rec
	}
	l.ResetTo(items)
	for _, h := range prev {
		store.Release(h)
	}
	return loaded
}

// Snapshot returns the items of l as Records would write them, for use as
// the Loaded set after a write-back.
func Snapshot(store *model.Store[string], l *source.List) Loaded {
	items := l.Items()
	recs := Records(store, l)
	out := make(Loaded, len(items))
	for i, h := range items {
		out[h] = recs[i]
	}
	return out
}

// SyncStats counts what Sync changed.
type SyncStats struct {
	Added   int
	Removed int
	Updated int
}

// Sync brings l in line with records through individual list changes,
// matching items by model text. Matched items whose header or sequence
// differs from the record in loaded are removed and re-added so the grouping
// follows. Items keep their handles, and with them their selection. loaded
// is updated to records; with a nil loaded, items are compared against the
// store.
func Sync(store *model.Store[string], l *source.List, loaded Loaded, records []Record) SyncStats {
	var stats SyncStats
	for h := range loaded {
		if !store.Valid(h) {
			delete(loaded, h)
		}
	}
	byModel := make(map[string][]model.Handle)
	for _, h := range l.Items() {
		if m, ok := store.Model(h).(string); ok {
			byModel[m] = append(byModel[m], h)
		}
	}

	matched := make([]model.Handle, len(records))
	keep := make(map[model.Handle]bool)
	for i, rec := range records {
		if hs := byModel[rec.Model]; len(hs) > 0 {
			matched[i] = hs[0]
			byModel[rec.Model] = hs[1:]
			keep[hs[0]] = true
		}
	}

	for _, h := range l.Items() {
		if !keep[h] {
			l.Remove(h)
			store.Release(h)
			delete(loaded, h)
			stats.Removed++
		}
	}

	for i, rec := range records {
		h := matched[i]
		if h.IsZero() {
			h = newItem(store, rec)
			l.Append(h)
			if loaded != nil {
				loaded[h] = rec
			}
			stats.Added++
			continue
		}
		prev, seen := loaded[h]
		if loaded != nil {
			loaded[h] = rec
		}
		if seen && !recordChanged(prev, rec) {
			continue
		}
		if !seen && !changed(store, h, rec) {
			continue
		}
		l.Remove(h)
		if rec.Header != nil {
			store.SetKey(h, *rec.Header)
		} else {
			store.ClearKey(h)
		}
		if rec.Sequence != nil {
			store.SetSequence(h, model.Seq(*rec.Sequence))
		} else {
			store.SetSequence(h, model.NoSequence)
		}
		l.Append(h)
		stats.Updated++
	}
	debug.LogIf(stats != (SyncStats{}), "datasource: sync added %d, removed %d, updated %d", stats.Added, stats.Removed, stats.Updated)
	return stats
}

func recordChanged(prev, rec Record) bool {
	return !equalPtr(prev.Header, rec.Header) || !equalPtr(prev.Sequence, rec.Sequence)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// changed ignores the key of records without a header: grouping has
// already assigned those items a generated one.
func changed(store *model.Store[string], h model.Handle, rec Record) bool {
	if rec.Header != nil {
		if key, ok := store.Key(h); !ok || key != *rec.Header {
			return true
		}
	}
	seq := store.Sequence(h)
	n, ok := seq.Get()
	if ok != (rec.Sequence != nil) || (ok && n != *rec.Sequence) {
		return true
	}
	return false
}

// Records converts the items of l back to records, for saving.
func Records(store *model.Store[string], l *source.List) []Record {
	out := make([]Record, 0, l.Len())
	for _, h := range l.Items() {
		rec := Record{}
		if m, ok := store.Model(h).(string); ok {
			rec.Model = m
		}
		if key, ok := store.Key(h); ok {
			rec.Header = &key
		}
		if n, ok := store.Sequence(h).Get(); ok {
			rec.Sequence = &n
		}
		out = append(out, rec)
	}
	return out
}
