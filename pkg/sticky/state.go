package sticky

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// StateVersion is the current schema version of SavedState.
const StateVersion = 1

// HeaderState is the persisted collapse state of one header.
type HeaderState[K cmp.Ordered] struct {
	Key       K    `json:"key"`
	Collapsed bool `json:"collapsed"`
}

// SavedState is the persisted state of a list and its sticky header.
// Headers are identified by key so the state survives a reordered source.
type SavedState[K cmp.Ordered] struct {
	Version          int              `json:"version"`
	StickyPosition   int              `json:"sticky_position"`
	ShowStickyHeader bool             `json:"show_sticky_header"`
	Headers          []HeaderState[K] `json:"headers,omitempty"`
}

// Save captures the sticky header and the collapse state of every header.
func (m *LayoutManager[K]) Save() SavedState[K] {
	keys := m.helper.HeaderKeys()
	st := SavedState[K]{
		Version:          StateVersion,
		StickyPosition:   m.position,
		ShowStickyHeader: m.show,
		Headers:          make([]HeaderState[K], 0, len(keys)),
	}
	for _, k := range keys {
		st.Headers = append(st.Headers, HeaderState[K]{Key: k, Collapsed: m.helper.IsCollapsed(k)})
	}
	return st
}

// Restore replays st onto the current list. Headers that no longer exist
// are skipped. Toggles are applied without notifications, so the host must
// re-layout afterwards.
func (m *LayoutManager[K]) Restore(st SavedState[K]) error {
	var errs []error
	existing := make(map[K]bool)
	for _, k := range m.helper.HeaderKeys() {
		existing[k] = true
	}
	for _, hs := range st.Headers {
		if !existing[hs.Key] || m.helper.IsCollapsed(hs.Key) == hs.Collapsed {
			continue
		}
		if err := m.helper.ToggleHeader(hs.Key, true); err != nil {
			errs = append(errs, err)
		}
	}
	m.show = st.ShowStickyHeader
	m.position = st.StickyPosition
	m.initialized = false
	m.init()
	return errors.Join(errs...)
}

// MarshalState encodes st as indented JSON.
func MarshalState[K cmp.Ordered](st SavedState[K]) ([]byte, error) {
	return json.MarshalIndent(st, "", "  ")
}

// UnmarshalState decodes data produced by MarshalState.
func UnmarshalState[K cmp.Ordered](data []byte) (SavedState[K], error) {
	var st SavedState[K]
	if err := json.Unmarshal(data, &st); err != nil {
		return SavedState[K]{}, fmt.Errorf("decode sticky state: %w", err)
	}
	if st.Version > StateVersion {
		return SavedState[K]{}, fmt.Errorf("sticky state version %d is newer than supported %d", st.Version, StateVersion)
	}
	return st, nil
}

// SaveStateFile writes st to path, creating parent directories.
func SaveStateFile[K cmp.Ordered](path string, st SavedState[K]) error {
	data, err := MarshalState(st)
	if err != nil {
		return fmt.Errorf("marshal sticky state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// LoadStateFile reads the state at path. A missing file yields nil and no
// error.
func LoadStateFile[K cmp.Ordered](path string) (*SavedState[K], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	st, err := UnmarshalState[K](data)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
