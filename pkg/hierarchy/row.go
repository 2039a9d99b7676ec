package hierarchy

import (
	json "github.com/goccy/go-json"
)

// RowMeta is the hierarchy metadata attached to each visible row before it
// crosses the rendering boundary. Collapsed and CollapseAllowed are present
// only on non-leaf rows; the positional index is the window consumer's to
// assign.
type RowMeta struct {
	ID              string `json:"id"`
	Depth           int    `json:"depth"`
	Leaf            bool   `json:"leaf"`
	Collapsed       *bool  `json:"collapsed,omitempty"`
	CollapseAllowed *bool  `json:"collapseAllowed,omitempty"`
}

// JSON renders the metadata for the wire.
func (r RowMeta) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// RowMeta computes per-row hierarchy metadata for an item about to be
// rendered: its depth, whether it is a leaf, and for branch rows the
// collapsed state plus whether collapsing is permitted.
func (m *Mapper[T, F]) RowMeta(item T) (RowMeta, error) {
	depth, err := m.Depth(item)
	if err != nil {
		return RowMeta{}, err
	}
	has, err := m.src.HasChildren(item)
	if err != nil {
		return RowMeta{}, err
	}
	meta := RowMeta{ID: m.src.ID(item), Depth: depth, Leaf: !has}
	if has {
		collapsed := !m.IsExpanded(&item)
		allowed := m.collapseAllowed(item)
		meta.Collapsed = &collapsed
		meta.CollapseAllowed = &allowed
	}
	return meta, nil
}
