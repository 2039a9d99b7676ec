// Package hierarchy maintains a lazily-materialized, flattened view over
// tree-shaped data so that a virtualized list can request arbitrary
// contiguous row windows without materializing the whole tree.
//
// A Mapper tracks which items are expanded, caches the last-fetched direct
// children of each expanded item, and produces the flattened pre-order
// sequence on demand. "Index in the flattened view" is always recomputed,
// never stored, so the view reflects the current expansion, sort, and
// filter state on every call.
package hierarchy

// SortDirection is the direction of a backend sort order.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// String returns "asc" or "desc" for use in queries and debug output.
func (d SortDirection) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortOrder is a single backend sort directive. The engine does not
// interpret Field; it is forwarded to the data source as-is.
type SortOrder struct {
	Field     string
	Direction SortDirection
}

// ChildQuery carries everything a data source needs to produce one page of
// direct children. Parent is nil when the roots are requested. Offset and
// Limit select a slice of the ordered child list; Sort and Filter are the
// mapper's current configuration, forwarded opaquely.
//
// Compare, when non-nil, is an in-memory refinement the source should apply
// to the fetched slice after its own ordering (a stable sort of the page,
// not a merge across pages).
type ChildQuery[T, F any] struct {
	Parent  *T
	Offset  int
	Limit   int
	Sort    []SortOrder
	Compare func(a, b T) int
	Filter  F
}

// DataSource supplies hierarchical data to a Mapper. Implementations own
// their failure semantics; errors returned here propagate unchanged through
// whatever Mapper operation triggered the call.
type DataSource[T, F any] interface {
	// ID returns a stable, non-empty identity for the item. Two
	// representations of the same logical item must share an ID; the mapper
	// never compares items directly.
	ID(item T) string

	// HasChildren reports whether the item has any children at all,
	// independent of expansion state or the current filter.
	HasChildren(item T) (bool, error)

	// ChildCount returns the number of direct children of parent under the
	// given filter. A nil parent counts the roots.
	ChildCount(parent *T, filter F) (int, error)

	// FetchChildren returns the ordered children selected by the query.
	FetchChildren(q ChildQuery[T, F]) ([]T, error)
}
