package hierarchy

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/foldview/pkg/debug"
)

// Errors returned for invalid arguments. Everything else that "fails" is a
// silent no-op: expanding an already-expanded or childless item, collapsing
// a non-expanded item, or locating an item that is not currently visible.
var (
	ErrNilItem         = errors.New("hierarchy: cannot resolve the parent of a nil item")
	ErrIndexOutOfRange = errors.New("hierarchy: row index outside the flattened view")
)

// rootKey keys the root level in the child cache. Item IDs must be
// non-empty, so the empty string cannot collide with a real item.
const rootKey = ""

// Mapper is the flattening and windowing engine for one view over a
// hierarchical data source. It tracks expansion state, caches the
// last-fetched children of expanded items, and recomputes the flattened
// row sequence on demand.
//
// A Mapper is not safe for concurrent use. One instance serves one
// view/session and is expected to be driven sequentially by its owner;
// independent instances never share state and may run in parallel.
type Mapper[T, F any] struct {
	src DataSource[T, F]

	// expanded holds the IDs of currently expanded items. Roots are
	// implicitly expanded and never appear here.
	expanded map[string]struct{}

	// childIDs maps an expanded parent's ID to the IDs of its last-fetched
	// children, in fetch order. An entry exists iff the parent is expanded
	// and its last fetch returned at least one child.
	childIDs map[string][]string

	// parentIDs is the reverse index of childIDs (child ID -> parent ID),
	// maintained alongside the cache so parent lookup is O(1).
	parentIDs map[string]string

	// items holds the last-fetched instance for each cached ID, so parents
	// can be handed back even when the backend returns distinct instances
	// of the same logical item across fetches.
	items map[string]T

	filter          F
	sort            []SortOrder
	compare         func(a, b T) int
	collapseAllowed func(item T) bool
}

// NewMapper builds a Mapper over the given data source. Nothing starts
// expanded; the collapse-allowed predicate defaults to always true.
func NewMapper[T, F any](src DataSource[T, F]) *Mapper[T, F] {
	return &Mapper[T, F]{
		src:             src,
		expanded:        make(map[string]struct{}),
		childIDs:        make(map[string][]string),
		parentIDs:       make(map[string]string),
		items:           make(map[string]T),
		collapseAllowed: func(T) bool { return true },
	}
}

// Filter returns the current filter value.
func (m *Mapper[T, F]) Filter() F { return m.filter }

// SetFilter replaces the filter forwarded to the data source. The next
// flattening call sees the new value; nothing is cached across calls, so no
// further invalidation is needed.
func (m *Mapper[T, F]) SetFilter(filter F) { m.filter = filter }

// BackendSort returns the current backend sort directives.
func (m *Mapper[T, F]) BackendSort() []SortOrder { return m.sort }

// SetBackendSort replaces the backend sort directives.
func (m *Mapper[T, F]) SetBackendSort(orders []SortOrder) { m.sort = orders }

// Comparator returns the current in-memory comparator, or nil.
func (m *Mapper[T, F]) Comparator() func(a, b T) int { return m.compare }

// SetComparator replaces the in-memory comparator applied by the data
// source as a secondary refinement of each fetched child slice.
func (m *Mapper[T, F]) SetComparator(cmp func(a, b T) int) { m.compare = cmp }

// SetCollapseAllowed replaces the predicate consulted for the
// collapseAllowed row metadata field. A nil predicate restores the default
// (always true).
func (m *Mapper[T, F]) SetCollapseAllowed(allowed func(item T) bool) {
	if allowed == nil {
		allowed = func(T) bool { return true }
	}
	m.collapseAllowed = allowed
}

// key returns the cache key for an item, or rootKey for the nil root.
func (m *Mapper[T, F]) key(item *T) string {
	if item == nil {
		return rootKey
	}
	return m.src.ID(*item)
}

// IsExpanded reports whether the item's children are currently part of the
// flattened view. The nil root is always expanded.
func (m *Mapper[T, F]) IsExpanded(item *T) bool {
	if item == nil {
		return true
	}
	_, ok := m.expanded[m.src.ID(*item)]
	return ok
}

// HasChildren reports whether the item has children, independent of
// expansion state. Delegates to the data source.
func (m *Mapper[T, F]) HasChildren(item T) (bool, error) {
	return m.src.HasChildren(item)
}

// Expand marks the item expanded and reports the rows the expansion
// inserted into the flattened view. Expanding an already-expanded or
// childless item is a no-op returning the empty range. Expanding an item
// that is not currently visible (a collapsed ancestor hides it) also
// returns the empty range, but the mark sticks so the subtree appears once
// its ancestors are expanded.
func (m *Mapper[T, F]) Expand(item T) (Range, error) {
	if m.IsExpanded(&item) {
		return EmptyRange, nil
	}
	has, err := m.src.HasChildren(item)
	if err != nil || !has {
		return EmptyRange, err
	}
	id := m.src.ID(item)
	m.expanded[id] = struct{}{}
	pos, found, err := m.indexOf(item)
	if err != nil || !found {
		return EmptyRange, err
	}
	size, err := m.subtreeSize(item)
	if err != nil {
		return EmptyRange, err
	}
	debug.Log("hierarchy: expand %q -> %d rows at %d", id, size, pos+1)
	return WithLength(pos+1, size), nil
}

// Collapse removes the expansion mark from the item and reports the rows
// that vanish. The subtree is measured before the mark is removed, while
// it is still visible. Collapsing a non-expanded item is a no-op.
func (m *Mapper[T, F]) Collapse(item T) (Range, error) {
	if !m.IsExpanded(&item) {
		return EmptyRange, nil
	}
	removed := EmptyRange
	pos, found, err := m.indexOf(item)
	if err != nil {
		return EmptyRange, err
	}
	if found {
		size, err := m.subtreeSize(item)
		if err != nil {
			return EmptyRange, err
		}
		removed = WithLength(pos+1, size)
	}
	id := m.src.ID(item)
	delete(m.expanded, id)
	debug.Log("hierarchy: collapse %q -> %d rows at %d", id, removed.Length, removed.Start)
	return removed, nil
}

// TreeSize returns the total row count of the flattened view. This walks
// the whole visible tree, so callers should treat it as O(visible tree
// size), not O(1).
func (m *Mapper[T, F]) TreeSize() (int, error) {
	n := 0
	_, err := m.walk(nil, true, func(T) bool { n++; return true })
	return n, err
}

// FetchWindow returns the rows of the flattened view covered by r, using
// skip/limit over the lazy walk so fetch cost scales with the work needed
// to reach and fill the window rather than with the total tree size.
// Subtrees past the end of the window are never fetched.
func (m *Mapper[T, F]) FetchWindow(r Range) ([]T, error) {
	if r.Empty() {
		return nil, nil
	}
	rows := make([]T, 0, r.Length)
	index := 0
	_, err := m.walk(nil, true, func(item T) bool {
		if index >= r.Start {
			rows = append(rows, item)
		}
		index++
		return index < r.End()
	})
	return rows, err
}

// Flatten materializes the whole flattened view. Like TreeSize, this is
// O(visible tree size).
func (m *Mapper[T, F]) Flatten() ([]T, error) {
	var rows []T
	_, err := m.walk(nil, true, func(item T) bool {
		rows = append(rows, item)
		return true
	})
	return rows, err
}

// ParentOf resolves the parent of item from the child cache. A nil result
// means the item is a root or is not currently tracked by the cache.
func (m *Mapper[T, F]) ParentOf(item *T) (*T, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	pid, ok := m.parentIDs[m.src.ID(*item)]
	if !ok || pid == rootKey {
		return nil, nil
	}
	parent, ok := m.items[pid]
	if !ok {
		return nil, nil
	}
	return &parent, nil
}

// Depth counts the cached ancestors of item. Roots have depth 0, as do
// items the cache has never seen.
func (m *Mapper[T, F]) Depth(item T) (int, error) {
	depth := 0
	cur := &item
	for {
		parent, err := m.ParentOf(cur)
		if err != nil {
			return 0, err
		}
		if parent == nil {
			return depth, nil
		}
		depth++
		cur = parent
	}
}

// ParentIndexOf returns the flattened index of the parent of the row at
// index, or -1 when that row is a root. The index must fall inside
// [0, TreeSize()).
func (m *Mapper[T, F]) ParentIndexOf(index int) (int, error) {
	flat, err := m.Flatten()
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(flat) {
		return 0, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(flat))
	}
	parent, err := m.ParentOf(&flat[index])
	if err != nil {
		return 0, err
	}
	if parent == nil {
		return -1, nil
	}
	pid := m.src.ID(*parent)
	for i := range flat {
		if m.src.ID(flat[i]) == pid {
			return i, nil
		}
	}
	return -1, nil
}

// indexOf locates the item's current row in the flattened view by
// identity. found is false when the item is not visible, for example when
// one of its ancestors is collapsed.
func (m *Mapper[T, F]) indexOf(item T) (pos int, found bool, err error) {
	id := m.src.ID(item)
	_, err = m.walk(nil, true, func(row T) bool {
		if m.src.ID(row) == id {
			found = true
			return false
		}
		pos++
		return true
	})
	return pos, found, err
}

// subtreeSize counts the rows contributed by the item's subtree, excluding
// the item itself.
func (m *Mapper[T, F]) subtreeSize(item T) (int, error) {
	n := 0
	_, err := m.walk(&item, false, func(T) bool { n++; return true })
	return n, err
}

// walk visits the flattened pre-order sequence rooted at parent, calling fn
// for each row until fn returns false. The walk is lazy: a parent's
// children are fetched only when the walk actually reaches that parent, so
// an early stop avoids the fetch fan-out for everything after it. The
// returned bool is false when fn cut the walk short.
func (m *Mapper[T, F]) walk(parent *T, includeParent bool, fn func(T) bool) (bool, error) {
	if includeParent && parent != nil {
		if !fn(*parent) {
			return false, nil
		}
	}
	children, err := m.directChildren(parent)
	if err != nil {
		return false, err
	}
	for i := range children {
		more, err := m.walk(&children[i], true, fn)
		if err != nil || !more {
			return more, err
		}
	}
	return true, nil
}

// directChildren fetches the ordered children of parent when parent is
// expanded, updating the child cache. An empty fetch means the backend no
// longer has the subtree: the cache entry, the expansion mark, and every
// cached descendant are invalidated in cascade.
func (m *Mapper[T, F]) directChildren(parent *T) ([]T, error) {
	if !m.IsExpanded(parent) {
		return nil, nil
	}
	count, err := m.src.ChildCount(parent, m.filter)
	if err != nil {
		return nil, err
	}
	children, err := m.src.FetchChildren(ChildQuery[T, F]{
		Parent:  parent,
		Offset:  0,
		Limit:   count,
		Sort:    m.sort,
		Compare: m.compare,
		Filter:  m.filter,
	})
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		m.invalidate(m.key(parent))
		return nil, nil
	}
	m.store(m.key(parent), children)
	return children, nil
}

// store replaces the cache entry for parentID with the freshly fetched
// children and keeps the reverse index in step. Children that disappeared
// since the last fetch are unhooked from the reverse index; their own cache
// entries, if any, are cleaned up lazily when their next fetch comes back
// empty.
func (m *Mapper[T, F]) store(parentID string, children []T) {
	ids := make([]string, len(children))
	seen := make(map[string]struct{}, len(children))
	for i := range children {
		id := m.src.ID(children[i])
		ids[i] = id
		seen[id] = struct{}{}
		m.items[id] = children[i]
		m.parentIDs[id] = parentID
	}
	for _, old := range m.childIDs[parentID] {
		if _, ok := seen[old]; ok {
			continue
		}
		if m.parentIDs[old] == parentID {
			delete(m.parentIDs, old)
		}
	}
	m.childIDs[parentID] = ids
}

// invalidate drops the cached children of id, marks id collapsed, and
// recursively invalidates every item that was cached under it, as if each
// had just been discovered to have no children. This models backend data
// disappearing out from under an expanded subtree.
func (m *Mapper[T, F]) invalidate(id string) {
	children := m.childIDs[id]
	if len(children) > 0 {
		debug.Log("hierarchy: invalidating %d cached children of %q", len(children), id)
	}
	delete(m.childIDs, id)
	delete(m.expanded, id)
	for _, cid := range children {
		if m.parentIDs[cid] == id {
			delete(m.parentIDs, cid)
		}
		m.invalidate(cid)
		delete(m.items, cid)
	}
}
