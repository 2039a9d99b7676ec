package datasource

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/foldview/pkg/debug"
	"github.com/vanderheijden86/foldview/pkg/hierarchy"
)

// SQLiteSource provides read access to a foldview nodes database and
// implements hierarchy.DataSource for it.
type SQLiteSource struct {
	db   *sql.DB
	path string
}

var _ hierarchy.DataSource[Node, Filter] = (*SQLiteSource)(nil)

// sortColumns whitelists the backend sort fields the schema supports.
var sortColumns = map[string]string{
	"label":    "label",
	"kind":     "kind",
	"position": "position",
	"created":  "created_at",
}

// Open opens a nodes database for reading.
func Open(path string) (*SQLiteSource, error) {
	// Open in read-only mode with various pragmas for read performance
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -64000",   // 64MB cache
		"PRAGMA mmap_size = 268435456", // 256MB mmap
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		db.Exec(pragma) // non-fatal
	}

	return &SQLiteSource{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteSource) Path() string {
	return s.path
}

// NodeCount returns the total number of nodes in the database, ignoring
// the filter. Used by discovery validation.
func (s *SQLiteSource) NodeCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cannot count nodes: %w", err)
	}
	return n, nil
}

// ID returns the stable identity of the node.
func (s *SQLiteSource) ID(n Node) string {
	return n.ID
}

// HasChildren reports whether the node has any children, independent of
// the current filter.
func (s *SQLiteSource) HasChildren(n Node) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM nodes WHERE parent_id = ?)`, n.ID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("cannot check children of %s: %w", n.ID, err)
	}
	return exists, nil
}

// ChildCount returns the number of direct children of parent under the
// filter. A nil parent counts the roots.
func (s *SQLiteSource) ChildCount(parent *Node, filter Filter) (int, error) {
	where, args := childWhere(parent, filter)
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cannot count children: %w", err)
	}
	return n, nil
}

// FetchChildren returns the ordered child slice selected by the query. The
// backend sort orders become the ORDER BY clause; the in-memory comparator,
// when present, is applied afterwards as a stable refinement of the fetched
// slice.
func (s *SQLiteSource) FetchChildren(q hierarchy.ChildQuery[Node, Filter]) ([]Node, error) {
	if q.Limit <= 0 {
		return nil, nil
	}
	where, args := childWhere(q.Parent, q.Filter)
	query := fmt.Sprintf(
		`SELECT id, COALESCE(parent_id, ''), label, kind, position, created_at
		 FROM nodes WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		where, orderBy(q.Sort),
	)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch children: %w", err)
	}
	defer rows.Close()

	var children []Node
	for rows.Next() {
		var n Node
		var createdAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.ParentID, &n.Label, &n.Kind, &n.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("cannot scan node: %w", err)
		}
		if createdAt.Valid {
			n.CreatedAt = createdAt.Time
		}
		children = append(children, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if q.Compare != nil {
		slices.SortStableFunc(children, q.Compare)
	}
	return children, nil
}

// childWhere builds the WHERE clause selecting the direct children of
// parent (roots for nil) under the filter.
func childWhere(parent *Node, filter Filter) (string, []any) {
	clauses := []string{`COALESCE(parent_id, '') = ?`}
	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}
	args := []any{parentID}

	if filter.Label != "" {
		clauses = append(clauses, `label LIKE '%' || ? || '%'`)
		args = append(args, filter.Label)
	}
	if filter.Kind != "" {
		clauses = append(clauses, `kind = ?`)
		args = append(args, filter.Kind)
	}
	return strings.Join(clauses, " AND "), args
}

// orderBy translates backend sort directives into an ORDER BY clause.
// Unknown fields are skipped; position and id break remaining ties so the
// order stays deterministic across fetches.
func orderBy(orders []hierarchy.SortOrder) string {
	var parts []string
	for _, o := range orders {
		col, ok := sortColumns[o.Field]
		if !ok {
			debug.Log("datasource: ignoring unknown sort field %q", o.Field)
			continue
		}
		parts = append(parts, col+" "+strings.ToUpper(o.Direction.String()))
	}
	parts = append(parts, "position ASC", "id ASC")
	return strings.Join(parts, ", ")
}
