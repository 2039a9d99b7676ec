// Package testutil provides deterministic tree fixture generators for
// tests and benchmarks. All generators produce reproducible output for a
// given seed.
package testutil

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/foldview/internal/datasource"
)

// Schema is the nodes table DDL shared by fixtures and generated test
// databases.
const Schema = `
	CREATE TABLE nodes (
		id         TEXT PRIMARY KEY,
		parent_id  TEXT,
		label      TEXT NOT NULL,
		kind       TEXT NOT NULL DEFAULT '',
		position   INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP
	);
	CREATE INDEX idx_nodes_parent ON nodes(parent_id);
`

// GeneratorConfig controls node generation.
type GeneratorConfig struct {
	Seed     int64     // Random seed for determinism (0 = use current time)
	IDPrefix string    // Prefix for node IDs (default: "node")
	BaseTime time.Time // Base time for created_at (default: fixed time)
	Kinds    []string  // Kind distribution (nil = folder/item mix)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42, // Deterministic
		IDPrefix: "node",
		BaseTime: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Kinds:    []string{"folder", "item"},
	}
}

// Generator creates node fixtures with various tree shapes.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "node"
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = []string{"folder", "item"}
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with the default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

var labelWords = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
	"golf", "hotel", "india", "juliet", "kilo", "lima",
}

func (g *Generator) node(i int, parentID string, position int) datasource.Node {
	return datasource.Node{
		ID:        fmt.Sprintf("%s-%05d", g.cfg.IDPrefix, i),
		ParentID:  parentID,
		Label:     fmt.Sprintf("%s %d", labelWords[g.rng.Intn(len(labelWords))], i),
		Kind:      g.cfg.Kinds[g.rng.Intn(len(g.cfg.Kinds))],
		Position:  position,
		CreatedAt: g.cfg.BaseTime.Add(time.Duration(i) * time.Second),
	}
}

// Flat creates size root nodes with no children.
func (g *Generator) Flat(size int) []datasource.Node {
	nodes := make([]datasource.Node, size)
	for i := 0; i < size; i++ {
		nodes[i] = g.node(i, "", i)
	}
	return nodes
}

// Chain creates a single path of size nodes: each node is the only child
// of the previous one. Depth equals size-1.
func (g *Generator) Chain(size int) []datasource.Node {
	nodes := make([]datasource.Node, size)
	parent := ""
	for i := 0; i < size; i++ {
		nodes[i] = g.node(i, parent, 0)
		parent = nodes[i].ID
	}
	return nodes
}

// Balanced creates a complete tree where every branch above the last level
// has exactly branching children. depth 0 yields branching roots and no
// children.
func (g *Generator) Balanced(depth, branching int) []datasource.Node {
	var nodes []datasource.Node
	i := 0
	level := make([]string, 0, branching)
	for p := 0; p < branching; p++ {
		n := g.node(i, "", p)
		nodes = append(nodes, n)
		level = append(level, n.ID)
		i++
	}
	for d := 0; d < depth; d++ {
		next := make([]string, 0, len(level)*branching)
		for _, parent := range level {
			for p := 0; p < branching; p++ {
				n := g.node(i, parent, p)
				nodes = append(nodes, n)
				next = append(next, n.ID)
				i++
			}
		}
		level = next
	}
	return nodes
}

// Random creates size nodes where each non-root picks a random earlier
// node as its parent, giving a connected tree with uneven fan-out.
func (g *Generator) Random(size int) []datasource.Node {
	nodes := make([]datasource.Node, 0, size)
	childCount := make(map[string]int, size)
	for i := 0; i < size; i++ {
		parent := ""
		// Roughly one node in ten stays a root.
		if i > 0 && g.rng.Intn(10) != 0 {
			parent = nodes[g.rng.Intn(len(nodes))].ID
		}
		n := g.node(i, parent, childCount[parent])
		childCount[parent]++
		nodes = append(nodes, n)
	}
	return nodes
}

// WriteDB creates a nodes database at path and inserts the fixture in a
// single transaction.
func WriteDB(path string, nodes []datasource.Node) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO nodes (id, parent_id, label, kind, position, created_at)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.Exec(n.ID, n.ParentID, n.Label, n.Kind, n.Position, n.CreatedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}
