package hierarchy

import (
	"strings"
	"testing"
)

// TestRowMetaLeaf verifies leaf rows carry leaf=true and no collapse fields
func TestRowMetaLeaf(t *testing.T) {
	m := NewMapper[node, string](newMemorySource(sampleTree()))

	meta, err := m.RowMeta(node{id: "E"})
	if err != nil {
		t.Fatalf("RowMeta(E): %v", err)
	}
	if !meta.Leaf {
		t.Error("expected leaf=true for E")
	}
	if meta.Collapsed != nil || meta.CollapseAllowed != nil {
		t.Error("leaf rows must not carry collapsed/collapseAllowed")
	}

	out, err := meta.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if strings.Contains(string(out), "collapsed") {
		t.Errorf("expected collapse fields omitted from JSON, got %s", out)
	}
}

// TestRowMetaBranch verifies branch rows report collapsed state and the
// collapse-allowed predicate result
func TestRowMetaBranch(t *testing.T) {
	m := NewMapper[node, string](newMemorySource(sampleTree()))

	meta, err := m.RowMeta(node{id: "A"})
	if err != nil {
		t.Fatalf("RowMeta(A): %v", err)
	}
	if meta.Leaf {
		t.Fatal("expected leaf=false for A")
	}
	if meta.Collapsed == nil || !*meta.Collapsed {
		t.Error("expected collapsed=true before expand")
	}
	if meta.CollapseAllowed == nil || !*meta.CollapseAllowed {
		t.Error("expected collapseAllowed=true by default")
	}

	mustExpand(t, m, node{id: "A"})
	meta, err = m.RowMeta(node{id: "A"})
	if err != nil {
		t.Fatalf("RowMeta(A): %v", err)
	}
	if *meta.Collapsed {
		t.Error("expected collapsed=false after expand")
	}
}

// TestRowMetaCollapseAllowedPredicate verifies a custom predicate is
// consulted per item
func TestRowMetaCollapseAllowedPredicate(t *testing.T) {
	m := NewMapper[node, string](newMemorySource(sampleTree()))
	m.SetCollapseAllowed(func(n node) bool { return n.id != "A" })

	meta, err := m.RowMeta(node{id: "A"})
	if err != nil {
		t.Fatalf("RowMeta(A): %v", err)
	}
	if meta.CollapseAllowed == nil || *meta.CollapseAllowed {
		t.Error("expected collapseAllowed=false for A")
	}

	meta, err = m.RowMeta(node{id: "B"})
	if err != nil {
		t.Fatalf("RowMeta(B): %v", err)
	}
	if meta.CollapseAllowed == nil || !*meta.CollapseAllowed {
		t.Error("expected collapseAllowed=true for B")
	}

	// Nil restores the default.
	m.SetCollapseAllowed(nil)
	meta, _ = m.RowMeta(node{id: "A"})
	if meta.CollapseAllowed == nil || !*meta.CollapseAllowed {
		t.Error("expected default predicate after SetCollapseAllowed(nil)")
	}
}

// TestRowMetaDepthInJSON verifies the depth field round-trips through the
// wire encoding
func TestRowMetaDepthInJSON(t *testing.T) {
	m := NewMapper[node, string](newMemorySource(sampleTree()))
	mustExpand(t, m, node{id: "A"})
	mustExpand(t, m, node{id: "B"})
	mustSize(t, m)

	meta, err := m.RowMeta(node{id: "D"})
	if err != nil {
		t.Fatalf("RowMeta(D): %v", err)
	}
	out, err := meta.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(string(out), `"depth":2`) {
		t.Errorf("expected depth 2 in JSON, got %s", out)
	}
}
