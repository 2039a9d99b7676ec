package ui_test

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/foldview/internal/datasource"
	"github.com/vanderheijden86/foldview/pkg/hierarchy"
	"github.com/vanderheijden86/foldview/pkg/ui"
)

// memSource is an in-memory DataSource keyed by parent ID ("" = root).
type memSource struct {
	children map[string][]datasource.Node
}

func (s *memSource) ID(n datasource.Node) string { return n.ID }

func (s *memSource) HasChildren(n datasource.Node) (bool, error) {
	return len(s.children[n.ID]) > 0, nil
}

func (s *memSource) filtered(parent *datasource.Node, f datasource.Filter) []datasource.Node {
	key := ""
	if parent != nil {
		key = parent.ID
	}
	var out []datasource.Node
	for _, n := range s.children[key] {
		if f.Label != "" && !strings.Contains(n.Label, f.Label) {
			continue
		}
		if f.Kind != "" && n.Kind != f.Kind {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (s *memSource) ChildCount(parent *datasource.Node, f datasource.Filter) (int, error) {
	return len(s.filtered(parent, f)), nil
}

func (s *memSource) FetchChildren(q hierarchy.ChildQuery[datasource.Node, datasource.Filter]) ([]datasource.Node, error) {
	rows := s.filtered(q.Parent, q.Filter)
	if q.Offset >= len(rows) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[q.Offset:end], nil
}

// sampleSource builds this tree:
//
//	proj "Project docs"
//	  design "Design notes"
//	  impl "Implementation"
//	    tests "Test suite"
//	misc "Misc"
func sampleSource() *memSource {
	n := func(id, parent, label string) datasource.Node {
		return datasource.Node{ID: id, ParentID: parent, Label: label}
	}
	return &memSource{children: map[string][]datasource.Node{
		"":     {n("proj", "", "Project docs"), n("misc", "", "Misc")},
		"proj": {n("design", "proj", "Design notes"), n("impl", "proj", "Implementation")},
		"impl": {n("tests", "impl", "Test suite")},
	}}
}

// newViewer builds a model over sampleSource and sends an initial window
// size, which triggers the first refresh.
func newViewer(t *testing.T, src *memSource, opts ui.Options) ui.Model {
	t.Helper()
	m := ui.New(src, nil, opts)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 12})
	return newM.(ui.Model)
}

// sendKey sends a rune key message through Update.
func sendKey(t *testing.T, m ui.Model, key string) ui.Model {
	t.Helper()
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return newM.(ui.Model)
}

// sendSpecialKey sends a special key (arrow, enter, esc) through Update.
func sendSpecialKey(t *testing.T, m ui.Model, keyType tea.KeyType) ui.Model {
	t.Helper()
	newM, _ := m.Update(tea.KeyMsg{Type: keyType})
	return newM.(ui.Model)
}

// TestViewerInitialWindow verifies that the first refresh shows the roots
// with the cursor on the first row.
func TestViewerInitialWindow(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})

	if m.Err() != nil {
		t.Fatalf("unexpected error: %v", m.Err())
	}
	if m.Total() != 2 {
		t.Errorf("expected 2 root rows, got %d", m.Total())
	}
	if m.SelectedID() != "proj" {
		t.Errorf("expected cursor on proj, got %q", m.SelectedID())
	}
}

// TestViewerCursorMovement verifies j/k movement and clamping at both ends.
func TestViewerCursorMovement(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})

	m = sendKey(t, m, "j")
	if m.SelectedID() != "misc" {
		t.Errorf("expected misc after j, got %q", m.SelectedID())
	}
	// At the bottom: another j must not move past the end.
	m = sendKey(t, m, "j")
	if m.SelectedID() != "misc" {
		t.Errorf("expected cursor clamped at misc, got %q", m.SelectedID())
	}
	m = sendKey(t, m, "k")
	if m.SelectedID() != "proj" {
		t.Errorf("expected proj after k, got %q", m.SelectedID())
	}
	m = sendKey(t, m, "k")
	if m.SelectedID() != "proj" {
		t.Errorf("expected cursor clamped at proj, got %q", m.SelectedID())
	}
}

// TestViewerArrowKeysParity verifies arrow keys move the cursor the same
// way as j/k.
func TestViewerArrowKeysParity(t *testing.T) {
	m1 := newViewer(t, sampleSource(), ui.Options{})
	m1 = sendKey(t, m1, "j")

	m2 := newViewer(t, sampleSource(), ui.Options{})
	m2 = sendSpecialKey(t, m2, tea.KeyDown)

	if m1.SelectedID() != m2.SelectedID() {
		t.Errorf("j selected %q but Down arrow selected %q", m1.SelectedID(), m2.SelectedID())
	}
}

// TestViewerExpandShowsChildren verifies that 'l' expands the selected
// branch, grows the row count, and keeps the cursor on the branch.
func TestViewerExpandShowsChildren(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})

	m = sendKey(t, m, "l")
	if m.Total() != 4 {
		t.Fatalf("expected 4 rows after expanding proj, got %d", m.Total())
	}
	if m.SelectedID() != "proj" {
		t.Errorf("expected cursor to stay on proj, got %q", m.SelectedID())
	}

	m = sendKey(t, m, "j")
	if m.SelectedID() != "design" {
		t.Errorf("expected design as first child row, got %q", m.SelectedID())
	}
}

// TestViewerExpandLeafIsNoOp verifies that 'l' on a leaf changes nothing.
func TestViewerExpandLeafIsNoOp(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})
	m = sendKey(t, m, "l") // expand proj
	m = sendKey(t, m, "j") // design (leaf)

	m = sendKey(t, m, "l")
	if m.Total() != 4 {
		t.Errorf("expanding a leaf should not change the row count, got %d", m.Total())
	}
}

// TestViewerCollapseHidesChildren verifies that 'h' on an expanded branch
// removes its subtree rows.
func TestViewerCollapseHidesChildren(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})
	m = sendKey(t, m, "l")
	if m.Total() != 4 {
		t.Fatalf("expected 4 rows after expand, got %d", m.Total())
	}

	m = sendKey(t, m, "h")
	if m.Total() != 2 {
		t.Errorf("expected 2 rows after collapse, got %d", m.Total())
	}
	if m.SelectedID() != "proj" {
		t.Errorf("expected cursor still on proj, got %q", m.SelectedID())
	}
}

// TestViewerLeftJumpsToParent verifies that 'h' on a leaf or collapsed
// branch moves the cursor to its parent row.
func TestViewerLeftJumpsToParent(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})
	m = sendKey(t, m, "l") // expand proj
	m = sendKey(t, m, "j") // design (leaf)

	m = sendKey(t, m, "h")
	if m.SelectedID() != "proj" {
		t.Errorf("expected h on a leaf to jump to proj, got %q", m.SelectedID())
	}

	// Same for a collapsed branch deeper in the window.
	m = sendKey(t, m, "j") // design
	m = sendKey(t, m, "j") // impl (collapsed branch)
	if m.SelectedID() != "impl" {
		t.Fatalf("expected cursor on impl, got %q", m.SelectedID())
	}
	m = sendKey(t, m, "h")
	if m.SelectedID() != "proj" {
		t.Errorf("expected h on collapsed impl to jump to proj, got %q", m.SelectedID())
	}
}

// TestViewerLeftOnRootStays verifies that 'h' on a collapsed root row does
// not move the cursor (roots have no parent row).
func TestViewerLeftOnRootStays(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})
	m = sendKey(t, m, "j") // misc (leaf root)

	m = sendKey(t, m, "h")
	if m.SelectedID() != "misc" {
		t.Errorf("expected cursor to stay on misc, got %q", m.SelectedID())
	}
}

// TestViewerLockRootsPreventsCollapse verifies that with LockRoots the
// root rows cannot be collapsed once expanded.
func TestViewerLockRootsPreventsCollapse(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{LockRoots: true})
	m = sendKey(t, m, "l")
	if m.Total() != 4 {
		t.Fatalf("expected 4 rows after expand, got %d", m.Total())
	}

	m = sendKey(t, m, "h")
	if m.Total() != 4 {
		t.Errorf("locked root should not collapse, got %d rows", m.Total())
	}

	// Non-root branches stay collapsible.
	m = sendKey(t, m, "j")
	m = sendKey(t, m, "j") // impl
	m = sendKey(t, m, "l")
	if m.Total() != 5 {
		t.Fatalf("expected 5 rows after expanding impl, got %d", m.Total())
	}
	m = sendKey(t, m, "h")
	if m.Total() != 4 {
		t.Errorf("non-root branch should collapse, got %d rows", m.Total())
	}
}

// TestViewerTopBottomKeys verifies g/G jump to the first and last row.
func TestViewerTopBottomKeys(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})
	m = sendKey(t, m, "l") // [proj design impl misc]

	m = sendKey(t, m, "G")
	if m.SelectedID() != "misc" {
		t.Errorf("expected G to select misc, got %q", m.SelectedID())
	}
	m = sendKey(t, m, "g")
	if m.SelectedID() != "proj" {
		t.Errorf("expected g to select proj, got %q", m.SelectedID())
	}
}

// TestViewerWindowScrolls verifies the window follows the cursor when the
// tree is taller than the screen.
func TestViewerWindowScrolls(t *testing.T) {
	m := ui.New(sampleSource(), nil, ui.Options{})
	// Height 4 leaves two visible rows after header and footer.
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 4})
	m = newM.(ui.Model)

	m = sendKey(t, m, "l") // 4 rows total, 2 visible
	m = sendKey(t, m, "j")
	m = sendKey(t, m, "j")
	m = sendKey(t, m, "j")
	if m.SelectedID() != "misc" {
		t.Errorf("expected misc after scrolling to the bottom, got %q", m.SelectedID())
	}
	if m.Cursor() != 3 {
		t.Errorf("expected cursor index 3, got %d", m.Cursor())
	}
}

// TestViewerFilterFlow verifies the / prompt applies a label filter and
// esc clears it again.
func TestViewerFilterFlow(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})

	m = sendKey(t, m, "/")
	if !m.Filtering() {
		t.Fatal("expected filter input to capture keys after /")
	}
	m = sendKey(t, m, "docs")
	m = sendSpecialKey(t, m, tea.KeyEnter)

	if m.Filtering() {
		t.Error("expected filter input closed after enter")
	}
	if m.Total() != 1 {
		t.Errorf("expected 1 root matching %q, got %d", "docs", m.Total())
	}
	if m.SelectedID() != "proj" {
		t.Errorf("expected proj to match the filter, got %q", m.SelectedID())
	}

	m = sendSpecialKey(t, m, tea.KeyEsc)
	if m.Total() != 2 {
		t.Errorf("expected both roots after clearing the filter, got %d", m.Total())
	}
}

// TestViewerFilterEscCancelsPrompt verifies esc inside the prompt closes
// it without applying a filter.
func TestViewerFilterEscCancelsPrompt(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})

	m = sendKey(t, m, "/")
	m = sendKey(t, m, "docs")
	m = sendSpecialKey(t, m, tea.KeyEsc)

	if m.Filtering() {
		t.Error("expected filter input closed after esc")
	}
	if m.Total() != 2 {
		t.Errorf("expected all roots, got %d rows", m.Total())
	}
}

// TestViewerFileChangedRefreshes verifies that a change notification picks
// up rows added to the source.
func TestViewerFileChangedRefreshes(t *testing.T) {
	src := sampleSource()
	m := newViewer(t, src, ui.Options{})
	if m.Total() != 2 {
		t.Fatalf("expected 2 rows, got %d", m.Total())
	}

	src.children[""] = append(src.children[""], datasource.Node{ID: "extra", Label: "Extra"})
	newM, _ := m.Update(ui.FileChangedMsg{})
	m = newM.(ui.Model)

	if m.Total() != 3 {
		t.Errorf("expected 3 rows after change notification, got %d", m.Total())
	}
}

// TestViewerViewRendersLabels verifies the rendered screen contains the
// visible labels and expansion markers.
func TestViewerViewRendersLabels(t *testing.T) {
	m := newViewer(t, sampleSource(), ui.Options{})
	m = sendKey(t, m, "l")

	view := m.View()
	for _, want := range []string{"Project docs", "Design notes", "Misc"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
	if !strings.Contains(view, "▾") {
		t.Error("expected an expanded marker in the view")
	}
	if !strings.Contains(view, "4 rows") {
		t.Error("expected row count in the header")
	}
}
