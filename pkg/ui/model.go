// Package ui is the terminal viewer for foldview. It renders only the
// window of rows that fits on screen, fetched on demand from the
// flattening engine, so arbitrarily large trees stay cheap to browse.
package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/foldview/internal/datasource"
	"github.com/vanderheijden86/foldview/pkg/debug"
	"github.com/vanderheijden86/foldview/pkg/hierarchy"
	"github.com/vanderheijden86/foldview/pkg/watcher"
)

// nodeMapper is the engine instantiation the viewer drives.
type nodeMapper = hierarchy.Mapper[datasource.Node, datasource.Filter]

// FileChangedMsg signals that the backing database changed on disk.
type FileChangedMsg struct{}

// WatchFileCmd returns a command that waits for the next file change and
// sends FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// Options configures the viewer.
type Options struct {
	Title       string // shown in the header, usually the database path
	IndentWidth int
	LockRoots   bool
	Sort        []hierarchy.SortOrder
}

// row pairs a fetched item with its hierarchy metadata.
type row struct {
	node datasource.Node
	meta hierarchy.RowMeta
}

// Model is the bubbletea model for the tree viewer. The engine owns all
// hierarchy state; the model only keeps the current window and cursor.
type Model struct {
	mapper  *nodeMapper
	title   string
	watcher *watcher.Watcher
	theme   Theme

	rows   []row // current visible window
	offset int   // flattened index of rows[0]
	cursor int   // flattened index of the selected row
	total  int   // tree size as of the last refresh

	width  int
	height int
	indent int

	filterInput textinput.Model
	filtering   bool
	filter      datasource.Filter

	statusMsg string
	err       error
}

// New builds the viewer model over a data source. The watcher may be nil
// to disable live reload.
func New(src hierarchy.DataSource[datasource.Node, datasource.Filter], w *watcher.Watcher, opts Options) Model {
	mapper := hierarchy.NewMapper[datasource.Node, datasource.Filter](src)
	if len(opts.Sort) > 0 {
		mapper.SetBackendSort(opts.Sort)
	}
	if opts.LockRoots {
		mapper.SetCollapseAllowed(func(n datasource.Node) bool {
			return n.ParentID != ""
		})
	}

	indent := opts.IndentWidth
	if indent <= 0 {
		indent = 2
	}

	ti := textinput.New()
	ti.Placeholder = "filter by label"
	ti.Prompt = "/"
	ti.CharLimit = 64

	return Model{
		mapper:      mapper,
		title:       opts.Title,
		watcher:     w,
		theme:       DefaultTheme(),
		indent:      indent,
		filterInput: ti,
		width:       80,
		height:      24,
	}
}

// Init starts the watcher command, if any.
func (m Model) Init() tea.Cmd {
	return WatchFileCmd(m.watcher)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refresh()
		return m, nil

	case FileChangedMsg:
		debug.Log("ui: database changed, refreshing")
		m.statusMsg = "database changed, view refreshed"
		m.refresh()
		return m, WatchFileCmd(m.watcher)

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilterInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filter = datasource.Filter{Label: strings.TrimSpace(m.filterInput.Value())}
		m.mapper.SetFilter(m.filter)
		m.cursor, m.offset = 0, 0
		m.refresh()
		return m, nil
	case "esc":
		m.filtering = false
		m.filterInput.SetValue("")
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.watcher != nil {
			m.watcher.Stop()
		}
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-m.visibleRows())
	case "pgdown":
		m.moveCursor(m.visibleRows())
	case "g", "home":
		m.cursor = 0
		m.clampAndFetch()
	case "G", "end":
		m.cursor = m.total - 1
		m.clampAndFetch()

	case "right", "l", "enter":
		m.expandSelected()
	case "left", "h":
		m.collapseSelected()

	case "y":
		if sel, ok := m.selected(); ok {
			if err := clipboard.WriteAll(sel.meta.ID); err != nil {
				m.statusMsg = fmt.Sprintf("clipboard error: %v", err)
			} else {
				m.statusMsg = fmt.Sprintf("copied %s to clipboard", sel.meta.ID)
			}
		}

	case "/":
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case "esc":
		if !m.filter.IsZero() {
			m.filter = datasource.Filter{}
			m.mapper.SetFilter(m.filter)
			m.cursor, m.offset = 0, 0
			m.refresh()
			m.statusMsg = "filter cleared"
		}
	}
	return m, nil
}

// selected returns the row under the cursor, if the window holds it.
func (m *Model) selected() (row, bool) {
	i := m.cursor - m.offset
	if i < 0 || i >= len(m.rows) {
		return row{}, false
	}
	return m.rows[i], true
}

func (m *Model) expandSelected() {
	sel, ok := m.selected()
	if !ok || sel.meta.Leaf {
		return
	}
	r, err := m.mapper.Expand(sel.node)
	if err != nil {
		m.err = err
		return
	}
	if !r.Empty() {
		m.statusMsg = fmt.Sprintf("expanded %s (+%d rows)", sel.meta.ID, r.Length)
	}
	// The returned range is the exact row delta, so the total can be
	// patched without re-walking the tree.
	m.total += r.Length
	m.clampAndFetch()
}

// collapseSelected collapses an expanded branch. On a leaf or an already
// collapsed row it jumps to the parent instead, which keeps "left" useful
// for walking back up the outline.
func (m *Model) collapseSelected() {
	sel, ok := m.selected()
	if !ok {
		return
	}
	expanded := !sel.meta.Leaf && sel.meta.Collapsed != nil && !*sel.meta.Collapsed
	if !expanded {
		parentIdx, err := m.mapper.ParentIndexOf(m.cursor)
		if err != nil {
			m.err = err
			return
		}
		if parentIdx >= 0 {
			m.cursor = parentIdx
			m.clampAndFetch()
		}
		return
	}
	if sel.meta.CollapseAllowed != nil && !*sel.meta.CollapseAllowed {
		m.statusMsg = fmt.Sprintf("%s cannot be collapsed", sel.meta.ID)
		return
	}
	r, err := m.mapper.Collapse(sel.node)
	if err != nil {
		m.err = err
		return
	}
	if !r.Empty() {
		m.statusMsg = fmt.Sprintf("collapsed %s (-%d rows)", sel.meta.ID, r.Length)
	}
	m.total -= r.Length
	m.clampAndFetch()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampAndFetch()
}

// clampAndFetch keeps the cursor inside the tree and scrolls the window so
// the cursor stays visible, then refetches the window.
func (m *Model) clampAndFetch() {
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= m.total {
		m.cursor = m.total - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	vis := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+vis {
		m.offset = m.cursor - vis + 1
	}
	m.fetchWindow()
}

func (m *Model) visibleRows() int {
	// Header and footer each take one line.
	vis := m.height - 2
	if vis < 1 {
		vis = 1
	}
	return vis
}

// refresh recomputes the tree size and refetches the current window. This
// is the only full-walk path in the viewer; everything else works from the
// windowed state.
func (m *Model) refresh() {
	total, err := m.mapper.TreeSize()
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.total = total
	m.clampAndFetch()
}

// fetchWindow loads the rows for [offset, offset+visible) and annotates
// them with hierarchy metadata.
func (m *Model) fetchWindow() {
	if m.total == 0 {
		m.rows = nil
		m.offset, m.cursor = 0, 0
		return
	}
	items, err := m.mapper.FetchWindow(hierarchy.WithLength(m.offset, m.visibleRows()))
	if err != nil {
		m.err = err
		return
	}
	rows := make([]row, 0, len(items))
	for _, item := range items {
		meta, err := m.mapper.RowMeta(item)
		if err != nil {
			m.err = err
			return
		}
		rows = append(rows, row{node: item, meta: meta})
	}
	m.err = nil
	m.rows = rows
}

// View renders header, window rows, and a one-line footer.
func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("foldview %s", m.title)
	info := fmt.Sprintf("%d rows", m.total)
	if !m.filter.IsZero() {
		info += fmt.Sprintf("  filter:%q", m.filter.Label)
	}
	header := m.theme.Header.Render(truncate(title, m.width-len(info)-2)) +
		"  " + m.theme.Muted.Render(info)
	b.WriteString(header)
	b.WriteString("\n")

	for i, r := range m.rows {
		b.WriteString(m.renderRow(r, m.offset+i == m.cursor))
		b.WriteString("\n")
	}
	for i := len(m.rows); i < m.visibleRows(); i++ {
		b.WriteString("\n")
	}

	b.WriteString(m.footer())
	return b.String()
}

func (m Model) renderRow(r row, selected bool) string {
	marker := "·"
	if !r.meta.Leaf {
		if r.meta.Collapsed != nil && *r.meta.Collapsed {
			marker = "▸"
		} else {
			marker = "▾"
		}
	}
	line := strings.Repeat(" ", r.meta.Depth*m.indent) + marker + " " + r.node.Label
	line = pad(truncate(line, m.width), m.width)
	if selected {
		return m.theme.Selected.Render(line)
	}
	if !r.meta.Leaf {
		return m.theme.Branch.Render(line)
	}
	return m.theme.Row.Render(line)
}

// Cursor returns the flattened index of the selected row.
func (m Model) Cursor() int { return m.cursor }

// Total returns the tree size as of the last refresh.
func (m Model) Total() int { return m.total }

// SelectedID returns the ID of the row under the cursor, or "" when the
// tree is empty.
func (m Model) SelectedID() string {
	if sel, ok := m.selected(); ok {
		return sel.meta.ID
	}
	return ""
}

// Filtering reports whether the filter input is capturing keys.
func (m Model) Filtering() bool { return m.filtering }

// Err returns the last engine error, if any.
func (m Model) Err() error { return m.err }

func (m Model) footer() string {
	if m.filtering {
		return m.filterInput.View()
	}
	if m.err != nil {
		return m.theme.Error.Render(truncate(fmt.Sprintf("error: %v", m.err), m.width))
	}
	if m.statusMsg != "" {
		return m.theme.Status.Render(truncate(m.statusMsg, m.width))
	}
	help := "j/k move  l expand  h collapse  / filter  y yank  q quit"
	return m.theme.Muted.Render(truncate(help, m.width))
}
