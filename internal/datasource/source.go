// Package datasource provides the SQLite-backed hierarchical data source
// for foldview. It discovers and validates candidate node databases and
// implements the hierarchy.DataSource contract over the freshest valid one.
package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/foldview/pkg/debug"
)

// Node is one item of the backing tree. ParentID is empty for roots.
type Node struct {
	ID        string
	ParentID  string
	Label     string
	Kind      string
	Position  int
	CreatedAt time.Time
}

// Filter narrows children to those whose label contains Label and, when
// Kind is set, whose kind matches exactly. The zero value matches
// everything. The engine treats this value as opaque and forwards it with
// every count and fetch.
type Filter struct {
	Label string
	Kind  string
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Label == "" && f.Kind == ""
}

// Candidate describes a potential nodes database found during discovery.
type Candidate struct {
	Path            string
	ModTime         time.Time
	Size            int64
	Valid           bool
	NodeCount       int
	ValidationError string
}

// String returns a human-readable description of the candidate.
func (c Candidate) String() string {
	status := "valid"
	if !c.Valid {
		status = fmt.Sprintf("invalid: %s", c.ValidationError)
	}
	return fmt.Sprintf("%s (mod=%s, nodes=%d, %s)",
		c.Path, c.ModTime.Format(time.RFC3339), c.NodeCount, status)
}

// Discover finds candidate node databases under dir and validates them in
// parallel. When dir is empty, the FOLDVIEW_DIR environment variable is
// consulted, then ".foldview" in the current directory. Results are sorted
// freshest-first, valid before invalid on equal timestamps.
func Discover(dir string) ([]Candidate, error) {
	if dir == "" {
		if envDir := os.Getenv("FOLDVIEW_DIR"); envDir != "" {
			dir = envDir
		} else {
			dir = ".foldview"
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var candidates []Candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".db") {
			continue
		}
		// Skip backups and merge artifacts.
		if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	// Validation opens each database, which can stall on slow filesystems;
	// run the candidates in parallel.
	g, _ := errgroup.WithContext(context.Background())
	for i := range candidates {
		g.Go(func() error {
			validate(&candidates[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ModTime.Equal(candidates[j].ModTime) {
			return candidates[i].Valid && !candidates[j].Valid
		}
		return candidates[i].ModTime.After(candidates[j].ModTime)
	})

	debug.Log("datasource: discovered %d candidates in %s", len(candidates), dir)
	return candidates, nil
}

// validate opens the candidate read-only and counts its nodes. Failures are
// recorded on the candidate rather than returned, so one broken file never
// hides the others.
func validate(c *Candidate) {
	src, err := Open(c.Path)
	if err != nil {
		c.ValidationError = err.Error()
		return
	}
	defer src.Close()

	count, err := src.NodeCount()
	if err != nil {
		c.ValidationError = err.Error()
		return
	}
	c.Valid = true
	c.NodeCount = count
}
