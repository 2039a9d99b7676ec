//go:build ignore

// generate_testdata.go creates standard node databases for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	tests/testdata/benchmark/small.db   (100 nodes)
//	tests/testdata/benchmark/medium.db  (1000 nodes)
//	tests/testdata/benchmark/large.db   (5000 nodes)
//	tests/testdata/benchmark/huge.db    (20000 nodes)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/foldview/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
	desc string
}

var datasets = []datasetSpec{
	{"small", 100, "100 nodes - random tree with uneven fan-out"},
	{"medium", 1000, "1000 nodes - random tree with uneven fan-out"},
	{"large", 5000, "5000 nodes - random tree with uneven fan-out"},
	{"huge", 20000, "20000 nodes - random tree with uneven fan-out"},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d nodes)...\n", ds.name, ds.size)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size) // Reproducible per size
		cfg.IDPrefix = ds.name

		nodes := testutil.New(cfg).Random(ds.size)

		path := filepath.Join(outputDir, ds.name+".db")
		// Regenerate from scratch each run.
		_ = os.Remove(path)
		if err := testutil.WriteDB(path, nodes); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  %s: %s\n", path, ds.desc)
	}
}
