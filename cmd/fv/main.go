package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/foldview/internal/datasource"
	"github.com/vanderheijden86/foldview/pkg/config"
	"github.com/vanderheijden86/foldview/pkg/debug"
	"github.com/vanderheijden86/foldview/pkg/hierarchy"
	"github.com/vanderheijden86/foldview/pkg/ui"
	"github.com/vanderheijden86/foldview/pkg/version"
	"github.com/vanderheijden86/foldview/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	dbPath := flag.String("db", "", "Path to the nodes database (overrides discovery)")
	dataDir := flag.String("dir", "", "Directory scanned for databases (default .foldview)")
	listFlag := flag.Bool("list", false, "List discovered database candidates and exit")
	noWatch := flag.Bool("no-watch", false, "Disable live reload on database changes")
	forcePoll := flag.Bool("force-poll", false, "Use polling instead of filesystem events for live reload")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: fv [options]")
		fmt.Println("\nA TUI viewer for hierarchical node databases.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("fv %s\n", version.Version)
		os.Exit(0)
	}

	// Load config; non-fatal, continue with defaults.
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		debug.Log("config load failed: %v", cfgErr)
		cfg = config.DefaultConfig()
	}

	dir := cfg.DataDir
	if *dataDir != "" {
		dir = *dataDir
	}

	if *listFlag {
		candidates, err := datasource.Discover(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error discovering databases: %v\n", err)
			os.Exit(1)
		}
		if len(candidates) == 0 {
			fmt.Println("No databases found.")
			os.Exit(0)
		}
		for _, c := range candidates {
			fmt.Println(c)
		}
		os.Exit(0)
	}

	path := cfg.DatabasePath
	if *dbPath != "" {
		path = *dbPath
	}
	if path == "" {
		candidates, err := datasource.Discover(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error discovering databases: %v\n", err)
			os.Exit(1)
		}
		if len(candidates) == 0 || !candidates[0].Valid {
			fmt.Fprintln(os.Stderr, "No usable database found.")
			fmt.Fprintln(os.Stderr, "Point fv at one with --db, or place a .db file under the data directory.")
			os.Exit(1)
		}
		path = candidates[0].Path
	}

	src, err := datasource.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", path, err)
		os.Exit(1)
	}
	defer src.Close()

	// Live reload: watch the database file unless disabled.
	var w *watcher.Watcher
	if !*noWatch && !cfg.Watch.Disabled {
		opts := []watcher.Option{
			watcher.WithForcePoll(*forcePoll || cfg.Watch.ForcePoll),
			watcher.WithOnError(func(err error) {
				debug.Log("watcher error: %v", err)
			}),
		}
		if cfg.Watch.PollInterval > 0 {
			opts = append(opts, watcher.WithPollInterval(cfg.Watch.PollInterval))
		}
		w, err = watcher.New(path, opts...)
		if err != nil {
			debug.Log("watcher setup failed: %v", err)
			w = nil
		} else if err := w.Start(); err != nil {
			debug.Log("watcher start failed: %v", err)
			w = nil
		}
	}

	m := ui.New(src, w, ui.Options{
		Title:       path,
		IndentWidth: cfg.UI.IndentWidth,
		LockRoots:   cfg.LockRoots,
		Sort:        initialSort(cfg.UI),
	})

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running foldview: %v\n", err)
		os.Exit(1)
	}
}

// initialSort translates the configured sort preference into a backend
// sort order. An empty field means source order.
func initialSort(ui config.UIConfig) []hierarchy.SortOrder {
	if ui.SortField == "" {
		return nil
	}
	dir := hierarchy.Ascending
	if ui.SortDesc {
		dir = hierarchy.Descending
	}
	return []hierarchy.SortOrder{{Field: ui.SortField, Direction: dir}}
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set FV_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("FV_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
