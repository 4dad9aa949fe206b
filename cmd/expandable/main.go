// Command expandable shows item files as a grouped, collapsible list with a
// sticky header. It prints the flattened list when stdout is not a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/expandable/internal/datasource"
	"github.com/vanderheijden86/expandable/pkg/config"
	"github.com/vanderheijden86/expandable/pkg/debug"
	"github.com/vanderheijden86/expandable/pkg/metrics"
	"github.com/vanderheijden86/expandable/pkg/ui"
	"github.com/vanderheijden86/expandable/pkg/version"
	"github.com/vanderheijden86/expandable/pkg/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	items      []string
	configPath string
	statePath  string
	exportPath string
	cpuProfile string
	watch      bool
	print      bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("expandable", flag.ContinueOnError)
	fs.SetOutput(stderr)
	items := fs.String("items", "", "Comma-separated item files (.json, .jsonl, .yaml, .db)")
	fs.StringVar(&opts.configPath, "config", "", "Config file (default: XDG config dir)")
	fs.StringVar(&opts.statePath, "state", "", "Saved list state file (default: XDG state dir)")
	fs.StringVar(&opts.exportPath, "export", "", "Write the loaded items to this file and exit")
	fs.StringVar(&opts.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&opts.watch, "watch", true, "Reload item files when they change")
	fs.BoolVar(&opts.print, "print", false, "Print the grouped list instead of starting the TUI")
	fs.BoolVar(&opts.version, "version", false, "Show version")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: expandable [options] [item files...]")
		fmt.Fprintln(stderr, "\nShows items grouped under collapsible headers.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	for _, p := range strings.Split(*items, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.items = append(opts.items, p)
		}
	}
	opts.items = append(opts.items, fs.Args()...)
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "expandable %s\n", version.Version)
		return 0
	}
	if debug.Enabled() {
		debug.SetOutput(stderr)
	}
	if len(opts.items) == 0 {
		fmt.Fprintln(stderr, "Error: no item files given (use -items or pass paths)")
		return 2
	}

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	records, err := datasource.LoadAll(context.Background(), opts.items)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading items: %v\n", err)
		return 1
	}

	if opts.exportPath != "" {
		if err := datasource.SaveFile(opts.exportPath, records); err != nil {
			fmt.Fprintf(stderr, "Error exporting items: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Exported %d items to %s\n", len(records), opts.exportPath)
		return 0
	}

	if opts.print || !isTerminal(stdout) {
		if err := printList(stdout, cfg, records); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if metrics.Enabled() {
			for _, s := range metrics.AllTimingStats() {
				fmt.Fprintln(stderr, s.String())
			}
		}
		return 0
	}

	debug.Section("interactive session")
	statePath := opts.statePath
	if statePath == "" {
		statePath = config.StatePath(opts.items[0])
	}
	uiOpts := ui.Options{Config: cfg, Paths: opts.items, StatePath: statePath}
	if opts.watch {
		w, err := watcher.New(opts.items,
			watcher.WithDebounceDuration(time.Duration(cfg.WatchDebounceMs)*time.Millisecond),
			watcher.WithOnError(func(err error) {
				fmt.Fprintf(stderr, "Watch error: %v\n", err)
			}),
		)
		if err == nil {
			err = w.Start(context.Background())
		}
		if err != nil {
			fmt.Fprintf(stderr, "Warning: not watching item files: %v\n", err)
		} else {
			defer w.Stop()
			uiOpts.Watcher = w
		}
	}

	m, err := ui.NewModel(records, uiOpts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(stderr, "Error running expandable: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runTUIProgram(m *ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM; a second signal kills.
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

	if _, err := p.Run(); err != nil {
		return err
	}
	return m.SaveState()
}
