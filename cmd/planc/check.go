package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	planc "github.com/planc-lang/planc"
	"github.com/planc-lang/planc/internal/cache"
	"github.com/planc-lang/planc/internal/config"
)

type checkOptions struct {
	explain bool
	noCache bool
	jobs    int
}

func checkCmd() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Compile the given files, or every source the manifest selects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "render a caret snippet under each diagnostic")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "recompile even when the cache has a fresh result")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "number of parallel compile workers (0 = NumCPU)")
	return cmd
}

// fileReport is the outcome of checking one file, collected so output
// stays in file order no matter which worker finished first.
type fileReport struct {
	file   string
	clean  bool
	cached bool
	output string
}

func runCheck(opts *checkOptions, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, root, err := config.Load(cwd)
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files, err = collectSources(root, cfg)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		fmt.Println("no source files matched")
		return nil
	}

	var store *cache.Store
	if cfg.Cache.Enabled && !opts.noCache {
		store, err = cache.Open(filepath.Join(root, cfg.Cache.Path))
		if err != nil {
			slog.Warn("cache unavailable, compiling without it", "error", err)
		} else {
			defer store.Close()
		}
	}

	reports := checkFiles(files, cfg, store, opts)

	failed := 0
	for _, r := range reports {
		if r.output != "" {
			fmt.Print(r.output)
		}
		if !r.clean {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) have errors", failed, len(reports))
	}
	fmt.Printf("%d file(s) ok\n", len(reports))
	return nil
}

// collectSources expands the manifest's include globs under root and
// filters them through the exclude globs.
func collectSources(root string, cfg *config.Config) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, pattern := range cfg.Sources.Include {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad include pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			rel, err := filepath.Rel(root, m)
			if err != nil {
				rel = m
			}
			excluded := false
			for _, ex := range cfg.Sources.Exclude {
				if ok, _ := doublestar.Match(ex, filepath.ToSlash(rel)); ok {
					excluded = true
					break
				}
			}
			if !excluded && !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func checkFiles(files []string, cfg *config.Config, store *cache.Store, opts *checkOptions) []fileReport {
	jobs := opts.jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	reports := make([]fileReport, len(files))
	var wg sync.WaitGroup
	sem := make(chan struct{}, jobs)
	for i, f := range files {
		wg.Add(1)
		go func(i int, f string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			reports[i] = checkOne(f, cfg, store, opts)
		}(i, f)
	}
	wg.Wait()
	return reports
}

func checkOne(file string, cfg *config.Config, store *cache.Store, opts *checkOptions) fileReport {
	src, err := os.ReadFile(file)
	if err != nil {
		return fileReport{file: file, output: fmt.Sprintf("%s: %v\n", file, err)}
	}
	hash := cache.Key(src)

	if store != nil {
		if e, err := store.Lookup(file, hash); err == nil && e != nil {
			slog.Debug("cache hit", "file", file)
			var out string
			for _, d := range e.Diagnostics {
				out += d + "\n"
			}
			return fileReport{file: file, clean: e.Clean, cached: true, output: out}
		}
	}

	res := planc.Compile(file, string(src))
	report := fileReport{file: file, clean: res.Usable()}
	items := res.Diags.Items()
	if cfg.Output.MaxErrors > 0 && len(items) > cfg.Output.MaxErrors {
		items = items[:cfg.Output.MaxErrors]
	}
	for _, d := range items {
		if opts.explain || cfg.Output.Explain {
			report.output += planc.RenderDiagnostic(d, string(src)) + "\n"
		} else {
			report.output += d.String() + "\n"
		}
	}

	if store != nil {
		entry := &cache.Entry{
			File:      file,
			Hash:      hash,
			Clean:     report.clean,
			CheckedAt: time.Now().UTC(),
		}
		for _, d := range res.Diags.Items() {
			entry.Diagnostics = append(entry.Diagnostics, d.String())
		}
		if err := store.Put(entry); err != nil {
			slog.Warn("failed to update cache", "file", file, "error", err)
		}
	}
	return report
}
