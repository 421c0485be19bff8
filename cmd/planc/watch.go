package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/planc-lang/planc/internal/cache"
	"github.com/planc-lang/planc/internal/config"
)

func watchCmd() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recheck sources whenever they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts)
		},
	}
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "render a caret snippet under each diagnostic")
	return cmd
}

func runWatch(opts *checkOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, root, err := config.Load(cwd)
	if err != nil {
		return err
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(filepath.Join(root, cfg.Cache.Path))
		if err != nil {
			slog.Warn("cache unavailable", "error", err)
		} else {
			defer store.Close()
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	// Watch every directory under the project root; fsnotify does not
	// recurse on its own.
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == ".planc" {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	fmt.Printf("watching %s (debounce %s)\n", root, cfg.Watch.Debounce)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	// Coalesce change bursts: editors fire several events per save.
	pending := map[string]bool{}
	var debounce *time.Timer
	var fired <-chan time.Time

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				if err := watcher.Add(ev.Name); err != nil {
					slog.Warn("failed to watch new directory", "path", ev.Name, "error", err)
				}
				continue
			}
			if !matchesSources(root, cfg, ev.Name) {
				continue
			}
			pending[ev.Name] = true
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(cfg.Watch.Debounce)
			fired = debounce.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		case <-fired:
			files := make([]string, 0, len(pending))
			for f := range pending {
				if store != nil {
					_ = store.Invalidate(f)
				}
				files = append(files, f)
			}
			sort.Strings(files)
			pending = map[string]bool{}
			fired = nil
			for _, r := range checkFiles(files, cfg, store, opts) {
				if r.output != "" {
					fmt.Print(r.output)
				}
				if r.clean {
					fmt.Printf("%s: ok\n", r.file)
				}
			}
		case <-sig:
			return nil
		}
	}
}

// matchesSources reports whether path falls under the manifest's include
// globs and outside its excludes.
func matchesSources(root string, cfg *config.Config, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, ex := range cfg.Sources.Exclude {
		if ok, _ := doublestar.Match(ex, rel); ok {
			return false
		}
	}
	for _, in := range cfg.Sources.Include {
		if ok, _ := doublestar.Match(in, rel); ok {
			return true
		}
	}
	return false
}
