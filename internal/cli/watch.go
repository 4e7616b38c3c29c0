package cli

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceTime = 500 * time.Millisecond

// watchSources blocks, regenerating tests whenever a watched Java source
// changes. Events are debounced so one save burst triggers one run.
func watchSources(ctx context.Context, rootDir string, runner *batchRunner) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addDirectoriesRecursively(watcher, rootDir); err != nil {
		return err
	}
	if !runner.quiet {
		log.Printf("Watching %s for changes...", rootDir)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				// new directories need a watch too
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addDirectoriesRecursively(watcher, event.Name); err != nil {
						log.Printf("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !strings.HasSuffix(event.Name, ".java") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceTime, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)

		case <-fire:
			if err := runner.run(ctx, rootDir); err != nil && ctx.Err() == nil {
				log.Printf("regeneration failed: %v", err)
			}
		}
	}
}

func addDirectoriesRecursively(watcher *fsnotify.Watcher, rootDir string) error {
	return filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" || name == "target" || name == "build" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
