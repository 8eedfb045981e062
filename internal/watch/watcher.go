// Package watch triggers hot reloads on a running app when Dart sources
// change, by watching the project's lib/ tree with fsnotify.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is invoked, debounced, after Dart files change.
type ReloadFunc func() error

// Watcher watches a project's lib/ directory and fires a debounced
// reload callback on Dart file changes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	reload   ReloadFunc
	done     chan struct{}
}

// Start begins watching root/lib recursively. New subdirectories are
// picked up as they appear.
func Start(root string, debounce time.Duration, reload ReloadFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		reload:   reload,
		done:     make(chan struct{}),
	}

	libDir := filepath.Join(root, "lib")
	if err := w.addTree(libDir); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop()
	log.Info("Watching for Dart changes", "dir", libDir, "debounce", debounce)
	return w, nil
}

// Stop ends the watch. Idempotent with respect to the event loop.
func (w *Watcher) Stop() {
	_ = w.fsw.Close()
	<-w.done
}

// addTree registers dir and every subdirectory with the watcher.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// loop consumes watcher events until the watcher is closed, firing the
// reload callback after a quiet period.
func (w *Watcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addTree(ev.Name)
					continue
				}
			}
			if !isDartFile(ev.Name) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
				continue
			}
			log.Debug("Dart file changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			if err := w.reload(); err != nil {
				log.Warn("Hot reload failed", "error", err)
			} else {
				log.Info("Hot reload triggered")
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Debug("Watcher error", "error", err)
		}
	}
}

// isDartFile reports whether path names a Dart source file.
func isDartFile(path string) bool {
	return strings.HasSuffix(path, ".dart")
}
