package main

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// songWatcher reports saves of one file. It watches the parent directory
// since editors often replace files instead of writing them in place.
type songWatcher struct {
	w        *fsnotify.Watcher
	path     string
	debounce time.Duration
}

func newSongWatcher(path string) (*songWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &songWatcher{w: w, path: abs, debounce: 100 * time.Millisecond}, nil
}

func (sw *songWatcher) matches(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	return err == nil && name == sw.path
}

// Run calls reload after each burst of changes until the watcher is closed.
func (sw *songWatcher) Run(reload func()) {
	var timer *time.Timer
	for {
		select {
		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if !sw.matches(ev) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(sw.debounce, reload)
		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)
		}
	}
}

func (sw *songWatcher) Close() error { return sw.w.Close() }
