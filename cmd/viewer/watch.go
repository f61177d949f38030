// Copyright (c) 2025 Cubyte.online under the AGPL License

package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// shaderWatcher notices when any of a set of shader files is written.
// The directories are watched rather than the files, as compilers and
// editors often replace a file instead of writing it in place.
type shaderWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	changed atomic.Bool
	done    chan struct{}
}

func newShaderWatcher(paths ...string) (*shaderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sw := &shaderWatcher{watcher: w, files: map[string]bool{}, done: make(chan struct{})}
	dirs := map[string]bool{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		sw.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	go sw.run()
	return sw, nil
}

func (sw *shaderWatcher) run() {
	defer close(sw.done)
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err == nil && sw.files[abs] {
				sw.changed.Store(true)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn(fmt.Sprintf("shader watcher: %s", err))
		}
	}
}

// Changed reports whether a shader changed since the last call.
func (sw *shaderWatcher) Changed() bool {
	return sw.changed.Swap(false)
}

func (sw *shaderWatcher) Close() error {
	err := sw.watcher.Close()
	<-sw.done
	return err
}
