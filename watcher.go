package main

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// compileFunc compiles an entry file and returns the files it imported.
type compileFunc func(entry string) (imports []string, err error)

// Watcher recompiles entry files when they or anything they import change.
type Watcher struct {
	compile compileFunc

	mu            sync.Mutex
	watchingDirs  map[string]struct{}
	dependents    map[string]map[string]struct{}
	watchingFiles map[string]struct{}

	watcher *fsnotify.Watcher
}

func NewWatcher(compile compileFunc) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		compile:       compile,
		watchingDirs:  make(map[string]struct{}),
		dependents:    make(map[string]map[string]struct{}),
		watchingFiles: make(map[string]struct{}),
		watcher:       watcher,
	}
	go w.eventLoop()

	return w, nil
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Add compiles entry once and starts watching it and its imports.
func (w *Watcher) Add(entry string) error {
	fullPath, _ := filepath.Abs(entry)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.watchFile(fullPath, fullPath); err != nil {
		return err
	}

	w.recompile(fullPath)
	return nil
}

// watchFile registers that entry must be recompiled when path changes. The
// caller must hold w.mu.
func (w *Watcher) watchFile(path, entry string) error {
	deps, ok := w.dependents[path]
	if !ok {
		deps = make(map[string]struct{})
		w.dependents[path] = deps
	}
	deps[entry] = struct{}{}

	dir := filepath.Dir(path)
	if _, ok := w.watchingDirs[dir]; ok {
		return nil
	}

	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.watchingDirs[dir] = struct{}{}

	return nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			fname, _ := filepath.Abs(event.Name)
			w.fileModified(fname)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("watcher: %s", err)
		}
	}
}

func (w *Watcher) fileModified(fullPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	deps, ok := w.dependents[fullPath]
	if !ok {
		return
	}

	log.Noticef("file %q modified, recompiling...", filepath.Base(fullPath))

	entries := make([]string, 0, len(deps))
	for entry := range deps {
		entries = append(entries, entry)
	}

	for _, entry := range entries {
		w.recompile(entry)
	}
}

// recompile compiles entry and watches whatever it imports now. The caller
// must hold w.mu.
func (w *Watcher) recompile(entry string) {
	imports, err := w.compile(entry)
	if err != nil {
		report(err)
		return
	}

	for _, imp := range imports {
		if err := w.watchFile(imp, entry); err != nil {
			log.Warningf("can't watch %q: %s", imp, err)
		}
	}
}
