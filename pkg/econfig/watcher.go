// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package econfig

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a settings file when it changes. Updates are delivered on
// buffered channels; a slow subscriber only ever sees the latest settings.
type Watcher struct {
	mutex    sync.Mutex
	path     string
	envFile  string
	watcher  *fsnotify.Watcher
	settings Settings
	subs     []chan Settings
}

func MakeWatcher(path string, envFile string) (*Watcher, error) {
	settings, err := Load(path, envFile)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// watch the directory so editors that replace the file are still seen
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{path: filepath.Clean(path), envFile: envFile, watcher: fsw, settings: settings}, nil
}

func (w *Watcher) Start() {
	log.Printf("[econfig] watching %s\n", w.path)
	go func() {
		for {
			w.mutex.Lock()
			fsw := w.watcher
			w.mutex.Unlock()
			if fsw == nil {
				return
			}
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Printf("[econfig] watcher error: %v\n", err)
			}
		}
	}()
}

func (w *Watcher) Close() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
	for _, ch := range w.subs {
		close(ch)
	}
	w.subs = nil
}

func (w *Watcher) Get() Settings {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.settings
}

// Subscribe returns a channel that receives every reloaded Settings value.
func (w *Watcher) Subscribe() <-chan Settings {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	ch := make(chan Settings, 1)
	w.subs = append(w.subs, ch)
	return ch
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if filepath.Clean(event.Name) != w.path {
		return
	}
	settings, err := Load(w.path, w.envFile)
	if err != nil {
		log.Printf("[econfig] reload failed, keeping previous settings: %v\n", err)
		return
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.settings = settings
	for _, ch := range w.subs {
		select {
		case <-ch:
		default:
		}
		ch <- settings
	}
}
