package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/lemmi/glubview"
	"github.com/pkg/errors"
)

// globals holds the variables handed to every renderer. Each request gets
// the snapshot that was current when it started.
type globals struct {
	p atomic.Pointer[map[string]any]
}

func (g *globals) Load() map[string]any {
	if m := g.p.Load(); m != nil {
		return *m
	}
	return nil
}

// reload replaces the globals with the content of the YAML file path. An
// empty path clears them.
func (g *globals) reload(path string) error {
	m := map[string]any{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "Cannot open globals file: %q", path)
		}
		defer f.Close()

		m, err = glubview.ReadGlobals(f)
		if err != nil {
			return errors.Wrapf(err, "Cannot read globals file: %q", path)
		}
	}
	g.p.Store(&m)
	return nil
}

// watchGlobals reloads g whenever the file path is written or replaced. The
// directory is watched, so editors that save by renaming are noticed too.
func watchGlobals(path string, g *globals) (io.Closer, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "Cannot watch %q", filepath.Dir(path))
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := g.reload(path); err != nil {
					log.Print(err)
					continue
				}
				if DEBUG {
					log.Println("reloaded globals: ", path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Print(err)
			}
		}
	}()

	return watcher, nil
}
