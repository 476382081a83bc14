package glubview

import (
	"bytes"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lemmi/glubview/backend"
	"github.com/pkg/errors"
	"github.com/raymondbutcher/tidyhtml"
)

const defaultExt = "html"

// Option configures a Renderer.
type Option func(*Renderer)

// WithFileExtension sets the extension appended to view names without one.
// A leading dot is ignored. An empty extension disables appending.
func WithFileExtension(ext string) Option {
	return func(r *Renderer) {
		r.ext = strings.TrimPrefix(ext, ".")
	}
}

// WithBackend reads views from fs. The directory passed to New is then a path
// inside fs.
func WithBackend(fs backend.Backend) Option {
	return func(r *Renderer) {
		r.fs = fs
	}
}

// WithTidy cleans up the final output of every Render with tidyhtml.
func WithTidy() Option {
	return func(r *Renderer) {
		r.tidy = true
	}
}

// Renderer renders views from a directory. Layout and block state lives in a
// View that is created for every Render, so a Renderer can be shared.
type Renderer struct {
	fs   backend.Backend
	dir  string
	root string
	ext  string
	tidy bool

	mu         sync.RWMutex
	globals    map[string]any
	extensions extensionSet
	funcs      map[string]any
}

// New returns a Renderer for the views in dir.
func New(dir string, options ...Option) (*Renderer, error) {
	r := &Renderer{
		ext:     defaultExt,
		globals: map[string]any{},
		funcs:   map[string]any{},
	}
	for _, opt := range options {
		opt(r)
	}

	if r.fs == nil {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidViewDirectory, "%q: %v", dir, err)
		}
		r.dir = abs
		r.fs = backend.Dir(abs)
		r.root = "/"
	} else {
		r.dir = dir
		r.root = path.Join("/", filepath.ToSlash(dir))
	}

	fi, err := backend.Stat(r.fs, r.root)
	if err != nil || !fi.IsDir() {
		return nil, errors.Wrapf(ErrInvalidViewDirectory, "%q", dir)
	}

	return r, nil
}

// ViewDirectory returns the configured view directory.
func (r *Renderer) ViewDirectory() string {
	return r.dir
}

// FileExtension returns the extension appended to bare view names.
func (r *Renderer) FileExtension() string {
	return r.ext
}

// Resolve returns the path of the view name inside the backend.
func (r *Renderer) Resolve(name string) (string, error) {
	name = strings.TrimLeft(name, `/\`)
	p := strings.TrimSuffix(r.root, "/") + "/" + name
	if path.Ext(p) == "" && r.ext != "" {
		p += "." + r.ext
	}

	fi, err := backend.Stat(r.fs, p)
	if err != nil {
		return "", errors.Wrapf(ErrViewNotFound, "%q", p)
	}
	if fi.IsDir() {
		return "", errors.Wrapf(ErrViewNotFound, "%q is a directory", p)
	}
	return p, nil
}

// AddGlobal makes value available as name in every view. Globals cannot be
// redefined.
func (r *Renderer) AddGlobal(name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.globals[name]; ok {
		return errors.Wrapf(ErrDuplicateGlobal, "%q", name)
	}
	r.globals[name] = value
	return nil
}

// Globals returns a copy of the globals.
func (r *Renderer) Globals() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g := make(map[string]any, len(r.globals))
	for k, v := range r.globals {
		g[k] = v
	}
	return g
}

// AddExtension registers ext. An extension of the same type registered
// before is replaced and keeps its position.
func (r *Renderer) AddExtension(ext Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extensions = r.extensions.add(ext)
	r.funcs = r.extensions.funcs()
}

// Func looks up an extension function by name.
func (r *Renderer) Func(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[name]
	return fn, ok
}

// Call invokes the extension function name with args and returns its result.
func (r *Renderer) Call(name string, args ...any) (any, error) {
	fn, ok := r.Func(name)
	if !ok {
		return nil, errors.Wrapf(ErrUndefinedFunction, "%q", name)
	}
	return invoke(name, fn, args)
}

// Render renders the view name with params. Params shadow globals of the
// same name.
func (r *Renderer) Render(name string, params map[string]any) (string, error) {
	out, err := r.newView().render(name, params)
	if err != nil {
		return "", err
	}

	if r.tidy {
		var buf bytes.Buffer
		if err := tidyhtml.Copy(&buf, strings.NewReader(out)); err != nil {
			return "", errors.Wrapf(err, "tidyhtml failed: %q", name)
		}
		out = buf.String()
	}

	return out, nil
}

// RenderTo renders the view name and writes the result to w. Nothing is
// written if rendering fails.
func (r *Renderer) RenderTo(w io.Writer, name string, params map[string]any) error {
	out, err := r.Render(name, params)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (r *Renderer) newView() *View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	globals := make(map[string]any, len(r.globals))
	for k, v := range r.globals {
		globals[k] = v
	}

	return &View{
		r:       r,
		globals: globals,
		funcs:   r.funcs,
		blocks:  map[string]string{},
		active:  map[string]bool{},
	}
}

func readFile(fs backend.Backend, name string) (string, error) {
	f, err := fs.Open(name)
	if err != nil {
		return "", errors.Wrapf(err, "Cannot open file: %q", name)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return "", errors.Wrapf(err, "Cannot read file: %q", name)
	}
	return string(b), nil
}
