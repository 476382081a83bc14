package glubview

import (
	"fmt"
	"html/template"
	"reflect"
	"unicode"

	"github.com/pkg/errors"
)

// contentBlock holds the output of the view a layout wraps.
const contentBlock = "content"

// View is the state of one render chain: the view, its layouts and the
// partials inserted by them. Templates reach it through the functions layout,
// setBlock, beginBlock, endBlock, renderBlock, insert and call.
type View struct {
	r       *Renderer
	globals map[string]any
	funcs   map[string]any
	fm      template.FuncMap

	layout  string
	capture *frame
	blocks  map[string]string
	out     outputStack

	// views being rendered, for cycle detection
	active map[string]bool
}

// render executes name and then every layout requested along the way. The
// output of a view becomes the content block of its layout. The layout marker
// and the content block of the caller are restored on return.
func (v *View) render(name string, params map[string]any) (string, error) {
	depth := v.out.depth()
	saved := v.layout
	content, hadContent := v.blocks[contentBlock]
	defer func() {
		v.layout = saved
		if hadContent {
			v.blocks[contentBlock] = content
		} else {
			delete(v.blocks, contentBlock)
		}
	}()

	var entered []string
	defer func() {
		for _, p := range entered {
			delete(v.active, p)
		}
	}()

	for {
		p, err := v.r.Resolve(name)
		if err != nil {
			return "", err
		}
		if v.active[p] {
			return "", errors.Wrapf(ErrViewCycle, "%q", p)
		}
		v.active[p] = true
		entered = append(entered, p)

		v.layout = ""
		v.out.push(&frame{})
		start := v.out.depth()

		if err := v.execute(p, v.scope(params)); err != nil {
			v.unwind(depth)
			return "", err
		}
		if v.out.depth() != start {
			open := v.capture
			v.unwind(depth)
			if open != nil {
				return "", errors.Wrapf(ErrUnclosedBlock, "%q in view %q", open.block, p)
			}
			return "", errors.Wrapf(ErrUnclosedBlock, "view %q", p)
		}

		out := v.out.pop().buf.String()
		if v.layout == "" {
			return out, nil
		}

		v.blocks[contentBlock] = out
		name, params = v.layout, nil
	}
}

func (v *View) execute(p string, scope map[string]any) error {
	src, err := readFile(v.r.fs, p)
	if err != nil {
		return err
	}

	t, err := template.New(p).Funcs(v.funcMap()).Parse(src)
	if err != nil {
		return errors.Wrapf(err, "Cannot parse view: %q", p)
	}

	return t.Execute(&v.out, scope)
}

// unwind drops the frames opened after depth, including an open capture.
func (v *View) unwind(depth int) {
	for _, f := range v.out.unwind(depth) {
		if f == v.capture {
			v.capture = nil
		}
	}
}

func (v *View) scope(params map[string]any) map[string]any {
	s := make(map[string]any, len(v.globals)+len(params))
	for k, val := range v.globals {
		s[k] = val
	}
	for k, val := range params {
		s[k] = val
	}
	return s
}

// Layout requests that the output of the current view is wrapped by the
// layout name.
func (v *View) Layout(name string) {
	v.layout = name
}

// Block defines the block name. The first definition wins; an empty name is
// ignored.
func (v *View) Block(name, content string) error {
	if name == contentBlock {
		return errors.Wrapf(ErrReservedName, "%q", name)
	}
	if name == "" {
		return nil
	}
	if _, ok := v.blocks[name]; ok {
		return nil
	}
	v.blocks[name] = content
	return nil
}

// BeginBlock starts capturing output for the block name.
func (v *View) BeginBlock(name string) error {
	if v.capture != nil {
		return errors.Wrapf(ErrNestedBlock, "%q inside %q", name, v.capture.block)
	}
	v.capture = &frame{capture: true, block: name}
	v.out.push(v.capture)
	return nil
}

// EndBlock stops the capture started by BeginBlock and defines the block
// with the captured output.
func (v *View) EndBlock() error {
	if v.capture == nil || v.out.top() != v.capture {
		return ErrNoActiveBlock
	}
	f := v.out.pop()
	v.capture = nil
	return v.Block(f.block, f.buf.String())
}

// RenderBlock returns the content of the block name, or def if the block is
// not defined.
func (v *View) RenderBlock(name string, def ...string) string {
	if content, ok := v.blocks[name]; ok {
		return content
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

// Insert renders the view name in place. It shares blocks with the current
// chain; a layout requested by name wraps only its own output.
func (v *View) Insert(name string, params map[string]any) (string, error) {
	return v.render(name, params)
}

// Call invokes the extension function name.
func (v *View) Call(name string, args ...any) (any, error) {
	fn, ok := v.funcs[name]
	if !ok {
		return nil, errors.Wrapf(ErrUndefinedFunction, "%q", name)
	}
	return invoke(name, fn, args)
}

func (v *View) funcMap() template.FuncMap {
	if v.fm != nil {
		return v.fm
	}

	fm := template.FuncMap{}
	for name, fn := range v.funcs {
		if validFuncName(name) && validFunc(fn) {
			fm[name] = fn
		}
	}

	// An empty template.JS prints nothing in html, script and attribute
	// contexts. A plain "" becomes a quoted string inside <script>.
	fm["layout"] = func(name string) template.JS {
		v.Layout(name)
		return ""
	}
	// block is a template keyword.
	fm["setBlock"] = func(name string, content any) (template.JS, error) {
		return "", v.Block(name, blockContent(content))
	}
	fm["beginBlock"] = func(name string) (template.JS, error) {
		return "", v.BeginBlock(name)
	}
	fm["endBlock"] = func() (template.JS, error) {
		return "", v.EndBlock()
	}
	fm["renderBlock"] = func(name string, def ...any) template.HTML {
		d := make([]string, len(def))
		for i := range def {
			d[i] = blockContent(def[i])
		}
		return template.HTML(v.RenderBlock(name, d...))
	}
	fm["esc"] = func(s string) template.HTML {
		return template.HTML(Esc(s))
	}
	fm["call"] = func(fn any, args ...any) (any, error) {
		if name, ok := fn.(string); ok {
			return v.Call(name, args...)
		}
		return invoke("call", fn, args)
	}
	fm["insert"] = func(name string, params ...map[string]any) (template.HTML, error) {
		merged := map[string]any{}
		for _, p := range params {
			for k, val := range p {
				merged[k] = val
			}
		}
		out, err := v.Insert(name, merged)
		return template.HTML(out), err
	}

	v.fm = fm
	return fm
}

// blockContent converts a template value to block content. Only
// template.HTML is kept as is.
func blockContent(content any) string {
	switch c := content.(type) {
	case template.HTML:
		return string(c)
	case string:
		return Esc(c)
	case nil:
		return ""
	}
	return Esc(fmt.Sprint(content))
}

// validFunc reports whether fn can be called from a template.
func validFunc(fn any) bool {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return false
	}
	switch t.NumOut() {
	case 1:
		return true
	case 2:
		return t.Out(1) == errorType
	}
	return false
}

func validFuncName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case i == 0 && !unicode.IsLetter(r):
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			return false
		}
	}
	return true
}
