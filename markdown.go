package glubview

import (
	"bytes"
	"html/template"

	"github.com/lemmi/glubview/backend"
	"github.com/pkg/errors"

	bm "github.com/microcosm-cc/bluemonday"
	bf "github.com/russross/blackfriday"
)

// imageAltTitleCopy fills a missing image title from the alt text and vice
// versa.
type imageAltTitleCopy struct {
	bf.Renderer
}

func (md imageAltTitleCopy) Image(out *bytes.Buffer, link []byte, title []byte, alt []byte) {
	if title == nil {
		title = alt
	}
	if alt == nil {
		alt = title
	}
	md.Renderer.Image(out, link, title, alt)
}

// Markdown is an Extension converting markdown to HTML. Unless Unsafe is
// set, the result is sanitized with the bluemonday UGC policy.
type Markdown struct {
	fs     backend.Backend
	Unsafe bool
}

// NewMarkdown reads markdown files for markdownFile from fs.
func NewMarkdown(fs backend.Backend) *Markdown {
	return &Markdown{fs: fs}
}

func (m *Markdown) Functions() map[string]any {
	return map[string]any{
		"markdown":     m.Render,
		"markdownFile": m.RenderFile,
		"sanitize":     Sanitize,
	}
}

// Render converts src to HTML.
func (m *Markdown) Render(src string) template.HTML {
	return template.HTML(m.convert([]byte(src)))
}

// RenderFile converts the markdown file name to HTML.
func (m *Markdown) RenderFile(name string) (template.HTML, error) {
	if m.fs == nil {
		return "", errors.Errorf("Cannot open markdown file without backend: %q", name)
	}
	src, err := readFile(m.fs, name)
	if err != nil {
		return "", errors.Wrapf(err, "Cannot render markdown file: %q", name)
	}
	return template.HTML(m.convert([]byte(src))), nil
}

func (m *Markdown) convert(src []byte) []byte {
	html := bf.Markdown(src,
		imageAltTitleCopy{
			bf.HtmlRenderer(0, "", ""),
		}, bf.EXTENSION_TABLES)
	if !m.Unsafe {
		html = bm.UGCPolicy().SanitizeBytes(html)
	}
	return html
}

// Sanitize strips everything from html that is not allowed by the
// bluemonday UGC policy.
func Sanitize(html string) template.HTML {
	return template.HTML(bm.UGCPolicy().Sanitize(html))
}
