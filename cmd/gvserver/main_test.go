package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func createSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"views/index.html":      `{{layout "base"}}{{setBlock "title" "Home"}}<p>{{.path}}</p>`,
		"views/docs/index.html": `{{layout "base"}}docs`,
		"views/base.html":       `<title>{{renderBlock "title" .siteName}}</title><link href="{{asset "app.css"}}">{{renderBlock "content"}}`,
		"views/broken.html":     `{{call "nothing"}}`,
		"views/md.html":         `{{markdownFile "/pages/md.md"}}`,
		"pages/md.md":           "# Markdown\n",
		"static/app.css":        "body{}",
		"static/robots.txt":     "User-agent: *",
		"globals.yaml":          "siteName: Acme\n",
	})
	return root
}

func newTestHandler(t *testing.T, root string) handler {
	t.Helper()
	g := &globals{}
	if err := g.reload(filepath.Join(root, "globals.yaml")); err != nil {
		t.Fatal(err)
	}
	return handler{prefix: root, ext: "html", globals: g}
}

func TestViewName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "index"},
		{"", "index"},
		{"/about", "about"},
		{"/docs/", "docs/index"},
		{"/docs/intro.html", "docs/intro.html"},
	}
	for _, tt := range tests {
		if got := viewName(tt.path); got != tt.want {
			t.Errorf("viewName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestHandler(t *testing.T) {
	h := newTestHandler(t, createSite(t))

	tests := []struct {
		path string
		code int
		body string
	}{
		{path: "/", code: http.StatusOK},
		{path: "/docs/", code: http.StatusOK},
		{path: "/md", code: http.StatusOK, body: "<h1>Markdown</h1>\n"},
		{path: "/missing", code: http.StatusNotFound},
		{path: "/broken", code: http.StatusInternalServerError},
		{path: "/static/app.css", code: http.StatusOK, body: "body{}"},
		{path: "/robots.txt", code: http.StatusOK, body: "User-agent: *"},
		{path: "/static/nothing.css", code: http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

		res := w.Result()
		if res.StatusCode != tt.code {
			t.Errorf("GET %s: status = %d, want %d", tt.path, res.StatusCode, tt.code)
			continue
		}
		if tt.body == "" {
			continue
		}
		b, _ := io.ReadAll(res.Body)
		if diff := cmp.Diff(tt.body, string(b)); diff != "" {
			t.Errorf("GET %s (-want, +got):\n%s", tt.path, diff)
		}
	}
}

func TestHandler_Page(t *testing.T) {
	h := newTestHandler(t, createSite(t))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/", nil))

	b, _ := io.ReadAll(w.Result().Body)
	body := string(b)
	for _, want := range []string{
		"<title>Acme</title>",
		`<link href="/static/app.css?v=`,
		"docs",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("GET /docs/ = %q, want it to contain %q", body, want)
		}
	}
	if ct := w.Result().Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestGlobals_Reload(t *testing.T) {
	root := createSite(t)
	file := filepath.Join(root, "globals.yaml")

	g := &globals{}
	if err := g.reload(""); err != nil {
		t.Fatal(err)
	}
	if len(g.Load()) != 0 {
		t.Errorf("Load() = %v, want empty", g.Load())
	}

	if err := g.reload(file); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]any{"siteName": "Acme"}, g.Load()); diff != "" {
		t.Errorf("(-want, +got):\n%s", diff)
	}

	if err := g.reload(filepath.Join(root, "missing.yaml")); err == nil {
		t.Errorf("reload() of missing file expected error, got nil")
	}
	if g.Load()["siteName"] != "Acme" {
		t.Errorf("failed reload replaced the globals: %v", g.Load())
	}
}

func TestWatchGlobals(t *testing.T) {
	root := createSite(t)
	file := filepath.Join(root, "globals.yaml")

	g := &globals{}
	if err := g.reload(file); err != nil {
		t.Fatal(err)
	}
	w, err := watchGlobals(file, g)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(file, []byte("siteName: Changed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for g.Load()["siteName"] != "Changed" {
		if time.Now().After(deadline) {
			t.Fatalf("globals not reloaded: %v", g.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
