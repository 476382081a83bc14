package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lemmi/compress"
	"github.com/lemmi/glubview"
	"github.com/lemmi/glubview/backend"
	"github.com/pkg/errors"
)

const (
	viewPath   = "views"
	staticPath = "static"
)

var (
	DEBUG bool
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func HttpError(w http.ResponseWriter, code int, logErr error) {
	if DEBUG {
		switch err := logErr.(type) {
		case stackTracer:
			log.Print(err)
			log.Printf("%+v", err.StackTrace())
		default:
			log.Print(err)
		}
	} else {
		log.Print(logErr)
	}
	http.Error(w, http.StatusText(code), code)
}

// viewName maps a request path to a view name.
func viewName(urlPath string) string {
	name := strings.TrimPrefix(urlPath, "/")
	if name == "" || strings.HasSuffix(name, "/") {
		name += "index"
	}
	return name
}

// Rendering of a single view with its layouts

type pageHandler struct {
	fs      backend.Backend
	assets  *glubview.Assets
	ext     string
	tidy    bool
	globals *globals
}

func (h pageHandler) renderer() (*glubview.Renderer, error) {
	options := []glubview.Option{
		glubview.WithBackend(h.fs),
		glubview.WithFileExtension(h.ext),
	}
	if h.tidy {
		options = append(options, glubview.WithTidy())
	}

	r, err := glubview.New(viewPath, options...)
	if err != nil {
		return nil, err
	}
	if err := r.AddGlobals(h.globals.Load()); err != nil {
		return nil, err
	}
	r.AddExtension(h.assets)
	r.AddExtension(glubview.NewMarkdown(h.fs))
	return r, nil
}

func (h pageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rd, err := h.renderer()
	if err != nil {
		HttpError(w, http.StatusInternalServerError, errors.Wrap(err, "renderer setup failed"))
		return
	}

	name := viewName(r.URL.Path)
	if _, err := rd.Resolve(name); err != nil {
		HttpError(w, http.StatusNotFound, err)
		return
	}

	out, err := rd.Render(name, map[string]any{
		"path":  r.URL.Path,
		"query": r.URL.Query(),
	})
	if err != nil {
		HttpError(w, http.StatusInternalServerError, errors.Wrapf(err, "view rendering failed: %q", r.URL.Path))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "", time.Time{}, strings.NewReader(out))
}

// Main handling of the site

type handler struct {
	prefix  string
	git     bool
	branch  string
	ext     string
	tidy    bool
	globals *globals
}

func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := filepath.Abs(h.prefix)
	if err != nil {
		HttpError(w, http.StatusInternalServerError, errors.Wrap(err, "filepath.Abs("+h.prefix+")"))
		return
	}

	var fs backend.Backend

	if h.git {
		fs, err = backend.Git(path, h.branch)
		if err != nil {
			HttpError(w, http.StatusInternalServerError, err)
			return
		}
		if c, ok := fs.(backend.CIDer); ok {
			w.Header().Set("ETag", `"`+c.CID()+`"`)
		}
	} else {
		fs = backend.Dir(path)
	}

	assets, err := glubview.NewAssets(fs, staticPath, "/"+staticPath, false)
	if err != nil {
		HttpError(w, http.StatusInternalServerError, err)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/static/", assets)
	mux.Handle("/robots.txt", assets)
	mux.Handle("/favicon.ico", assets)
	mux.Handle("/", pageHandler{
		fs:      fs,
		assets:  assets,
		ext:     h.ext,
		tidy:    h.tidy,
		globals: h.globals,
	})
	w.Header().Set("Cache-Control", "max-age=32")
	mux.ServeHTTP(w, r)
}

func main() {
	prefix := flag.String("prefix", "../example_site", "path to the root dir")
	addr := flag.String("bind", "localhost:8080", "address or path to bind to")
	network := flag.String("net", "tcp", `"tcp", "tcp4", "tcp6", "unix" or "unixpacket"`)
	git := flag.Bool("git", false, "prefix is a git repo")
	branch := flag.String("branch", "master", "branch to serve if prefix is a git repo")
	ext := flag.String("ext", "html", "file extension of views")
	globalsFile := flag.String("globals", "", "YAML file with global variables")
	watch := flag.Bool("watch", false, "reload the globals file when it changes")
	tidy := flag.Bool("tidy", false, "clean up rendered html")
	flag.BoolVar(&DEBUG, "debug", false, "set debug output")
	flag.Parse()

	g := &globals{}
	if err := g.reload(*globalsFile); err != nil {
		log.Fatal(err)
	}
	if *watch && *globalsFile != "" {
		w, err := watchGlobals(*globalsFile, g)
		if err != nil {
			log.Fatal(err)
		}
		defer w.Close()
	}

	ln, err := net.Listen(*network, *addr)
	if err != nil {
		panic(err)
	}
	defer ln.Close()
	if strings.HasPrefix(*network, "unix") {
		err = os.Chmod(*addr, 0666)
	}
	if err != nil {
		panic(err)
	}
	log.Println("Starting")
	if DEBUG {
		log.Println("prefix: ", *prefix)
		log.Println("addr: ", *addr)
		log.Println("network: ", *network)
		log.Println("git: ", *git)
		log.Println("globals: ", *globalsFile)
	}
	log.Fatal(http.Serve(ln, compress.New(handler{
		prefix:  *prefix,
		git:     *git,
		branch:  *branch,
		ext:     *ext,
		tidy:    *tidy,
		globals: g,
	})))
}

func init() {
	log.SetFlags(log.Flags() | log.Lshortfile)
}
