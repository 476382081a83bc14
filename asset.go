package glubview

import (
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/lemmi/glubview/backend"
	"github.com/pkg/errors"
)

// Assets is an Extension providing the function asset, which turns a file
// name into a URL that changes whenever the file is modified.
//
// It also serves the files: as http.Handler without directory listings and as
// http.FileSystem.
type Assets struct {
	fs        backend.Backend
	prefix    string
	urlPrefix string

	// filenameMethod puts the version into the file name instead of the
	// query string.
	filenameMethod bool
}

// NewAssets serves the files below dir of fs under urlPrefix.
func NewAssets(fs backend.Backend, dir, urlPrefix string, filenameMethod bool) (*Assets, error) {
	prefix := path.Join("/", dir)
	fi, err := backend.Stat(fs, prefix)
	if err != nil || !fi.IsDir() {
		return nil, errors.Wrapf(ErrInvalidAssetDirectory, "%q", dir)
	}
	return &Assets{
		fs:             fs,
		prefix:         prefix,
		urlPrefix:      path.Join("/", urlPrefix),
		filenameMethod: filenameMethod,
	}, nil
}

func (a *Assets) Functions() map[string]any {
	return map[string]any{
		"asset": a.URL,
	}
}

// URL returns the versioned URL of file.
func (a *Assets) URL(file string) (string, error) {
	file = strings.TrimLeft(file, "/")
	fi, err := backend.Stat(a.fs, path.Join(a.prefix, file))
	if err != nil || fi.IsDir() {
		return "", errors.Wrapf(ErrAssetNotFound, "%q", file)
	}
	version := strconv.FormatInt(fi.ModTime().Unix(), 10)

	if a.filenameMethod {
		ext := path.Ext(file)
		return path.Join(a.urlPrefix, strings.TrimSuffix(file, ext)+"."+version+ext), nil
	}
	return path.Join(a.urlPrefix, file) + "?v=" + version, nil
}

var versioned = regexp.MustCompile(`\.[0-9]+(\.[^./]+)$`)

// Serve the file requested by r. Error 404 on directory access. With the
// filename method a file is looked up as named first, so lib.2.js is served
// as is if it exists.
func (a *Assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, a.urlPrefix)

	f, err := a.Open(name)
	if err != nil && a.filenameMethod && versioned.MatchString(name) {
		f, err = a.Open(versioned.ReplaceAllString(name, "$1"))
	}
	if err != nil {
		http.Error(w, r.URL.Path, http.StatusNotFound)
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		http.Error(w, r.URL.Path, http.StatusInternalServerError)
		return
	}
	if stat.IsDir() {
		http.Error(w, r.URL.Path, http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), f)
}

// Open implements the http.FileSystem interface.
func (a *Assets) Open(name string) (http.File, error) {
	return a.fs.Open(path.Join(a.prefix, path.Clean("/"+name)))
}
