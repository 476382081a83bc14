package backend

import (
	"net/http"
	"os"
	"strings"

	"github.com/gogits/git"
	"github.com/lemmi/ghfs"
	"github.com/pkg/errors"
)

// Backend is the file system views and assets are read from.
type Backend interface {
	http.FileSystem
}

// CIDer is implemented by backends that are pinned to a content id, like a
// git commit.
type CIDer interface {
	CID() string
}

// Dir returns a Backend serving the directory path of the local file system.
func Dir(path string) Backend {
	return http.Dir(path)
}

type gitBackend struct {
	http.FileSystem
	cid string
}

func (g gitBackend) CID() string {
	return g.cid
}

// Git returns a Backend serving the tree of the head commit of branch in the
// repository at path.
func Git(path, branch string) (Backend, error) {
	repo, err := git.OpenRepository(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open repository: %q", path)
	}

	commit, err := repo.GetCommitOfBranch(branch)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open branch %q", branch)
	}

	return gitBackend{
		FileSystem: ghfs.FromCommit(commit),
		cid:        strings.Trim(commit.Id.String(), "\""),
	}, nil
}

// Stat returns the FileInfo of name in fs.
func Stat(fs Backend, name string) (os.FileInfo, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}
