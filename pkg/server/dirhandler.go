package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

// DirectoryHandler serves the files of a virtual file system below
// a path prefix. Directories are only served if they contain an
// index.html, there are no directory listings.
type DirectoryHandler struct {
	fs      vfs.FileSystem
	prefix  string
	handler http.Handler
}

var _ http.Handler = (*DirectoryHandler)(nil)

// NewDirectoryHandlerFor serves a directory of the OS file system.
func NewDirectoryHandlerFor(dir, prefix string) (*DirectoryHandler, error) {
	fs, err := projectionfs.New(osfs.OsFs, dir)
	if err != nil {
		return nil, err
	}
	return NewDirectoryHandler(fs, prefix), nil
}

func NewDirectoryHandler(fs vfs.FileSystem, prefix string) *DirectoryHandler {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &DirectoryHandler{
		fs:      fs,
		prefix:  prefix,
		handler: http.StripPrefix(prefix, http.FileServer(http.FS(vfs.AsIoFS(fs)))),
	}
}

func (d *DirectoryHandler) RegisterHandler(srv *Server) {
	srv.Handle(d.prefix, d)
}

func (d *DirectoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Debug("{{method}} serving {{url}}", "method", r.Method, "url", r.URL)
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p := path.Clean("/" + strings.TrimPrefix(r.URL.Path, d.prefix))
	if ok, _ := vfs.DirExists(d.fs, p); ok {
		if ok, _ := vfs.FileExists(d.fs, path.Join(p, "index.html")); !ok {
			http.NotFound(w, r)
			return
		}
	}
	d.handler.ServeHTTP(w, r)
}
