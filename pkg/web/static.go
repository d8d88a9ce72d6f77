package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

//go:embed static
var embeddedFiles embed.FS

// embeddedStaticFS returns the built-in dashboard
func embeddedStaticFS() http.FileSystem {
	sub, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return http.FS(sub)
}

// spaHandler serves files from dir, falling back to index.html for
// client-side routes
func spaHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqPath := filepath.Clean("/" + r.URL.Path)
		if reqPath == "/" {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fullPath := filepath.Join(dir, reqPath[1:])
		if fi, err := os.Stat(fullPath); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, fullPath)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
