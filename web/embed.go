// Package web embeds the chat page served at "/".
package web

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

//go:embed all:dist
var distFS embed.FS

// Handler serves the embedded chat page and its assets. Unknown paths get
// index.html so bookmarked URLs still open the chat.
func Handler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	index, err := fs.ReadFile(subFS, "index.html")
	if err != nil {
		panic("web: missing index.html: " + err.Error())
	}
	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path != "" && path != "index.html" {
			if info, err := fs.Stat(subFS, path); err == nil && !info.IsDir() {
				fileServer.ServeHTTP(w, r)
				return
			}
		}
		// http.FileServer redirects ".../index.html" to "./", so the page is
		// written directly.
		http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(index))
	})
}
