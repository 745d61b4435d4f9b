// Package web serves the page of the monitoring tool.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist
var dist embed.FS

// Handler serves the monitoring page. The page is read from dir when dir is
// not empty, so that it can be edited while a simulation runs. Otherwise the
// copy built into the binary is served.
func Handler(dir string) http.Handler {
	if dir != "" {
		return http.FileServer(http.Dir(dir))
	}

	page, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FileServer(http.FS(page))
}
