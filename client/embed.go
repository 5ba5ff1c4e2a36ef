// Package client embeds the browser script that drives stepper pages.
package client

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed src/*.js
var assets embed.FS

// Handler serves the embedded scripts, e.g. stepper.js.
func Handler() http.Handler {
	sub, err := fs.Sub(assets, "src")
	if err != nil {
		panic(err)
	}
	return http.FileServerFS(sub)
}
