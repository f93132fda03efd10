// Package web embeds the browser assets: the page templates and the static
// files (stylesheet plus the live-refresh script).
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the files served under /static/.
func StaticFS() fs.FS {
	return mustSub("static")
}

// TemplatesFS returns the layout and page templates.
func TemplatesFS() fs.FS {
	return mustSub("templates")
}

// mustSub panics on a missing embedded directory, which can only happen
// when the binary was built without the asset tree.
func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded %s assets missing: %v", dir, err))
	}
	return sub
}
