// Package templates ships the Flutter project that every generated app
// starts from.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed all:flutter_template
var files embed.FS

// Flutter returns the template project rooted at its top directory.
func Flutter() fs.FS {
	sub, err := fs.Sub(files, "flutter_template")
	if err != nil {
		panic("templates: " + err.Error())
	}
	return sub
}
