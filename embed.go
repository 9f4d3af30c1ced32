package spacetraveling

import (
	"embed"
	"io/fs"
)

// EmbeddedAssets contains the static assets served under /public/:
// style.css, loadmore.js, logo.svg
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

func publicFS() fs.FS {
	sub, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		panic(err)
	}
	return sub
}
