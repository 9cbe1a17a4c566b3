package routeweb

import "embed"

// EmbeddedAssets contains the static assets served under /public/:
// app.css and map.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
