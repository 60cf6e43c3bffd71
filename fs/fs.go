// Package appfs exposes the embedded application assets: goose migrations and
// email templates.
package appfs

import "embed"

//go:embed all:migrations all:templates
var FS embed.FS
