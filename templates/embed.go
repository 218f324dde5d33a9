// Package templates embeds the default reference dataset and configuration.
package templates

import "embed"

//go:embed catalog.yaml config.yaml
var FS embed.FS
