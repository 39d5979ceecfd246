// Package appfs embeds the files the binaries need at runtime:
// database migrations, the default training catalog and email templates.
package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS

// CatalogPath is the path of the default training catalog inside FS.
const CatalogPath = "assets/catalog.yaml"
