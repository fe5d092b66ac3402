package config

import (
	"embed"
)

// Store holds the yml configs of every blockchain and network.
// .secrets.yml files are never embedded.
//
//go:embed chaingov
var Store embed.FS
