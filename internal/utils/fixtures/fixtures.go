package fixtures

import (
	"embed"
)

//go:embed parser
var FixturesFS embed.FS
