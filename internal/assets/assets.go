package assets

import (
	"embed"
)

// Database migrations, one directory per driver
//
//go:embed migrations
var Migrations embed.FS
