package appfs

import "embed"

//go:embed migrations schema
var FS embed.FS
