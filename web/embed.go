package web

import "embed"

// Templates embeds printable document templates.
//
//go:embed templates/vouchers/*.html
var Templates embed.FS
