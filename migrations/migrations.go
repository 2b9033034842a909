// Package migrations embeds the SQL schema migrations for the items table.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
