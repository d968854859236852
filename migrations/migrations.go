// Package migrations embeds the SQL schema migrations that are applied
// at startup, in lexical filename order.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
