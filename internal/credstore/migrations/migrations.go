// Package migrations embeds the sqlite schema migrations of the local
// credential store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
