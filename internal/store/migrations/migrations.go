// Package migrations embeds the goose migration scripts of the local
// database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
