// Package pgmigrations embeds the SQL migrations for the upload history table.
package pgmigrations

import "embed"

// FS holds the golang-migrate source files.
//
//go:embed *.sql
var FS embed.FS
