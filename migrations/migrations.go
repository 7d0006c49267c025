// Package migrations embeds the SQL migration files for the transcript
// archive schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
