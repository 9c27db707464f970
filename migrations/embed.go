// Package migrations holds the SQL schema applied at service start-up.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
