// Package migrations embeds the PostgreSQL schema for the postgres store driver.
package migrations

import "embed"

// FS holds the up migrations applied at startup.
//
//go:embed *.up.sql
var FS embed.FS
