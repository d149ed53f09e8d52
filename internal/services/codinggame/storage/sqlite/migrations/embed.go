// Package migrations embeds the SQL schema of the sqlite stores.
package migrations

import "embed"

//go:embed log/*.sql
var LogFS embed.FS

//go:embed desktop/*.sql
var DesktopFS embed.FS
