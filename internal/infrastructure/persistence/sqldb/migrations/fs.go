// Package migrations embeds the schema scripts of every supported SQL dialect.
package migrations

import "embed"

// PostgresFS holds goose migrations under postgres/.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// OracleFS holds slash-separated scripts under oracle/, applied in file name order.
//
//go:embed oracle/*.sql
var OracleFS embed.FS
