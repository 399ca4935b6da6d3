// Package migrations embeds the SQL migration files into the binary.
//
// Importing this package registers them with the database package.
package migrations

import (
	"embed"

	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
