// Package database provides the SQLite store for discovery cycle history.
//
// The database is optional: it is opened only when database.enabled is set.
// It holds a single application table, inventory_cycles, plus the
// schema_migrations bookkeeping table.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are embedded by package migrations and registered through
// MigrationsFS. Each migration has an .up.sql and a .down.sql file.
package database
