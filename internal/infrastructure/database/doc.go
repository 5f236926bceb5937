// Package database provides SQLite connectivity for the Equilibrium hub.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Embedded schema migrations (up/down SQL pairs)
//   - Single-writer connection limits matching SQLite's locking model
//   - STRICT mode tables for type safety
//
// The hub's persistence needs are small: the learned IR code library and
// the migration bookkeeping. There is deliberately no ORM layer; the
// irstore repository issues parameterised SQL directly.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive-only so a rollback never strands data: new
// columns must be NULLABLE or carry a DEFAULT, and every migration ships
// both .up.sql and .down.sql.
package database
