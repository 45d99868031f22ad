// Package LineDB is an embedded in-memory relational store driven by a
// line-oriented query language.
//
// A database is a set of named tables with typed columns (INT, FLOAT, CHAR,
// STR, DATE, DATE_RANGE). Every command is one line and every line yields a
// Result with an OK or FAIL status, optional rows and a report.
//
// # Quick Start
//
//	database := LineDB.OpenMemory()
//
//	database.Query("CREATE TABLE cats (INT id, STR name, STR breed)")
//	database.Query("INSERT INTO cats (id, name) VALUES (1, Tom)")
//	database.Query("UPDATE cats SET breed=Persian WHERE id=1")
//
//	result := database.Query("SELECT * FROM cats")
//	result.Display()
//
// # Commands
//
//   - CREATE TABLE <name> (<TYPE column [NOT NULL]>, ...)
//   - DROP TABLE <name>
//   - LIST TABLES
//   - INSERT INTO <name> (<columns>) VALUES (<values>)
//   - UPDATE <name> SET <column=value, ...> [WHERE <column=value, ...>]
//   - DELETE FROM <name> [WHERE <column=value, ...>]
//   - SELECT <columns or *> FROM <name> [WHERE <column=value, ...>]
//   - CARTESIAN PRODUCT <name> BY <name>
//
// # Persistence
//
// Databases are saved and loaded whole. The location picks the store and
// the extension picks the encoding:
//
//	database, err := LineDB.Open(ctx, "git:///srv/linedb/zoo.json",
//	    db.WithIdentity(core.Identity{Name: "App", Email: "app@example.com"}))
//	...
//	err = database.Save(ctx)
package LineDB
