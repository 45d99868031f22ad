// Package db runs line queries against an in-memory set of tables.
//
// A Database is the single entry point. Query parses one command, applies it
// and reports the outcome as a Result; it never returns an error or panics.
//
//	d := db.New("zoo.json", db.WithLogger(logger))
//	d.Query("CREATE TABLE cats (INT id, STR name)")
//	d.Query("INSERT INTO cats (id, name) VALUES (1, Tom)")
//	result := d.Query("SELECT * FROM cats WHERE id=1")
//	result.Display()
//
// Failed queries carry Status FAIL, a human readable Report and the
// classified error in Err (see core.KindOf).
//
// # Persistence
//
// Databases are saved and loaded whole through package ps:
//
//	d, err := db.Open(ctx, "git:///srv/linedb/zoo.json", db.WithIdentity(identity))
//	...
//	err = d.Save(ctx)
package db
