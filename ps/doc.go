// Package ps persists whole databases as snapshots.
//
// A Snapshot is a format-neutral image of a database: its name, and for
// every table the declared columns and the raw text of each row. Snapshots
// are encoded by a Codec chosen from the file extension (".bson" for BSON,
// JSON otherwise) and kept in a Store chosen from the location:
//
//	/var/lib/linedb/zoo.json     local file, replaced atomically
//	file:///tmp/zoo.bson         local file
//	git:///srv/linedb/zoo.json   file in a git repository, one commit per save
//	s3://bucket/dbs/zoo.json     S3 object
//	https://example.com/zoo.json read only
//
// Open a store and round-trip a snapshot:
//
//	store, err := ps.OpenStore("zoo.json", ps.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.Save(ctx, snapshot); err != nil {
//	    log.Fatal(err)
//	}
//	snapshot, err = store.Load(ctx)
//
// Git stores also implement Historian, listing past saves as Transactions.
package ps
