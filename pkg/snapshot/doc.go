// Package snapshot stores serialized documents.
//
// A Snapshot is the HTML of a document body at one point in time, along with
// the number of mutations the document had seen. Snapshots are kept in a
// Store: BoltStore writes them to a local bbolt database, S3Store to an S3
// bucket, and MemoryStore keeps them in memory for tests and short-lived
// processes.
//
// # Usage
//
//	store, err := snapshot.OpenBolt("snapshots.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	snap := snapshot.Take(doc, "after-login")
//	err = store.Put(ctx, snap)
package snapshot
