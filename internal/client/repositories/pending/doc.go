// Package pending is the client outbox of finalize calls the server has not
// acknowledged yet.
//
// A viewing session finalizes exactly once. When that call fails with
// something other than a terminal view error, the media id is parked here
// and retried later; finalize is idempotent on the server, so a retry that
// races a late success is harmless.
//
// Key Types
//
//   - type Repository: interface used by viewer.Retrier
//   - type SQLiteRepository: SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	repo := pending.NewSQLiteRepository(db)
//	_ = repo.Enqueue(ctx, mediaID, time.Now())
//	due, _ := repo.ListDue(ctx, time.Now(), 50)
//	_ = repo.Delete(ctx, due[0].MediaID)
package pending
