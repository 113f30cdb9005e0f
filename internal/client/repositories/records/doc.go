// Package records is the Local Store: durable SQLite storage of todo
// records with a per-record dirty flag.
//
// # Overview
//
// Repository describes the operations the sync engine needs: upsert
// (Put, BulkPut), point reads (Get), partial merges (Update), hard deletes
// (Delete) and ordered listing (List). SQLiteRepository implements it over a
// dbx.DBTX, so the same code runs on *sql.DB or inside a *sql.Tx.
//
// # Semantics
//
// Every call issues a single statement; a nil error means the row is
// written. Update and Delete on a missing id are silent no-ops, callers must
// not assume existence. Get reports a missing id as common.ErrorNotFound.
//
// Typical Usage
//
//	repo := records.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, todo)
//	_ = repo.Update(ctx, id, models.TodoPatch{Completed: models.Ptr(true)})
//	list, _ := repo.List(ctx, records.OrderCreatedDesc)
package records
