// Package pgstore is a PostgreSQL backend for session.Manager.
//
// The table layout is the one used by connect-pg-simple:
//
//	sid    varchar PRIMARY KEY
//	sess   json
//	expire timestamp(6)
//
// so a Go service and a Node.js service configured with the same secrets can
// share one table. Node's connect-pg-simple stores bare session ids, so
// configure the Manager with an empty StorePrefix when sharing.
//
// The schema ships as a goose migration in Migrations:
//
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, log); err != nil {
//		return err
//	}
//	store := pgstore.New(pool)
//
// Rows past their expire column are ignored on read. Call Prune
// periodically to delete them.
package pgstore
