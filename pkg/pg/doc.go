// Package pg opens the PostgreSQL pool behind pgstore and applies its schema.
//
// Connect builds a pgx/v5 pool from Config and retries the first ping,
// Migrate runs goose migrations from an fs.FS, and Healthcheck adapts the
// pool to a readiness probe.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, pgstore.MigrationsDir, log); err != nil {
//		return err
//	}
//	store := pgstore.New(pool)
package pg
