// Package mongo connects to the MongoDB deployment behind mongostore.
//
// Configuration comes from environment variables (see Config). New retries
// the first ping so the service tolerates a database that is still starting,
// and Healthcheck adapts the client to a readiness probe.
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	store := mongostore.New(db)
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
package mongo
