// Package redis connects to the Redis server used by session.RedisStore.
//
// Connect retries the initial ping so a service can start while Redis is
// still coming up, and Healthcheck adapts the client to a readiness probe.
// Config is populated from environment variables with pkg/config.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := session.NewRedisStore(client)
package redis
