// Package redis opens the go-redis client behind the "redis" session backend.
//
//	client, err := redis.Open(ctx, s.String("session.url", ""),
//		redis.WithPoolSize(20),
//		redis.WithRetry(5, time.Second),
//	)
//
// Healthcheck and Shutdown plug into the application's readiness probe and
// shutdown hooks.
package redis
