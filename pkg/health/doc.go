// Package health serves liveness and readiness probes.
//
// A [Checker] collects named checks (database pools, redis clients, the job
// queue) and runs them concurrently on each readiness request. Probes answer
// plain text by default and JSON when asked through the Accept header or
// ?format=json:
//
//	c := health.NewChecker(health.WithTimeout(3 * time.Second))
//	c.Add("postgres", func(ctx context.Context) error { return pool.Ping(ctx) })
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", c.ReadinessHandler())
package health
