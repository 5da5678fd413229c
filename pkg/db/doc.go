// Package db opens the PostgreSQL pool used by the "postgres" session backend
// and by the job queue, and applies embedded goose migrations.
//
//	pool, err := db.Open(ctx, db.DefaultConfig(s.String("session.url", "")))
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, migrations, "blazeweb_migrations", log); err != nil {
//		return err
//	}
//
// Open retries with a linear backoff, which helps when the database container
// starts together with the application.
package db
