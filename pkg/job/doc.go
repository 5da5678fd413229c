// Package job runs background work for blazeweb applications on River, a
// PostgreSQL-backed queue.
//
// The framework uses it for two things: delivering programmer mails about
// unhandled exceptions outside the request, and periodically purging expired
// sessions from the postgres session store. Applications can register their
// own tasks the same way:
//
//	q, err := job.New(pool,
//		job.WithLogger(log),
//		job.WithTask("mail:programmers", sendReport),
//		job.WithSchedule("sessions:purge", "@hourly", purge),
//	)
//	if err := q.Start(ctx); err != nil { ... }
//	defer q.Stop(ctx)
//
//	err = q.Enqueue(ctx, "mail:programmers", report)
//
// Every task travels as one River job kind, "blazeweb:task", carrying the
// task name and a JSON payload. Call [Migrate] once before Start to create
// River's tables.
package job
