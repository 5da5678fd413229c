// Package session implements server-side sessions for blazeweb.
//
// A Session is a bag of JSON-serializable values identified by a random
// token carried in a cookie. Stores persist sessions:
//
//   - MemoryStore keeps them in process, for development and tests.
//   - RedisStore keeps them in Redis with a TTL matching the expiry.
//   - PostgresStore keeps them in the blazeweb_sessions table created by the
//     embedded goose migration (see Migrations).
//
// Sessions track whether they changed so managers only write dirty sessions.
package session
