// Package users provides a user management backend: credential sign in,
// refresh session rotation, and superuser gated CRUD over a relational
// store.
//
// Sessions:
//   - A sign in persists a RefreshSession keyed by the signed refresh
//     token string and returns a short lived access token whose subject
//     is the user id.
//   - Refreshing rotates the stored row in place, rewriting the token
//     string under a transaction. The replaced string then matches no
//     row, so a replayed refresh token is rejected. Expired rows refuse
//     rotation without being mutated.
//
// Authorization:
//   - Gate builds route middleware on top of middleware/jwtware. It
//     validates the access token, resolves claims.Subject to a stored
//     user, and enforces one of three policies: any known user, active
//     user, or active superuser. Refresh tokens never pass the gate.
//
// Persistence:
//   - Models are bun records with soft deletes. Migrations for sqlite
//     and postgres are embedded under data/sql/migrations and exposed
//     through GetMigrationsFS for go-persistence-bun.
package users
