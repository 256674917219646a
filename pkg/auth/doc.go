// Package auth authenticates coursehub requests and carries the resulting
// identity through the request context.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). When every authenticator abstains the
// request has no credentials and is rejected.
//
// Auth is implemented as transport middleware. Rejections of any kind reach
// the client as the same 401 body; the internal reason (see [Reason]) is
// logged and counted but never exposed. Password hashing lives here too,
// behind [PasswordHasher], so verification and account creation share one
// bcrypt configuration and one bounded worker pool.
package auth
