// Package recname builds and parses Courier record file names.
//
// # Format
//
// A record name is "<timestamp>_<token>.json", where the timestamp is a
// fixed-width, colon-free UTC instant with millisecond resolution
// (2025-11-12T03-21-45-123Z) and the token is 8 lowercase hex characters
// from 4 random bytes. Fixed width and zero padding guarantee that plain
// string comparison of two names orders them by instant first and token
// second. That lexicographic order is the system's only ordering oracle;
// nothing may compare decoded timestamps instead of whole names.
//
// # Monotonicity
//
// The Generator ensures per-process strictly increasing names:
//   - If the system clock regresses, it pins to the last seen millisecond.
//   - Within one millisecond it re-rolls the random token until the new
//     name sorts after the previous one, advancing to the next millisecond
//     if re-rolling keeps colliding.
//
// Usage
//
//	g := recname.NewGenerator()
//	ts, token := g.Next()
//	name := recname.Format(ts, token) // 2025-11-12T03-21-45-123Z_9f3a01bc.json
package recname
