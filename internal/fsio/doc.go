// Package fsio implements Courier's file-system primitives: atomic
// single-record writes and sorted directory listing with cursor queries.
//
// # Atomic writes
//
// WriteAtomic serializes one record as a single line plus exactly one
// trailing newline, writes it to a dot-prefixed temporary file in the
// destination directory, fsyncs, and renames it into place. Readers never
// observe partial content: the record either exists under its final name
// in full or not at all. The temporary file lives in the same directory
// because cross-directory renames are not atomic on the network file
// systems Courier targets.
//
// # Listing
//
// Tail and Since re-read the directory in full on every call; there is no
// persistent watch, by design, because change notification on network
// mounts is unreliable. Both return plain file names in ascending
// lexicographic order, which for record names equals chronological order.
// Dot-prefixed entries (in-flight temporaries, lock files) and
// subdirectories are never listed.
//
// # Errors
//
// ErrDirMissing distinguishes "the feature's directory does not exist"
// (quiet, retry later) from genuine I/O failures. ErrExist distinguishes a
// final-name collision from other write failures so callers can retry with
// a fresh random token.
package fsio
