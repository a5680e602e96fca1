// Package client provides the `courier` command-line client.
//
// The CLI operates directly on a shared exchange directory; there is no
// server to talk to. Every command opens the root, performs its file
// operations, and exits (or loops, for `tail --follow` and
// `presence beat --keep`).
//
// Installation
//
//	go install github.com/filedrop-io/courier/cmd/courier@latest
//
// # Root configuration
//
// The shared root is discovered in order: --root flag, COURIER_ROOT,
// the `root` key of --config, then an OS-specific data directory. The
// sender identity comes from --user or COURIER_USER.
//
// Usage
//
//	courier init --root /mnt/shared/drop
//
//	courier rooms init general
//	courier rooms list
//
//	courier post --room general --text "hello" \
//	    --reply-to 1a2b3c4d \
//	    --attach "reports/q3.pdf:application/pdf:link"
//
//	courier tail --room general --lines 20
//	courier tail --room general --follow --filter 'from == "alice"'
//
//	courier presence beat
//	courier presence beat --keep      # heartbeat loop until interrupted
//	courier presence who
//
//	courier compact --room general                  # through yesterday
//	courier compact --room general --date 2025-11-10
//	courier compact --room general --dry-run
//
// Notes
//
//   - tail --follow resumes from --cursor when given; the final cursor is
//     printed on exit so a later invocation can continue without replay.
//   - compact refuses to run while another participant holds the room's
//     lock; the error names the holder's expiry so operators can decide
//     whether to wait.
//   - --attach takes relPath:mime[:display] where display is inline or
//     link (default link). Paths are relative to the room's attachments
//     directory; the CLI never copies attachment bytes.
package client
