// Package spool implements the per-room message store: one immutable file
// per message, named so that lexicographic order equals delivery order.
// Posting never touches an existing file; concurrent writers coordinate
// through nothing but distinct file names.
package spool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/filedrop-io/courier/internal/fsio"
	"github.com/filedrop-io/courier/pkg/recname"
)

// ErrValidation reports bad caller input. Never retried.
var ErrValidation = errors.New("validation failed")

// maxPostAttempts bounds rename-collision retries with fresh tokens.
const maxPostAttempts = 3

// Spool writes and reads message records under root/rooms/<room>/msgs.
type Spool struct {
	root string
	gen  *recname.Generator
}

// New returns a Spool over the shared root directory.
func New(root string) *Spool {
	return &Spool{root: root, gen: recname.NewGenerator()}
}

// MsgsDir returns the spool directory for a room.
func (s *Spool) MsgsDir(room string) string {
	return filepath.Join(s.root, "rooms", room, "msgs")
}

// Post validates, names, and atomically writes one message record,
// returning the populated record so the caller can render it before the
// next poll cycle observes the file. The room's directories must already
// exist (room readiness is the runtime's concern); a missing directory
// surfaces as a retryable fsio error.
func (s *Spool) Post(room, from, text string, replyTo string, attachments []Attachment) (*MessageRecord, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("%w: empty message text", ErrValidation)
	}
	if strings.TrimSpace(from) == "" {
		return nil, "", fmt.Errorf("%w: empty sender", ErrValidation)
	}
	if room == "" {
		return nil, "", fmt.Errorf("%w: empty room", ErrValidation)
	}
	if attachments == nil {
		attachments = []Attachment{}
	}
	var replyPtr *string
	if replyTo != "" {
		replyPtr = &replyTo
	}

	dir := s.MsgsDir(room)
	var lastErr error
	for attempt := 0; attempt < maxPostAttempts; attempt++ {
		ts, token, err := s.gen.Next()
		if err != nil {
			return nil, "", err
		}
		rec := &MessageRecord{
			ID:          token,
			TS:          Timestamp(ts),
			Room:        room,
			From:        from,
			Type:        TypeMsg,
			Text:        text,
			ReplyTo:     replyPtr,
			Attachments: attachments,
		}
		line, err := rec.Encode()
		if err != nil {
			return nil, "", fmt.Errorf("encode record: %w", err)
		}
		name := recname.Format(ts, token)
		err = fsio.WriteAtomic(dir, name, line)
		if err == nil {
			return rec, name, nil
		}
		if !errors.Is(err, fsio.ErrExist) {
			return nil, "", err
		}
		// Name collision: identical millisecond and token from another
		// writer. Retry with a fresh token.
		lastErr = err
	}
	return nil, "", lastErr
}

// Hydrate reads and decodes one spool file by name. Decode failures wrap
// ErrCorruptRecord so callers can skip the file without aborting a batch.
func (s *Spool) Hydrate(room, name string) (*MessageRecord, error) {
	b, err := os.ReadFile(filepath.Join(s.MsgsDir(room), name))
	if err != nil {
		return nil, fmt.Errorf("hydrate %s: %w", name, err)
	}
	rec, err := DecodeRecord([]byte(strings.TrimRight(string(b), "\n")))
	if err != nil {
		return nil, fmt.Errorf("hydrate %s: %w", name, err)
	}
	return rec, nil
}
