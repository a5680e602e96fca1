package spool

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCorruptRecord reports a spool file whose content is not a valid
// message record. It is always scoped to a single file; batch operations
// log and skip, never abort.
var ErrCorruptRecord = errors.New("corrupt record")

// Attachment display modes.
const (
	DisplayInline = "inline"
	DisplayLink   = "link"
)

// Attachment references a file under the room's attachments directory.
type Attachment struct {
	RelPath string `json:"relPath"`
	Mime    string `json:"mime"`
	Display string `json:"display"`
}

// Timestamp marshals as a fixed-precision RFC 3339 UTC instant with
// milliseconds always present, so a record's byte form is stable across
// writers.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format("2006-01-02T15:04:05.000Z07:00") + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler; it accepts any RFC 3339 form.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the instant as a time.Time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// MessageRecord is one spooled message. Field order is part of the wire
// form. Once renamed into place a record file is never modified.
type MessageRecord struct {
	ID          string       `json:"id"`
	TS          Timestamp    `json:"ts"`
	Room        string       `json:"room"`
	From        string       `json:"from"`
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	ReplyTo     *string      `json:"replyTo"`
	Attachments []Attachment `json:"attachments"`
}

// TypeMsg is the only record type currently defined.
const TypeMsg = "msg"

// Encode renders the record as its single-line wire form (no trailing
// newline; the writer appends exactly one).
func (r *MessageRecord) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses a spool line into a record, enforcing required
// fields. Failures wrap ErrCorruptRecord.
func DecodeRecord(line []byte) (*MessageRecord, error) {
	var r MessageRecord
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if r.ID == "" || r.From == "" || r.Text == "" {
		return nil, fmt.Errorf("%w: missing required field", ErrCorruptRecord)
	}
	if r.TS.Time().IsZero() {
		return nil, fmt.Errorf("%w: missing timestamp", ErrCorruptRecord)
	}
	if r.Attachments == nil {
		r.Attachments = []Attachment{}
	}
	return &r, nil
}
