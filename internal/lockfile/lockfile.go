// Package lockfile implements TTL-based mutual exclusion using exclusive
// file creation, the only locking primitive a shared network directory
// offers atomically.
//
// A lock is held iff its file exists and the embedded expiry has not
// passed. An existing-but-expired (or unreadable) lock file is treated as
// the residue of a crashed holder: it is removed and acquisition is
// retried, a bounded number of times so two processes fighting over a
// stale lock cannot livelock. The TTL is a crash safety net, not a renewal
// mechanism; critical sections must pick a TTL above their worst case.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrLockUnavailable reports that the lock is validly held elsewhere or
// that acquisition kept losing races after stale cleanup.
var ErrLockUnavailable = errors.New("lock unavailable")

// maxAcquireAttempts bounds the create / read / cleanup cycle.
const maxAcquireAttempts = 3

// Metadata is the single-line JSON body of a lock file.
type Metadata struct {
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Detail    string    `json:"detail,omitempty"`
}

// HeldError carries the live holder's metadata for diagnostics. It matches
// ErrLockUnavailable under errors.Is.
type HeldError struct {
	ExpiresAt time.Time
	Detail    string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("lock held until %s (%s)", e.ExpiresAt.Format(time.RFC3339), e.Detail)
}

func (e *HeldError) Is(target error) bool { return target == ErrLockUnavailable }

// Now is the clock used for expiry decisions. Swappable for tests.
var Now = time.Now

// WithLock acquires path, runs fn, and releases the lock on the way out
// regardless of fn's outcome. detail is recorded in the lock body for the
// benefit of whoever hits contention.
func WithLock(path string, ttl time.Duration, detail string, fn func() error) error {
	if err := acquire(path, ttl, detail); err != nil {
		return err
	}
	defer os.Remove(path)
	return fn()
}

func acquire(path string, ttl time.Duration, detail string) error {
	for attempt := 0; attempt < maxAcquireAttempts; attempt++ {
		created, err := tryCreate(path, ttl, detail)
		if err != nil {
			return err
		}
		if created {
			return nil
		}
		meta, readErr := readMetadata(path)
		if readErr == nil && Now().Before(meta.ExpiresAt) {
			return &HeldError{ExpiresAt: meta.ExpiresAt, Detail: meta.Detail}
		}
		// Unreadable or expired: crashed holder. Clear it and try again.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale lock %s: %w", path, err)
		}
	}
	return fmt.Errorf("lock %s: repeated races after stale cleanup: %w", path, ErrLockUnavailable)
}

// tryCreate attempts the exclusive creation. Returns (false, nil) when the
// file already exists.
func tryCreate(path string, ttl time.Duration, detail string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("create lock %s: %w", path, err)
	}
	now := Now()
	body, err := json.Marshal(Metadata{CreatedAt: now, ExpiresAt: now.Add(ttl), Detail: detail})
	if err != nil {
		f.Close()
		os.Remove(path)
		return false, fmt.Errorf("encode lock %s: %w", path, err)
	}
	if _, err := f.Write(append(body, '\n')); err != nil {
		f.Close()
		os.Remove(path)
		return false, fmt.Errorf("write lock %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("close lock %s: %w", path, err)
	}
	return true, nil
}

func readMetadata(path string) (Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return Metadata{}, err
	}
	if meta.ExpiresAt.IsZero() {
		return Metadata{}, errors.New("lock metadata missing expiry")
	}
	return meta, nil
}
