package fsio

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrDirMissing reports that the target directory does not exist.
	ErrDirMissing = errors.New("directory missing")
	// ErrExist reports a collision on the final file name.
	ErrExist = errors.New("file already exists")
)

// WriteAtomic writes line as the full content of dir/finalName followed by
// exactly one newline. The write goes to a unique temporary file in dir
// and becomes visible only through the final rename. line must not contain
// a newline of its own. A collision on finalName surfaces as ErrExist so
// the caller can retry with a fresh token.
func WriteAtomic(dir, finalName string, line []byte) error {
	tmpPath, err := writeTemp(dir, finalName, line)
	if err != nil {
		return err
	}
	finalPath := filepath.Join(dir, finalName)
	// Rename would silently replace an existing file; a name collision must
	// surface distinctly. The pre-check is best-effort, which is acceptable
	// because names carry enough entropy that a lost race is vanishingly
	// rare.
	if _, err := os.Lstat(finalPath); err == nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", finalName, ErrExist)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: rename: %w", finalName, err)
	}
	return nil
}

// ReplaceAtomic is WriteAtomic without the collision check: the rename
// replaces any existing file in one step. Used for records that are
// overwritten in place, like presence heartbeats.
func ReplaceAtomic(dir, finalName string, line []byte) error {
	tmpPath, err := writeTemp(dir, finalName, line)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, finalName)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: rename: %w", finalName, err)
	}
	return nil
}

// writeTemp creates the dot-prefixed temporary file next to its final
// destination and fully persists the single-line payload into it.
func writeTemp(dir, finalName string, line []byte) (string, error) {
	if bytes.IndexByte(line, '\n') >= 0 {
		return "", fmt.Errorf("write %s: payload must be a single line", finalName)
	}
	var entropy [4]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return "", fmt.Errorf("write %s: entropy: %w", finalName, err)
	}
	tmpName := "." + finalName + ".tmp-" + hex.EncodeToString(entropy[:])
	tmpPath := filepath.Join(dir, tmpName)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("write %s: %w", finalName, ErrDirMissing)
		}
		return "", fmt.Errorf("write %s: create temp: %w", finalName, err)
	}
	if _, err := f.Write(append(append([]byte{}, line...), '\n')); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write %s: %w", finalName, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write %s: sync: %w", finalName, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write %s: close: %w", finalName, err)
	}
	return tmpPath, nil
}

// AppendLine appends line plus one newline to path, creating the file if
// absent. Used only by compaction, whose file lock guarantees a single
// appender per log.
func AppendLine(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("append %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(append(append([]byte{}, line...), '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("append %s: sync: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("append %s: close: %w", filepath.Base(path), err)
	}
	return nil
}
