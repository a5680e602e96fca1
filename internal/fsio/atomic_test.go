package fsio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomicContent(t *testing.T) {
	dir := t.TempDir()
	if err := WriteAtomic(dir, "a.json", []byte(`{"k":"v"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "a.json"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != `{"k":"v"}`+"\n" {
		t.Fatalf("content = %q, want single line with one trailing newline", b)
	}
}

func TestWriteAtomicLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	if err := WriteAtomic(dir, "a.json", []byte("{}")); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestWriteAtomicCollision(t *testing.T) {
	dir := t.TempDir()
	if err := WriteAtomic(dir, "a.json", []byte("{}")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	err := WriteAtomic(dir, "a.json", []byte(`{"other":1}`))
	if !errors.Is(err, ErrExist) {
		t.Fatalf("want ErrExist, got %v", err)
	}
	// Loser must not have clobbered the winner.
	b, _ := os.ReadFile(filepath.Join(dir, "a.json"))
	if string(b) != "{}\n" {
		t.Fatalf("original content overwritten: %q", b)
	}
}

func TestWriteAtomicDirMissing(t *testing.T) {
	err := WriteAtomic(filepath.Join(t.TempDir(), "nope"), "a.json", []byte("{}"))
	if !errors.Is(err, ErrDirMissing) {
		t.Fatalf("want ErrDirMissing, got %v", err)
	}
}

func TestWriteAtomicRejectsEmbeddedNewline(t *testing.T) {
	if err := WriteAtomic(t.TempDir(), "a.json", []byte("{\n}")); err == nil {
		t.Fatalf("expected error for multi-line payload")
	}
}

func TestReplaceAtomicOverwrites(t *testing.T) {
	dir := t.TempDir()
	if err := ReplaceAtomic(dir, "alice.json", []byte(`{"n":1}`)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := ReplaceAtomic(dir, "alice.json", []byte(`{"n":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "alice.json"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != `{"n":2}`+"\n" {
		t.Fatalf("content = %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp residue: %v", entries)
	}
}

func TestAppendLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2025-11-12.ndjson")
	if err := AppendLine(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendLine(path, []byte(`{"b":2}`)); err != nil {
		t.Fatalf("append: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "{\"a\":1}\n{\"b\":2}\n" {
		t.Fatalf("log content = %q", b)
	}
}
