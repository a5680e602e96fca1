package fsio

import (
	"fmt"
	"os"
)

// Tail returns the n lexicographically largest file names in dir, in
// ascending order. n <= 0 returns an empty slice. Dot-prefixed entries and
// subdirectories are excluded.
func Tail(dir string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	names, _, err := list(dir)
	if err != nil {
		return nil, err
	}
	if len(names) > n {
		names = names[len(names)-n:]
	}
	return names, nil
}

// Since returns every file name in dir strictly greater than cursor, in
// ascending order, along with the number of directory entries examined.
// An empty cursor returns everything.
func Since(dir, cursor string) ([]string, int, error) {
	names, examined, err := list(dir)
	if err != nil {
		return nil, 0, err
	}
	// names are sorted; skip to the first entry past the cursor.
	i := 0
	for i < len(names) && names[i] <= cursor {
		i++
	}
	return names[i:], examined, nil
}

// list re-reads dir in full. os.ReadDir returns entries sorted by name,
// which for record names is chronological order.
func list(dir string) ([]string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("list %s: %w", dir, ErrDirMissing)
		}
		return nil, 0, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) == 0 || name[0] == '.' {
			continue
		}
		names = append(names, name)
	}
	return names, len(entries), nil
}
