// Package runtime wires the shared root, config, and facades for one
// participant process. It owns directory layout: rooms live under
// rooms/<room>/ with msgs, attachments, and logs subdirectories, and
// presence/ sits beside them at the root.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/filedrop-io/courier/internal/compactor"
	cfgpkg "github.com/filedrop-io/courier/internal/config"
	"github.com/filedrop-io/courier/internal/presence"
	"github.com/filedrop-io/courier/internal/spool"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// ErrBadRoomName reports a room name with characters unsafe for a
// cross-platform path segment.
var ErrBadRoomName = errors.New("invalid room name")

// Options for building the Runtime.
type Options struct {
	Root   string
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Runtime wires the spool, compactor, and config over one shared root.
type Runtime struct {
	root   string
	config cfgpkg.Config
	logger logpkg.Logger
	sp     *spool.Spool
	comp   *compactor.Compactor
}

// Open validates the root directory and returns a Runtime. The root must
// already exist; use Init to provision a fresh exchange.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open root %s: not a directory", opts.Root)
	}
	sp := spool.New(opts.Root)
	rt := &Runtime{
		root:   opts.Root,
		config: opts.Config,
		logger: logger,
		sp:     sp,
		comp:   compactor.New(opts.Root, sp, logger),
	}
	return rt, nil
}

// Init provisions a fresh exchange at root: the root itself and the
// shared presence directory. Rooms are created on demand by EnsureRoom.
func Init(root string) error {
	if err := os.MkdirAll(presence.Dir(root), 0o755); err != nil {
		return fmt.Errorf("init root %s: %w", root, err)
	}
	return os.MkdirAll(filepath.Join(root, "rooms"), 0o755)
}

// Close releases runtime resources. The runtime holds no file handles
// between operations, so this exists for interface symmetry with
// embedders that defer cleanup.
func (r *Runtime) Close() error { return nil }

// CheckHealth verifies the root is still reachable and listable. Network
// mounts drop out from under long-lived processes; callers poll this.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.ReadDir(r.root); err != nil {
		return fmt.Errorf("root unreachable: %w", err)
	}
	return nil
}

// EnsureRoom creates a room's directory tree if absent. Safe to race
// with other participants: MkdirAll tolerates existing directories.
func (r *Runtime) EnsureRoom(room string) error {
	if !validRoomName(room) {
		return fmt.Errorf("%w: %q", ErrBadRoomName, room)
	}
	base := filepath.Join(r.root, "rooms", room)
	for _, sub := range []string{"msgs", "attachments", "logs"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			return fmt.Errorf("ensure room %s: %w", room, err)
		}
	}
	r.logger.Debug("runtime.ensure_room", logpkg.Str("room", room))
	return nil
}

// Rooms lists existing room names, sorted.
func (r *Runtime) Rooms() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.root, "rooms"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Root returns the shared root path.
func (r *Runtime) Root() string { return r.root }

// Spool returns the message spool facade.
func (r *Runtime) Spool() *spool.Spool { return r.sp }

// Compactor returns the compaction facade.
func (r *Runtime) Compactor() *compactor.Compactor { return r.comp }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime's base logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// validRoomName accepts lowercase alphanumerics, '-', and '_' up to 64
// characters, which every supported filesystem can represent.
func validRoomName(room string) bool {
	if room == "" || len(room) > 64 {
		return false
	}
	for _, c := range room {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
