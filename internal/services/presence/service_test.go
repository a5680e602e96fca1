package presencesvc

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	cfgpkg "github.com/filedrop-io/courier/internal/config"
	"github.com/filedrop-io/courier/internal/presence"
	"github.com/filedrop-io/courier/internal/runtime"
)

func newServiceForTest(t *testing.T) *Service {
	t.Helper()
	root := t.TempDir()
	if err := runtime.Init(root); err != nil {
		t.Fatalf("init root: %v", err)
	}
	rt, err := runtime.Open(runtime.Options{Root: root, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return New(rt)
}

func TestBeatAndWho(t *testing.T) {
	svc := newServiceForTest(t)
	if err := svc.Beat(context.Background(), "alice"); err != nil {
		t.Fatalf("beat: %v", err)
	}
	got, err := svc.Who(context.Background())
	if err != nil {
		t.Fatalf("who: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("who = %v", got)
	}
}

func TestWhoUnprovisionedIsEmpty(t *testing.T) {
	root := t.TempDir()
	rt, err := runtime.Open(runtime.Options{Root: root, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	svc := New(rt)
	got, err := svc.Who(context.Background())
	if err != nil || got != nil {
		t.Fatalf("who = %v, %v; want nil, nil", got, err)
	}
}

func TestKeeperRefreshesHeartbeat(t *testing.T) {
	svc := newServiceForTest(t)
	k := svc.NewKeeper("alice", 10*time.Millisecond)
	k.Start()
	defer k.Stop()

	path := filepath.Join(presence.Dir(svc.rt.Root()), "alice.json")
	waitFor(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})
	first, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	waitFor(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.ModTime().After(first.ModTime())
	})
}

func TestKeeperStopLeavesFile(t *testing.T) {
	svc := newServiceForTest(t)
	k := svc.NewKeeper("alice", 10*time.Millisecond)
	k.Start()
	path := filepath.Join(presence.Dir(svc.rt.Root()), "alice.json")
	waitFor(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})
	k.Stop()
	k.Stop() // idempotent
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stop should not remove the presence file: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
