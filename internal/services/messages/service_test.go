package msgsvc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	cfgpkg "github.com/filedrop-io/courier/internal/config"
	"github.com/filedrop-io/courier/internal/runtime"
	"github.com/filedrop-io/courier/internal/spool"
	"github.com/filedrop-io/courier/internal/tailer"
)

func newServiceForTest(t *testing.T) (*Service, *runtime.Runtime) {
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
	return New(rt), rt
}

func TestPostEnsuresRoom(t *testing.T) {
	svc, _ := newServiceForTest(t)
	rec, err := svc.Post(context.Background(), "general", "alice", "hello", "", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if rec.Room != "general" || rec.From != "alice" || rec.Text != "hello" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestPostValidation(t *testing.T) {
	svc, _ := newServiceForTest(t)
	if _, err := svc.Post(context.Background(), "general", "alice", "   ", "", nil); !errors.Is(err, spool.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestSnapshotReturnsNewest(t *testing.T) {
	svc, _ := newServiceForTest(t)
	for _, text := range []string{"one", "two", "three"} {
		if _, err := svc.Post(context.Background(), "general", "alice", text, "", nil); err != nil {
			t.Fatalf("post %s: %v", text, err)
		}
	}
	ev, err := svc.Snapshot(context.Background(), "general", 2, "")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if ev.Kind != tailer.Reset || len(ev.Records) != 2 {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Records[0].Text != "two" || ev.Records[1].Text != "three" {
		t.Fatalf("wrong window: %q, %q", ev.Records[0].Text, ev.Records[1].Text)
	}
	if ev.Cursor == "" {
		t.Fatalf("snapshot should carry a resumable cursor")
	}
}

func TestSnapshotCELFilter(t *testing.T) {
	svc, _ := newServiceForTest(t)
	if _, err := svc.Post(context.Background(), "general", "alice", "keep me", "", nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.Post(context.Background(), "general", "bob", "drop me", "", nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	ev, err := svc.Snapshot(context.Background(), "general", 10, `from == "alice"`)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(ev.Records) != 1 || ev.Records[0].From != "alice" {
		t.Fatalf("filtered = %+v", ev.Records)
	}
	if len(ev.Names) != len(ev.Records) {
		t.Fatalf("names out of step with records")
	}
}

func TestSnapshotBadFilter(t *testing.T) {
	svc, _ := newServiceForTest(t)
	if _, err := svc.Snapshot(context.Background(), "general", 10, `from ==`); err == nil {
		t.Fatalf("expected compile error for bad filter")
	}
}

func TestCELFilterVars(t *testing.T) {
	svc, _ := newServiceForTest(t)
	rec, err := svc.Post(context.Background(), "general", "alice", "ping", "abc123", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	cases := []struct {
		expr string
		want bool
	}{
		{`room == "general"`, true},
		{`text.contains("ping")`, true},
		{`reply_to == "abc123"`, true},
		{`attachments == 0`, true},
		{`json.type == "msg"`, true},
		{`ts_ms > 0 && ts_ms <= now_ms`, true},
		{`from == "bob"`, false},
	}
	for _, tc := range cases {
		f, err := newCELFilter(tc.expr)
		if err != nil {
			t.Fatalf("compile %q: %v", tc.expr, err)
		}
		if got := f.Eval(rec); got != tc.want {
			t.Fatalf("Eval(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestSessionDeliversAppends(t *testing.T) {
	svc, _ := newServiceForTest(t)
	if _, err := svc.Post(context.Background(), "general", "alice", "before", "", nil); err != nil {
		t.Fatalf("post: %v", err)
	}

	var mu sync.Mutex
	var got []tailer.Event
	sess, err := svc.NewSession(SessionOptions{
		Room:     "general",
		Interval: 10 * time.Millisecond,
		Handler: func(ev tailer.Event) {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	sess.Start()
	defer sess.Stop()

	// First delivery is the reset snapshot.
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 1
	})
	if _, err := svc.Post(context.Background(), "general", "bob", "after", "", nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 2
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0].Kind != tailer.Reset || got[0].Records[0].Text != "before" {
		t.Fatalf("first event = %+v", got[0])
	}
	if got[1].Kind != tailer.Append || got[1].Records[0].Text != "after" {
		t.Fatalf("second event = %+v", got[1])
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	svc, _ := newServiceForTest(t)
	sess, err := svc.NewSession(SessionOptions{
		Room:     "general",
		Interval: 10 * time.Millisecond,
		Handler:  func(tailer.Event) {},
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	sess.Start()
	sess.Stop()
	sess.Stop()
}

func TestSessionCursorSurvivesStop(t *testing.T) {
	svc, _ := newServiceForTest(t)
	if _, err := svc.Post(context.Background(), "general", "alice", "mark", "", nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	delivered := make(chan struct{}, 8)
	sess, err := svc.NewSession(SessionOptions{
		Room:     "general",
		Interval: 10 * time.Millisecond,
		Handler:  func(tailer.Event) { delivered <- struct{}{} },
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	sess.Start()
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatalf("no delivery before deadline")
	}
	sess.Stop()
	cursor := sess.Cursor()
	if cursor == "" {
		t.Fatalf("expected a cursor after first delivery")
	}

	// Resume: a new session from the cursor sees only newer records.
	if _, err := svc.Post(context.Background(), "general", "bob", "later", "", nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	var mu sync.Mutex
	var texts []string
	resumed, err := svc.NewSession(SessionOptions{
		Room:     "general",
		Interval: 10 * time.Millisecond,
		Cursor:   cursor,
		Handler: func(ev tailer.Event) {
			mu.Lock()
			for _, r := range ev.Records {
				texts = append(texts, r.Text)
			}
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("resume session: %v", err)
	}
	resumed.Start()
	defer resumed.Stop()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(texts) >= 1
	})
	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 1 || texts[0] != "later" {
		t.Fatalf("resumed delivery = %v, want only the newer record", texts)
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
