//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/internal/config"
	"github.com/remindd/remindd/internal/daemon"
	"github.com/remindd/remindd/pkg/remindcli"
)

const dialTimeout = 5 * time.Second

// freePort grabs an ephemeral port for the daemon to bind.
func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func startDaemon(t *testing.T) (addr string) {
	t.Helper()
	dir := t.TempDir()
	addr = freePort(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := fmt.Sprintf(
		"data_dir: %s\nrpc:\n  addr: %s\nhttp:\n  addr: \"\"\nnotifier: log\n",
		dir, addr,
	)
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- daemon.Run(ctx, cfg, "e2e") }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("daemon.Run: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("daemon did not shut down")
		}
	})
	return addr
}

func dial(t *testing.T, addr string) *remindcli.Client {
	t.Helper()
	deadline := time.Now().Add(dialTimeout)
	for {
		client, err := remindcli.NewClient(addr)
		if err == nil {
			t.Cleanup(func() { client.Close() })
			return client
		}
		if time.Now().After(deadline) {
			t.Fatalf("daemon never came up: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestReminderLifecycle(t *testing.T) {
	addr := startDaemon(t)
	client := dial(t, addr)

	if v, err := client.Version(); err != nil || v != "e2e" {
		t.Fatalf("Version = %q, %v", v, err)
	}

	l, err := client.CreateList("errands")
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	r, err := client.CreateReminder(&common.CreateReminderParams{
		Title:  "post office",
		ListID: l.ID,
		DueAt:  time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	listed, err := client.ListReminders(l.ID)
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != r.ID {
		t.Fatalf("listed = %+v", listed)
	}

	toggled, err := client.ToggleReminder(r.ID)
	if err != nil {
		t.Fatalf("ToggleReminder: %v", err)
	}
	if !toggled.Completed {
		t.Error("toggle not applied")
	}

	if err := client.DeleteReminder(r.ID); err != nil {
		t.Fatalf("DeleteReminder: %v", err)
	}
	if got, err := client.GetReminder(r.ID); err != nil || got != nil {
		t.Errorf("GetReminder after delete = %+v, %v", got, err)
	}
}

func TestSoundFetchOverDaemon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "9")
		w.Write([]byte("chime.ogg"))
	}))
	defer srv.Close()

	addr := startDaemon(t)
	client := dial(t, addr)

	l, err := client.CreateList("sounds")
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	r, err := client.CreateReminder(&common.CreateReminderParams{
		Title:  "with chime",
		ListID: l.ID,
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	final := make(chan common.SoundEvent, 1)
	client.OnSoundEvent(func(ev common.SoundEvent) {
		if ev.ReminderID != r.ID {
			return
		}
		if ev.State == "fetched" || ev.State == "error" {
			select {
			case final <- ev:
			default:
			}
		}
	})
	if err := client.FetchSound(r.ID, srv.URL+"/chime.ogg"); err != nil {
		t.Fatalf("FetchSound: %v", err)
	}

	select {
	case ev := <-final:
		if ev.State != "fetched" {
			t.Fatalf("fetch ended in %q: %s", ev.State, ev.Error)
		}
		body, err := os.ReadFile(ev.LocalPath)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", ev.LocalPath, err)
		}
		if string(body) != "chime.ogg" {
			t.Errorf("asset body = %q", body)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no terminal sound event")
	}
}
