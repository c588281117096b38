package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/internal/coordinator"
	"github.com/remindd/remindd/pkg/logger"
	"github.com/remindd/remindd/pkg/remindlib"
)

type nopAlarms struct{}

func (nopAlarms) Schedule(*remindlib.Reminder) error { return nil }
func (nopAlarms) Cancel(string)                      {}

type nopFetcher struct{}

func (nopFetcher) Fetch(string, string) error { return nil }
func (nopFetcher) CancelFetch(string)         {}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := remindlib.OpenStore(filepath.Join(t.TempDir(), "remind.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	coord := coordinator.New(store, nopAlarms{}, nopFetcher{}, logger.NewNopLogger())
	s := New(coord, NewRPCNotifier(logger.NewNopLogger()), &Opts{
		Addr:    "127.0.0.1:0",
		Version: "test",
	})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dialClient(t *testing.T, s *Server, opts *jrpc2.ClientOptions) *jrpc2.Client {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	cli := jrpc2.NewClient(channel.Line(conn, conn), opts)
	t.Cleanup(func() { cli.Close() })
	return cli
}

func TestVersion(t *testing.T) {
	s := newTestServer(t)
	cli := dialClient(t, s, nil)

	var res common.VersionResponse
	rsp, err := cli.Call(context.Background(), common.MethodVersion, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if err := rsp.UnmarshalResult(&res); err != nil {
		t.Fatalf("UnmarshalResult: %v", err)
	}
	if res.Version != "test" {
		t.Errorf("version = %q", res.Version)
	}
}

func TestReminderLifecycleOverRPC(t *testing.T) {
	s := newTestServer(t)
	cli := dialClient(t, s, nil)
	ctx := context.Background()

	var list remindlib.ReminderList
	rsp, err := cli.Call(ctx, common.MethodListCreate, &common.CreateListParams{Name: "work"})
	if err != nil {
		t.Fatalf("list.create: %v", err)
	}
	if err := rsp.UnmarshalResult(&list); err != nil {
		t.Fatalf("UnmarshalResult: %v", err)
	}

	var created remindlib.Reminder
	rsp, err = cli.Call(ctx, common.MethodReminderCreate, &common.CreateReminderParams{
		Title:  "standup",
		ListID: list.ID,
		DueAt:  time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("reminder.create: %v", err)
	}
	if err := rsp.UnmarshalResult(&created); err != nil {
		t.Fatalf("UnmarshalResult: %v", err)
	}
	if created.ID == "" || created.Title != "standup" {
		t.Fatalf("created = %+v", created)
	}

	var listed common.ListRemindersResponse
	rsp, err = cli.Call(ctx, common.MethodReminderList, &common.ListRemindersParams{ListID: list.ID})
	if err != nil {
		t.Fatalf("reminder.list: %v", err)
	}
	if err := rsp.UnmarshalResult(&listed); err != nil {
		t.Fatalf("UnmarshalResult: %v", err)
	}
	if len(listed.Reminders) != 1 || listed.Reminders[0].ID != created.ID {
		t.Errorf("listed = %+v", listed.Reminders)
	}

	var toggled remindlib.Reminder
	rsp, err = cli.Call(ctx, common.MethodReminderToggle, &common.ReminderIDParams{ReminderID: created.ID})
	if err != nil {
		t.Fatalf("reminder.toggle: %v", err)
	}
	if err := rsp.UnmarshalResult(&toggled); err != nil {
		t.Fatalf("UnmarshalResult: %v", err)
	}
	if !toggled.Completed {
		t.Error("toggle not applied")
	}

	if _, err = cli.Call(ctx, common.MethodReminderDelete, &common.ReminderIDParams{ReminderID: created.ID}); err != nil {
		t.Fatalf("reminder.delete: %v", err)
	}

	// A deleted id reads back as null, not an error.
	rsp, err = cli.Call(ctx, common.MethodReminderGet, &common.ReminderIDParams{ReminderID: created.ID})
	if err != nil {
		t.Fatalf("reminder.get: %v", err)
	}
	if rsp.ResultString() != "null" {
		t.Errorf("get after delete = %s, want null", rsp.ResultString())
	}
}

func TestValidationErrorCode(t *testing.T) {
	s := newTestServer(t)
	cli := dialClient(t, s, nil)

	_, err := cli.Call(context.Background(), common.MethodReminderCreate, &common.CreateReminderParams{
		Title: "   ", ListID: "l",
	})
	rpcErr, ok := err.(*jrpc2.Error)
	if !ok {
		t.Fatalf("err = %v, want *jrpc2.Error", err)
	}
	if rpcErr.Code != codeInvalidParams {
		t.Errorf("code = %d, want %d", rpcErr.Code, codeInvalidParams)
	}
}

func TestNotFoundErrorCode(t *testing.T) {
	s := newTestServer(t)
	cli := dialClient(t, s, nil)

	_, err := cli.Call(context.Background(), common.MethodReminderToggle, &common.ReminderIDParams{ReminderID: "missing"})
	rpcErr, ok := err.(*jrpc2.Error)
	if !ok {
		t.Fatalf("err = %v, want *jrpc2.Error", err)
	}
	if rpcErr.Code != codeNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, codeNotFound)
	}
}

func TestPushNotifications(t *testing.T) {
	s := newTestServer(t)

	got := make(chan jrpc2.Request, 1)
	dialClient(t, s, &jrpc2.ClientOptions{
		OnNotify: func(req *jrpc2.Request) { got <- *req },
	})

	// Give the connection time to register with the fanout.
	deadline := time.Now().Add(2 * time.Second)
	for s.Notifier().Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Notifier().Broadcast(common.EventSound, &common.SoundEvent{
		ReminderID: "rem-1", State: "fetching", Progress: 40,
	})

	select {
	case req := <-got:
		if req.Method() != common.EventSound {
			t.Errorf("method = %q", req.Method())
		}
		var ev common.SoundEvent
		if err := req.UnmarshalParams(&ev); err != nil {
			t.Fatalf("UnmarshalParams: %v", err)
		}
		if ev.ReminderID != "rem-1" || ev.Progress != 40 {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no push received")
	}
}
