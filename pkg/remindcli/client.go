// Package remindcli is the client library for the remindd daemon. It
// wraps the JSON-RPC connection with typed methods and event callbacks so
// commands never touch the wire format.
package remindcli

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/pkg/remindlib"
)

// DefaultAddr is where a locally running daemon listens.
const DefaultAddr = "127.0.0.1:4600"

// ReminderEventFunc observes store change pushes.
type ReminderEventFunc func(ev remindlib.ChangeEvent)

// SoundEventFunc observes sound fetch pushes.
type SoundEventFunc func(ev common.SoundEvent)

// Client is a live connection to the daemon.
type Client struct {
	conn net.Conn
	cli  *jrpc2.Client

	mu         sync.RWMutex
	onReminder ReminderEventFunc
	onSound    SoundEventFunc
}

// NewClient dials the daemon at addr (DefaultAddr when empty).
func NewClient(addr string) (*Client, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %w", err)
	}
	c := &Client{conn: conn}
	c.cli = jrpc2.NewClient(channel.Line(conn, conn), &jrpc2.ClientOptions{
		OnNotify: c.dispatch,
	})
	return c, nil
}

// OnReminderEvent registers the callback for reminder change pushes.
func (c *Client) OnReminderEvent(fn ReminderEventFunc) {
	c.mu.Lock()
	c.onReminder = fn
	c.mu.Unlock()
}

// OnSoundEvent registers the callback for sound fetch pushes.
func (c *Client) OnSoundEvent(fn SoundEventFunc) {
	c.mu.Lock()
	c.onSound = fn
	c.mu.Unlock()
}

func (c *Client) dispatch(req *jrpc2.Request) {
	switch req.Method() {
	case common.EventReminder:
		c.mu.RLock()
		fn := c.onReminder
		c.mu.RUnlock()
		if fn == nil {
			return
		}
		var ev remindlib.ChangeEvent
		if err := req.UnmarshalParams(&ev); err == nil {
			fn(ev)
		}
	case common.EventSound:
		c.mu.RLock()
		fn := c.onSound
		c.mu.RUnlock()
		if fn == nil {
			return
		}
		var ev common.SoundEvent
		if err := req.UnmarshalParams(&ev); err == nil {
			fn(ev)
		}
	}
}

// call invokes a method and decodes the result into out (skipped when
// out is nil).
func (c *Client) call(method string, params, out any) error {
	rsp, err := c.cli.Call(context.Background(), method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return rsp.UnmarshalResult(out)
}

// Close tears the connection down.
func (c *Client) Close() error {
	c.cli.Close()
	return c.conn.Close()
}
