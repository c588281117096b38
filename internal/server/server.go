// Package server exposes the coordinator over JSON-RPC 2.0, on a plain
// TCP socket for the CLI and over a websocket endpoint for UIs. Both
// transports share one method set and one push-notification fanout.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/remindd/remindd/internal/coordinator"
	"github.com/remindd/remindd/pkg/logger"
	"github.com/remindd/remindd/pkg/remindlib"
)

// Opts configures New.
type Opts struct {
	// Addr is the TCP address for line-delimited JSON-RPC. Empty disables
	// the TCP transport.
	Addr string
	// HTTPAddr is the address of the websocket endpoint (/events). Empty
	// disables it.
	HTTPAddr string
	// Version is reported by the version method.
	Version string
	// Logger defaults to a nop logger.
	Logger logger.Logger
}

// Server accepts client connections and serves the RPC surface.
type Server struct {
	coord        *coordinator.Coordinator
	notifier     *RPCNotifier
	log          logger.Logger
	buildVersion string

	addr     string
	httpAddr string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
}

// New creates a server; Start brings the transports up.
func New(coord *coordinator.Coordinator, notifier *RPCNotifier, opts *Opts) *Server {
	if opts == nil {
		opts = &Opts{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		coord:        coord,
		notifier:     notifier,
		log:          log,
		buildVersion: opts.Version,
		addr:         opts.Addr,
		httpAddr:     opts.HTTPAddr,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Notifier returns the push fanout so the daemon can feed it events.
func (s *Server) Notifier() *RPCNotifier {
	return s.notifier
}

// Start brings up the configured transports. It returns once both are
// listening; serving continues in the background until Close.
func (s *Server) Start() error {
	if s.addr != "" {
		l, err := net.Listen("tcp", s.addr)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.listener = l
		s.mu.Unlock()
		s.log.Info("rpc listening on %s", l.Addr())
		s.wg.Add(1)
		go s.acceptLoop(l)
	}
	if s.httpAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/events", s.handleWS)
		srv := &http.Server{Addr: s.httpAddr, Handler: mux}
		s.mu.Lock()
		s.httpSrv = srv
		s.mu.Unlock()
		s.log.Info("events endpoint on ws://%s/events", s.httpAddr)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("http server: %v", err)
			}
		}()
	}
	return nil
}

// Addr returns the bound TCP address, useful when Addr was ":0".
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(l net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			s.log.Error("accept: %v", err)
			return
		}
		s.wg.Add(1)
		remindlib.SafeGo(s.log, "rpc conn", func() {
			defer s.wg.Done()
			s.serveChannel(channel.Line(conn, conn))
			conn.Close()
		})
	}
}

// handleWS upgrades to a websocket and serves the same RPC surface on it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		s.log.Warning("ws accept: %v", err)
		return
	}
	ch := &wsChannel{conn: conn, ctx: r.Context()}
	s.serveChannel(ch)
}

// serveChannel runs one jrpc2 server for the lifetime of a connection,
// keeping it registered for pushes while it lives.
func (s *Server) serveChannel(ch channel.Channel) {
	srv := jrpc2.NewServer(s.methods(), &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)
	s.notifier.Register(srv)
	defer s.notifier.Unregister(srv)

	done := make(chan struct{})
	go func() {
		srv.WaitStatus()
		close(done)
	}()
	select {
	case <-done:
	case <-s.ctx.Done():
		srv.Stop()
		<-done
	}
}

// Close stops accepting, drops every live connection and waits for the
// serving goroutines to drain.
func (s *Server) Close() error {
	s.cancel()
	s.mu.Lock()
	l, h := s.listener, s.httpSrv
	s.mu.Unlock()
	var err error
	if l != nil {
		err = l.Close()
	}
	if h != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if herr := h.Shutdown(ctx); err == nil {
			err = herr
		}
	}
	s.wg.Wait()
	return err
}
