// Package presentation pushes scheduler snapshots to websocket clients.
// The scheduler is never blocked by a slow viewer: each connection owns a
// small send queue and frames that do not fit are dropped.
package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"nhooyr.io/websocket"
)

// Broadcaster polls a SnapshotSource and fans the JSON frame out to every
// connected client.
type Broadcaster struct {
	componentMetadata types.ComponentMetadata
	source            types.SnapshotSource
	interval          time.Duration
	endpoint          string
	sendBuffer        int
	writeTimeout      time.Duration
	maxConnections    int
	originPatterns    []string

	connsMu sync.Mutex
	conns   map[*client]struct{}

	frames  uint64
	dropped uint64
	started int32

	serverMu sync.Mutex
	server   *http.Server

	loggers     []types.Logger
	loggersLock sync.Mutex
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	mu        sync.Mutex
	closed    bool
	goingAway bool
}

// NewBroadcaster returns a broadcaster for source.
func NewBroadcaster(source types.SnapshotSource, options ...types.Option[*Broadcaster]) *Broadcaster {
	b := &Broadcaster{
		componentMetadata: types.ComponentMetadata{Type: "BROADCASTER"},
		source:            source,
		interval:          100 * time.Millisecond,
		endpoint:          "/ws",
		sendBuffer:        8,
		writeTimeout:      2 * time.Second,
		conns:             make(map[*client]struct{}),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Handler upgrades GET requests on any path to a snapshot stream.
func (b *Broadcaster) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if b.maxConnections > 0 && b.ConnectionCount() >= b.maxConnections {
			http.Error(w, "Too Many Connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: b.originPatterns})
		if err != nil {
			b.logKV(types.ErrorLevel, "Accept: error",
				"event", "AcceptError",
				"error", err,
			)
			return
		}

		c := &client{conn: conn, send: make(chan []byte, b.sendBuffer)}
		b.addClient(c)
		b.logKV(types.InfoLevel, "Connection accepted",
			"event", "ConnectionAccepted",
			"remote", r.RemoteAddr,
		)

		// Send the current state immediately so a viewer does not wait a tick.
		if frame, err := b.encode(); err == nil {
			c.enqueue(frame)
		}

		ctx := conn.CloseRead(r.Context())
		b.writeLoop(ctx, c)
		b.dropClient(c)
		c.shutdown()
		_ = conn.Close(c.status(), "bye")
		b.logKV(types.InfoLevel, "Connection closed",
			"event", "ConnectionClosed",
			"remote", r.RemoteAddr,
		)
	})
}

// Run polls the source until ctx is done. It returns ctx.Err().
func (b *Broadcaster) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&b.started, 0, 1) {
		return errors.New("broadcaster already running")
	}
	defer atomic.StoreInt32(&b.started, 0)

	tick := time.NewTicker(b.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return ctx.Err()
		case <-tick.C:
			b.Broadcast()
		}
	}
}

// Broadcast sends one snapshot frame to every client.
func (b *Broadcaster) Broadcast() {
	clients := b.snapshotClients()
	if len(clients) == 0 {
		return
	}
	frame, err := b.encode()
	if err != nil {
		b.logKV(types.WarnLevel, "Snapshot not encodable",
			"event", "Encode",
			"result", "FAILURE",
			"error", err,
		)
		return
	}
	atomic.AddUint64(&b.frames, 1)
	for _, c := range clients {
		if !c.enqueue(frame) {
			atomic.AddUint64(&b.dropped, 1)
		}
	}
}

// Serve listens on addr, serving Handler at the configured endpoint and
// running the poll loop, until ctx is done.
func (b *Broadcaster) Serve(ctx context.Context, addr string) error {
	b.serverMu.Lock()
	if b.server != nil {
		b.serverMu.Unlock()
		return fmt.Errorf("server already started")
	}
	mux := http.NewServeMux()
	mux.Handle(b.endpoint, b.Handler())
	b.server = &http.Server{
		Addr:    addr,
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	srv := b.server
	b.serverMu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		b.logKV(types.InfoLevel, "Serve: starting snapshot server",
			"event", "ServeStart",
			"address", addr,
			"endpoint", b.endpoint,
		)
		errCh <- srv.ListenAndServe()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = b.Run(runCtx) }()

	select {
	case <-ctx.Done():
		b.logKV(types.WarnLevel, "Serve: context canceled, shutting down",
			"event", "ServeStop",
			"result", "CANCELLED",
		)
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logKV(types.ErrorLevel, "Serve: server error",
				"event", "ServeError",
				"error", err,
			)
			return err
		}
		return nil
	}
}

// ConnectionCount returns the number of connected viewers.
func (b *Broadcaster) ConnectionCount() int {
	b.connsMu.Lock()
	defer b.connsMu.Unlock()
	return len(b.conns)
}

// Frames returns the number of frames broadcast.
func (b *Broadcaster) Frames() uint64 { return atomic.LoadUint64(&b.frames) }

// Dropped returns the number of per-client frames discarded.
func (b *Broadcaster) Dropped() uint64 { return atomic.LoadUint64(&b.dropped) }

func (b *Broadcaster) encode() ([]byte, error) {
	return json.Marshal(b.source.Snapshot())
}

func (b *Broadcaster) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, b.writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
					b.logKV(types.WarnLevel, "WriteLoop error",
						"event", "WriteLoop",
						"error", err,
					)
				}
				return
			}
		}
	}
}

func (b *Broadcaster) addClient(c *client) {
	b.connsMu.Lock()
	b.conns[c] = struct{}{}
	b.connsMu.Unlock()
}

func (b *Broadcaster) dropClient(c *client) {
	b.connsMu.Lock()
	delete(b.conns, c)
	b.connsMu.Unlock()
}

func (b *Broadcaster) snapshotClients() []*client {
	b.connsMu.Lock()
	defer b.connsMu.Unlock()
	out := make([]*client, 0, len(b.conns))
	for c := range b.conns {
		out = append(out, c)
	}
	return out
}

// closeAll ends every client's write loop. The handler goroutines close
// the sockets, so a peer slow to answer the close handshake does not hold
// up the caller.
func (b *Broadcaster) closeAll() {
	for _, c := range b.snapshotClients() {
		c.mu.Lock()
		c.goingAway = true
		c.mu.Unlock()
		c.shutdown()
	}
}

func (c *client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) status() websocket.StatusCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.goingAway {
		return websocket.StatusGoingAway
	}
	return websocket.StatusNormalClosure
}
