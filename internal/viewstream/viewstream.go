// Package viewstream is a reference live-streaming transport for draw-input (§4.7,
// §10.6): one websocket client per viewer, fed DrawFrames published by the driving loop.
// It is grounded on niceyeti-tabular/tabular/server/fastview/client.go's generic
// publish/ping-pong/read client, adapted from a generic T-typed publisher into a
// view.DrawFrame-specific one and simplified to drop the teacher's channerics ticker
// dependency in favor of a plain time.Ticker (no other wired component needs channerics).
package viewstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/traffline/drivingcore/internal/view"
)

const (
	writeWait      = 1 * time.Second
	pubResolution  = 100 * time.Millisecond
	pingResolution = 200 * time.Millisecond
	pongWait       = pingResolution * 4

	readDeadline  = time.Second
	writeDeadline = time.Second
)

// ErrPongDeadlineExceeded reports that a client stopped answering pings and is presumed
// gone.
var ErrPongDeadlineExceeded = errors.New("viewstream: client disconnect, pong deadline exceeded")

// ErrSockCongestion reports that a read or write could not acquire the socket's
// single-reader/single-writer semaphore before its deadline.
var ErrSockCongestion = errors.New("viewstream: socket operation congested")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client publishes a single viewer's stream of view.DrawFrame values over a websocket
// connection upgraded from an incoming HTTP request.
type Client struct {
	frames  <-chan view.DrawFrame
	sock    *socket
	rootCtx context.Context
}

// NewClient upgrades r to a websocket and returns a Client that will publish frames to it
// once Sync is called. frames should be fed by the driving loop's per-tick output; the
// publisher discards frames that arrive faster than pubResolution, since a DrawFrame is
// idempotent state, not an event log.
func NewClient(frames <-chan view.DrawFrame, w http.ResponseWriter, r *http.Request) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, fmt.Errorf("viewstream: upgrade: %w", err)
	}
	return &Client{
		frames:  frames,
		sock:    newSocket(conn),
		rootCtx: r.Context(),
	}, nil
}

// Sync runs the client's read, ping-pong, and publish loops until the connection fails
// or the context is cancelled. It blocks. Closing the frames channel ends only the
// publish loop; it does not by itself make Sync return.
func (c *Client) Sync() error {
	group, groupCtx := errgroup.WithContext(c.rootCtx)
	group.Go(func() error { return c.readLoop(groupCtx) })
	group.Go(func() error { return c.pingLoop(groupCtx) })
	group.Go(func() error { return c.publishLoop(groupCtx) })
	return group.Wait()
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		err := c.sock.read(ctx, func(conn *websocket.Conn) error {
			_, _, readErr := conn.ReadMessage()
			return readErr
		})
		if err != nil {
			return err
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	c.sock.conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	ticker := time.NewTicker(pingResolution)
	defer ticker.Stop()
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := c.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (c *Client) ping(ctx context.Context) error {
	return c.sock.write(ctx, func(conn *websocket.Conn) error {
		return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
	})
}

func (c *Client) publishLoop(ctx context.Context) error {
	lastSent := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-c.frames:
			if !ok {
				return nil
			}
			if time.Since(lastSent) < pubResolution {
				continue
			}
			lastSent = time.Now()
			err := c.sock.write(ctx, func(conn *websocket.Conn) error {
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return fmt.Errorf("viewstream: set write deadline: %w", err)
				}
				return conn.WriteJSON(frame)
			})
			if err != nil {
				return err
			}
		}
	}
}

// socket serializes concurrent read/write access to a single websocket.Conn, which
// permits at most one reader and one writer at a time.
type socket struct {
	readSem  chan struct{}
	writeSem chan struct{}
	conn     *websocket.Conn
}

func newSocket(conn *websocket.Conn) *socket {
	return &socket{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		conn:     conn,
	}
}

func (s *socket) read(ctx context.Context, fn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case s.readSem <- struct{}{}:
		defer func() { <-s.readSem }()
		return fn(s.conn)
	case <-time.After(readDeadline):
		return ErrSockCongestion
	}
}

func (s *socket) write(ctx context.Context, fn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case s.writeSem <- struct{}{}:
		defer func() { <-s.writeSem }()
		return fn(s.conn)
	case <-time.After(writeDeadline):
		return ErrSockCongestion
	}
}
