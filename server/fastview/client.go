package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Updates are flushed to the client at most this often; intervening ones are coalesced.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 500
	// The number of pings that may go unanswered before the peer is considered gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// ErrPongDeadlineExceeded is returned when the client stops answering pings.
var ErrPongDeadlineExceeded = errors.New("client disconnect, pong deadline exceeded")

// Client publishes element updates unidirectionally to a single web client.
// Updates must be idempotent: only the latest pending batch is sent each period.
type Client struct {
	updates <-chan []EleUpdate
	ws      *websock
	rootCtx context.Context
}

// NewClient upgrades the request to a websocket which will publish updates.
func NewClient(
	updates <-chan []EleUpdate,
	w http.ResponseWriter,
	r *http.Request,
) (*Client, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client{
		updates: updates,
		ws:      newWebSocket(ws),
		rootCtx: r.Context(),
	}, nil
}

// Sync publishes updates until the client disconnects, the request context ends, or
// the updates channel closes. A client disconnect returns nil.
func (cli *Client) Sync() error {
	// Any routine ending ends the session, and closing the socket unblocks the reader.
	ctx, cancel := context.WithCancel(cli.rootCtx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer cancel()
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		defer cancel()
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		defer cancel()
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		cli.ws.Close()
		return nil
	})

	err := group.Wait()
	if isClosure(err) {
		return nil
	}
	return err
}

// pingPong checks client liveness. The pong handler only runs while readMessages is reading.
func (cli *Client) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) error {
			err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if isError(err) {
				return fmt.Errorf("ping failed: %w", err)
			}
			return err
		})
}

// readMessages drains client messages so control frames are processed.
// Read errors are permanent and end the session.
func (cli *Client) readMessages(ctx context.Context) error {
	for {
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) error {
				_, _, readErr := ws.ReadMessage()
				return readErr
			})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// publish coalesces incoming batches by element id and flushes them once per period,
// so the last batch received is never dropped.
func (cli *Client) publish(ctx context.Context) error {
	pending := map[string]EleUpdate{}
	flush := channerics.NewTicker(ctx.Done(), pubResolution)

	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			if !ok {
				return nil
			}
			for _, update := range updates {
				pending[update.EleId] = update
			}
		case <-flush:
			if len(pending) == 0 {
				continue
			}
			batch := make([]EleUpdate, 0, len(pending))
			for _, update := range pending {
				batch = append(batch, update)
			}
			pending = map[string]EleUpdate{}

			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) error {
					if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
						return fmt.Errorf("failed to set deadline: %w", err)
					}
					if err := ws.WriteJSON(batch); isError(err) {
						return fmt.Errorf("publish failed: %w", err)
					} else if err != nil {
						return err
					}
					return nil
				})
			if err != nil {
				return err
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// ErrSockCongestion is returned when a read or write waits too long for its turn.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

const (
	opWait           = time.Second
	closeGracePeriod = time.Second
)

// websock allows one reader and one writer on the connection at a time.
type websock struct {
	readTurn  chan struct{}
	writeTurn chan struct{}
	ws        *websocket.Conn
}

func newWebSocket(ws *websocket.Conn) *websock {
	return &websock{
		readTurn:  make(chan struct{}, 1),
		writeTurn: make(chan struct{}, 1),
		ws:        ws,
	}
}

// Conn is for handler setup before any reads or writes.
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Close sends a close frame, then drops the connection after a grace period so the
// peer can answer it.
func (sock *websock) Close() {
	sock.writeTurn <- struct{}{}
	_ = sock.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	<-sock.writeTurn
	time.AfterFunc(closeGracePeriod, func() { sock.ws.Close() })
}

// Read runs fn once no other read is in progress. fn may block until a message arrives.
func (sock *websock) Read(ctx context.Context, fn func(*websocket.Conn) error) error {
	return sock.takeTurn(ctx, sock.readTurn, fn)
}

func (sock *websock) Write(ctx context.Context, fn func(*websocket.Conn) error) error {
	return sock.takeTurn(ctx, sock.writeTurn, fn)
}

// takeTurn returns nil without running fn if ctx ends first.
func (sock *websock) takeTurn(
	ctx context.Context,
	turn chan struct{},
	fn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case turn <- struct{}{}:
		defer func() { <-turn }()
		return fn(sock.ws)
	case <-time.After(opWait):
		return ErrSockCongestion
	}
}
