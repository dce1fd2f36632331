package transcription

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type SessionState int32

const (
	StateIdle SessionState = iota
	StateConnecting
	StateConnected
	StateFinalizing
	StateClosed
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	handshakeTimeout = 5 * time.Second
	// connectWaitTimeout bounds how long Stop waits for a still-pending
	// connect before proceeding with whatever state exists.
	connectWaitTimeout = 3 * time.Second
	closeHandshakeWait = 100 * time.Millisecond
	readerJoinWait     = 50 * time.Millisecond
)

var (
	finalizeFrame    = []byte(`{"type":"Finalize"}`)
	closeStreamFrame = []byte(`{"type":"CloseStream"}`)
)

// Client owns one streaming session: the background connect, the receive
// loop, the outbound send path and the two-phase shutdown. One utterance,
// one Client; it is not reusable after Stop.
type Client struct {
	cfg  Config
	opts SessionOptions
	cb   Callbacks
	log  *slog.Logger

	relay *AudioRelay
	acc   *Accumulator

	// writeMu serializes every socket write and guards conn. The relay is
	// always drained under this mutex before a live chunk goes out, which
	// is what keeps enqueue order equal to wire order across the
	// buffered/live boundary.
	writeMu sync.Mutex
	conn    *websocket.Conn

	state        atomic.Int32
	finalCount   atomic.Int64
	utteranceEnd atomic.Bool
	speechFinal  atomic.Bool
	lastFinalAt  atomic.Int64
	socketOpen   atomic.Bool

	connectDone chan struct{}
	readerDone  chan struct{}
	stopOnce    sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// Start opens a streaming session and returns immediately. The connection
// is established in the background; audio sent before the handshake
// completes is buffered and flushed, in order, once the socket is up.
func Start(cfg Config, opts SessionOptions, cb Callbacks, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		cfg:         cfg,
		opts:        normalizeOptions(opts),
		cb:          cb,
		log:         log,
		relay:       NewAudioRelay(),
		acc:         NewAccumulator(),
		connectDone: make(chan struct{}),
		readerDone:  make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	c.acc.Reset()
	c.state.Store(int32(StateConnecting))

	go c.connect()

	return c
}

func (c *Client) State() SessionState {
	return SessionState(c.state.Load())
}

func (c *Client) connect() {
	defer close(c.connectDone)

	start := time.Now()
	target := BuildSessionURL(c.cfg, c.opts)

	header := http.Header{}
	header.Set("Authorization", "Token "+c.cfg.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(c.ctx, target, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		// Stop may have given up on the handshake already; never move a
		// closed session back to failed.
		if c.state.CompareAndSwap(int32(StateConnecting), int32(StateFailed)) {
			c.log.Error("stream connect failed", "elapsed", time.Since(start), "error", err)
			if c.cb.OnError != nil {
				c.cb.OnError(err)
			}
		}
		return
	}

	c.writeMu.Lock()
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected)) {
		// Stop gave up on us while the handshake was in flight.
		c.writeMu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.socketOpen.Store(true)
	buffered := c.relay.DrainAll()
	for _, chunk := range buffered {
		c.writeBinaryLocked(chunk)
	}
	c.writeMu.Unlock()

	c.log.Debug("stream connected", "elapsed", time.Since(start), "flushed_chunks", len(buffered))

	go c.readLoop(conn)
}

// SendAudio hands one chunk to the session. While connected the chunk goes
// straight out (after any still-buffered chunks); otherwise it is queued.
// It never blocks on network state and never fails the caller.
func (c *Client) SendAudio(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if c.State() != StateConnected {
		c.relay.Enqueue(chunk)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		c.relay.Enqueue(chunk)
		return
	}
	for _, buffered := range c.relay.DrainAll() {
		c.writeBinaryLocked(buffered)
	}
	c.writeBinaryLocked(chunk)
}

func (c *Client) writeBinaryLocked(chunk []byte) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		// A single dropped chunk does not abort the session.
		c.log.Warn("audio chunk send failed", "bytes", len(chunk), "error", err)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer close(c.readerDone)
	defer c.socketOpen.Store(false)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			switch c.State() {
			case StateFinalizing, StateClosed:
				c.log.Debug("receive loop ended", "error", err)
			default:
				c.log.Warn("receive loop ended unexpectedly", "error", err)
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	evt := ParseFrame(data)
	switch evt.Kind {
	case EventPartial:
		if evt.Text != "" && c.cb.OnTranscript != nil {
			c.cb.OnTranscript(evt.Text, false)
		}
	case EventFinal:
		if evt.SpeechFinal {
			c.speechFinal.Store(true)
		}
		if strings.TrimSpace(evt.Text) == "" {
			return
		}
		c.acc.Append(evt.Text)
		c.finalCount.Add(1)
		c.lastFinalAt.Store(time.Now().UnixNano())
		if c.cb.OnTranscript != nil {
			c.cb.OnTranscript(evt.Text, true)
		}
	case EventUtteranceEnd:
		c.utteranceEnd.Store(true)
		if c.cb.OnUtteranceEnd != nil {
			c.cb.OnUtteranceEnd()
		}
	case EventError:
		c.log.Error("service reported error", "message", evt.Message)
		if c.cb.OnError != nil {
			c.cb.OnError(errors.New(evt.Message))
		}
	case EventMetadata:
		c.log.Debug("metadata frame received")
	default:
		c.log.Debug("unrecognized frame discarded", "frame", string(data))
	}
}

// Stop finalizes the stream and returns the accumulated transcript. Every
// wait in the shutdown path is bounded; a degraded session yields a short
// or empty transcript, never an error and never a hang.
func (c *Client) Stop() string {
	c.stopOnce.Do(c.shutdown)
	return c.acc.Collect()
}

func (c *Client) shutdown() {
	defer c.cancel()

	if c.State() == StateConnecting {
		select {
		case <-c.connectDone:
		case <-time.After(connectWaitTimeout):
			c.log.Warn("connect did not resolve before stop", "waited", connectWaitTimeout)
		}
	}

	if c.State() != StateConnected {
		// Connect failed or never resolved. Nothing is on the wire;
		// return whatever fragments exist (normally none). A session
		// that already failed keeps its terminal state.
		c.state.CompareAndSwap(int32(StateConnecting), int32(StateClosed))
		return
	}

	c.state.Store(int32(StateFinalizing))
	baseline := int(c.finalCount.Load())

	c.writeMu.Lock()
	for _, buffered := range c.relay.DrainAll() {
		c.writeBinaryLocked(buffered)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, finalizeFrame); err != nil {
		c.log.Warn("finalize frame send failed", "error", err)
	}
	c.writeMu.Unlock()

	verdict := awaitCompletion(c, baseline, c.cfg.Wait)
	c.log.Info("finalize wait complete",
		"reason", verdict.Reason,
		"waited", verdict.Waited,
		"fragments", c.finalCount.Load(),
		"utterance_end", c.utteranceEnd.Load(),
		"speech_final", c.speechFinal.Load())

	c.writeMu.Lock()
	if err := c.conn.WriteMessage(websocket.TextMessage, closeStreamFrame); err != nil {
		c.log.Debug("close frame send failed", "error", err)
	}
	deadline := time.Now().Add(closeHandshakeWait)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = c.conn.Close()
	c.writeMu.Unlock()

	select {
	case <-c.readerDone:
	case <-time.After(readerJoinWait):
		c.log.Debug("receive loop did not exit within grace period")
	}

	c.state.Store(int32(StateClosed))
}

// streamProgress implementation for the completion waiter.

func (c *Client) FinalCount() int {
	return int(c.finalCount.Load())
}

func (c *Client) UtteranceEnded() bool {
	return c.utteranceEnd.Load()
}

func (c *Client) SocketOpen() bool {
	return c.socketOpen.Load()
}
