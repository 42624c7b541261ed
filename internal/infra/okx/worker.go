// Package okx maintains the streaming L2 order-book subscription. It is the
// sole writer of the book store: snapshots and updates are applied here and
// nowhere else.
package okx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/book"
	"github.com/Mehak-mstack26/trade-simulator/internal/domain"
	"github.com/Mehak-mstack26/trade-simulator/internal/infra"
	"github.com/Mehak-mstack26/trade-simulator/internal/latency"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
)

const (
	baseDelay        = 1 * time.Second
	maxDelay         = 60 * time.Second
	handshakeTimeout = 10 * time.Second
	pingInterval     = 30 * time.Second
	readTimeout      = 60 * time.Second

	// maxResyncFailures bounds consecutive failed resynchronizations before
	// the worker reports itself degraded. Retries continue regardless.
	maxResyncFailures = 5
)

// State is the connection lifecycle position.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSynchronizing
	StateStreaming
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSynchronizing:
		return "synchronizing"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// errResync forces a reconnect so the feed re-delivers a full snapshot.
var errResync = errors.New("resync required")

// Worker owns one logical subscription for one symbol.
type Worker struct {
	wsURL  string
	symbol string
	store  *book.Store
	rec    *latency.Recorder

	conn       *websocket.Conn
	pingCancel context.CancelFunc
	mu         sync.RWMutex
	writeMu    sync.Mutex

	state          atomic.Int32
	resyncFailures atomic.Int32
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// NewWorker creates a feed worker writing into store and recording per-tick
// processing durations into rec.
func NewWorker(wsURL, symbol string, store *book.Store, rec *latency.Recorder) *Worker {
	return &Worker{
		wsURL:  wsURL,
		symbol: symbol,
		store:  store,
		rec:    rec,
	}
}

// Connect starts the connection loop in the background.
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

// Disconnect stops the worker and waits for the loop to exit.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	w.setState(StateDisconnected)
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Degraded reports whether resynchronization has failed repeatedly. The
// request handler maps this to an unavailable status; the worker itself
// keeps retrying.
func (w *Worker) Degraded() bool {
	return w.resyncFailures.Load() > maxResyncFailures
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()

	retry := &backoff.Backoff{Min: baseDelay, Max: maxDelay, Jitter: true}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.setState(StateConnecting)
		if err := w.connect(ctx); err != nil {
			slog.Warn("L2 feed connection failed",
				slog.Any("error", err),
				slog.String("symbol", w.symbol))
			w.setState(StateReconnecting)
			infra.FeedReconnects.Inc()
			select {
			case <-ctx.Done():
				return
			case <-time.After(retry.Duration()):
				continue
			}
		}

		retry.Reset()
		err := w.readLoop(ctx)
		w.closeConnection()
		if ctx.Err() != nil {
			return
		}
		slog.Warn("L2 feed disconnected",
			slog.Any("error", err),
			slog.String("symbol", w.symbol))
		w.setState(StateReconnecting)
		infra.FeedReconnects.Inc()
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry.Duration()):
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return domain.NewFeedError("dial", err)
	}

	// The ping loop lives exactly as long as this connection; closeConnection
	// cancels it so loops never pile up across resyncs.
	pingCtx, pingCancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.conn = conn
	w.pingCancel = pingCancel
	w.mu.Unlock()

	w.setState(StateSynchronizing)
	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return domain.NewFeedError("subscribe", err)
	}

	w.wg.Add(1)
	go w.pingLoop(pingCtx)
	slog.Info("L2 feed connected", slog.String("symbol", w.symbol))
	return nil
}

func (w *Worker) subscribe() error {
	req := subscribeRequest{Op: "subscribe", Channel: "l2-orderbook", Symbol: w.symbol}
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) pingLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.threadSafeWrite(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return fmt.Errorf("no conn")
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return domain.NewFeedError("read", err)
		}
		if err := w.handleMessage(msg); err != nil {
			return err
		}
	}
}

// handleMessage applies one frame to the store and records the processing
// duration. Malformed frames are dropped, not fatal. A sequence gap or a
// crossed book invalidates the store and returns errResync so the loop
// reconnects for a fresh snapshot.
func (w *Worker) handleMessage(msg []byte) error {
	start := time.Now()
	defer func() {
		w.rec.Record(latency.KindTick, time.Since(start))
		infra.TicksProcessed.Inc()
	}()

	var m wireMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		slog.Error("Malformed feed frame dropped", slog.Any("error", err))
		return nil
	}

	switch m.Type {
	case msgTypeSnapshot:
		return w.applySnapshot(&m)
	case msgTypeUpdate:
		return w.applyUpdate(&m)
	default:
		// Pong/info frames carry no book content.
		return nil
	}
}

func (w *Worker) applySnapshot(m *wireMessage) error {
	bids, err := parseLevels(m.Bids)
	if err != nil {
		slog.Error("Malformed snapshot dropped", slog.Any("error", err))
		return nil
	}
	asks, err := parseLevels(m.Asks)
	if err != nil {
		slog.Error("Malformed snapshot dropped", slog.Any("error", err))
		return nil
	}

	if err := w.store.ReplaceAll(m.Seq, time.Now(), bids, asks); err != nil {
		w.store.MarkUnsynced()
		infra.BookSynced.Set(0)
		w.resyncFailures.Add(1)
		slog.Error("Snapshot rejected, forcing resync",
			slog.Any("error", err),
			slog.Uint64("seq", m.Seq))
		return errResync
	}

	w.resyncFailures.Store(0)
	w.setState(StateStreaming)
	infra.BookSynced.Set(1)
	slog.Info("Book synchronized",
		slog.String("symbol", w.symbol),
		slog.Uint64("seq", m.Seq))
	return nil
}

func (w *Worker) applyUpdate(m *wireMessage) error {
	if w.State() != StateStreaming {
		// Update arrived before the snapshot: the book has no base to
		// apply it to, ask for a fresh one. Counts as a failed resync so
		// a feed that reconnects but never sends a snapshot reports
		// degraded eventually.
		w.resyncFailures.Add(1)
		return errResync
	}

	bids, err := parseLevels(m.Bids)
	if err != nil {
		slog.Error("Malformed update dropped", slog.Any("error", err))
		return nil
	}
	asks, err := parseLevels(m.Asks)
	if err != nil {
		slog.Error("Malformed update dropped", slog.Any("error", err))
		return nil
	}

	err = w.store.ApplyUpdate(domain.BookUpdate{
		Seq:       m.Seq,
		Timestamp: time.Now(),
		Bids:      bids,
		Asks:      asks,
	})
	if err != nil {
		w.store.MarkUnsynced()
		infra.BookSynced.Set(0)
		w.resyncFailures.Add(1)
		w.setState(StateSynchronizing)
		slog.Warn("Book invalidated, forcing resync",
			slog.Any("error", err),
			slog.Uint64("seq", m.Seq))
		return errResync
	}
	return nil
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pingCancel != nil {
		w.pingCancel()
		w.pingCancel = nil
	}
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}
