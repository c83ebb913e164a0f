package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// websocketTransport dials a server as a client and reuses the same
// pending-map request/response correlation pattern as stdioTransport,
// since a WebSocket connection is full-duplex and can deliver responses
// out of request order just like the stdio pipe.
type websocketTransport struct {
	conn    *websocket.Conn
	pending map[uint64]chan rpcResponse
	pendMu  sync.Mutex
	writeMu sync.Mutex
	nextID  uint64

	closed    chan struct{}
	closeOnce sync.Once
}

func connectWebSocket(ctx context.Context, opts Options) (Transport, error) {
	if opts.URL == "" {
		return nil, errors.New("transport: websocket url is required")
	}
	header := http.Header{}
	for k, v := range opts.Headers {
		header.Set(k, v)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if opts.ConnectTimeout > 0 {
		dialer.HandshakeTimeout = opts.ConnectTimeout
	}
	conn, _, err := dialer.DialContext(ctx, opts.URL, header)
	if err != nil {
		return nil, err
	}
	t := &websocketTransport{
		conn:    conn,
		pending: make(map[uint64]chan rpcResponse),
		closed:  make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func (t *websocketTransport) Call(ctx context.Context, method string, params any, result any) error {
	id := t.allocID()
	ch := make(chan rpcResponse, 1)
	t.pendMu.Lock()
	t.pending[id] = ch
	t.pendMu.Unlock()

	req := rpcRequest{JSONRPC: "2.0", Method: method, ID: id, Params: params}
	t.writeMu.Lock()
	err := t.conn.WriteJSON(req)
	t.writeMu.Unlock()
	if err != nil {
		t.removePending(id)
		return err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && resp.Result != nil {
			return json.Unmarshal(resp.Result, result)
		}
		return nil
	case <-ctx.Done():
		t.removePending(id)
		return ctx.Err()
	case <-t.closed:
		return ErrClosed
	}
}

func (t *websocketTransport) readLoop() {
	for {
		var resp rpcResponse
		if err := t.conn.ReadJSON(&resp); err != nil {
			t.failAllPending(err)
			return
		}
		t.pendMu.Lock()
		ch, ok := t.pending[resp.ID]
		if ok {
			delete(t.pending, resp.ID)
		}
		t.pendMu.Unlock()
		if ok {
			ch <- resp
			close(ch)
		}
	}
}

func (t *websocketTransport) failAllPending(err error) {
	t.pendMu.Lock()
	for id, ch := range t.pending {
		delete(t.pending, id)
		ch <- rpcResponse{Error: &RPCError{Code: -32000, Message: err.Error()}}
		close(ch)
	}
	t.pendMu.Unlock()
}

func (t *websocketTransport) removePending(id uint64) {
	t.pendMu.Lock()
	delete(t.pending, id)
	t.pendMu.Unlock()
}

func (t *websocketTransport) allocID() uint64 {
	t.pendMu.Lock()
	defer t.pendMu.Unlock()
	t.nextID++
	return t.nextID
}

func (t *websocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		deadline := time.Now().Add(writeWait)
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = t.conn.Close()
	})
	return err
}

const writeWait = 5 * time.Second
