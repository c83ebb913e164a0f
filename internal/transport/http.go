package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// httpTransport issues one JSON-RPC request per HTTP POST: no persistent
// connection state beyond the client and an atomic request-ID counter,
// since HTTP already gives request/response pairing for free.
type httpTransport struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	id       uint64
}

func connectHTTP(_ context.Context, opts Options) (Transport, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("transport: http url is required")
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpTransport{
		endpoint: opts.URL,
		headers:  opts.Headers,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (t *httpTransport) Call(ctx context.Context, method string, params any, result any) error {
	id := atomic.AddUint64(&t.id, 1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, ID: id, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transport: http status %d", resp.StatusCode)
	}
	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && rpcResp.Result != nil {
		return json.Unmarshal(rpcResp.Result, result)
	}
	return nil
}

// Close is a no-op: each Call opens and closes its own HTTP round trip, so
// there is no persistent connection to tear down.
func (t *httpTransport) Close() error { return nil }
