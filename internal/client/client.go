// Package client is the Go-side caller for a liaison endpoint: it owns one
// connection, stamps each command with a fresh id, and matches replies by
// that id. Out-of-band pushes are surfaced through a handler and never
// consume a reply slot.
package client

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/psychopy/liaison/internal/protocol"
)

// RemoteError is a structured failure reply from the liaison.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("liaison: %s: %s", e.Kind, e.Message)
}

// PushHandler receives out-of-band messages pushed by the liaison.
type PushHandler func(raw json.RawMessage)

// Options tune the connection handshake and push delivery.
type Options struct {
	Token            string
	OnPush           PushHandler
	HandshakeTimeout time.Duration
	TLSConfig        *tls.Config
}

// Client is a correlated command caller over one liaison connection. Calls
// are serialized: the liaison dispatches in arrival order, so each reply is
// read before the next command is sent.
type Client struct {
	conn   *websocket.Conn
	onPush PushHandler

	mu  sync.Mutex
	seq atomic.Uint64
}

// Dial connects to a liaison endpoint with default options.
func Dial(addr string) (*Client, error) {
	return DialWithOptions(addr, Options{})
}

// DialWithOptions connects to a liaison endpoint. addr may be a bare
// host:port or a ws:// / wss:// URL.
func DialWithOptions(addr string, opts Options) (*Client, error) {
	u := addr
	if !strings.Contains(u, "://") {
		u = "ws://" + u
	}
	timeout := opts.HandshakeTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout, TLSClientConfig: opts.TLSConfig}
	var header http.Header
	if opts.Token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + opts.Token}}
	}
	conn, _, err := dialer.Dial(u, header)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", u, err)
	}
	return &Client{conn: conn, onPush: opts.OnPush}, nil
}

// wire frame covering both reply shapes plus pushes (which have no id).
type frame struct {
	ID       string              `json:"id"`
	Tag      string              `json:"tag"`
	Response json.RawMessage     `json:"response"`
	Error    *protocol.ErrorInfo `json:"error"`
}

// Call sends one command and blocks until its reply arrives. Error replies
// come back as *RemoteError.
func (c *Client) Call(name string, args []any, kwargs map[string]any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := fmt.Sprintf("cmd_%d", c.seq.Add(1))
	env := protocol.Envelope{
		Command: protocol.Command{Name: name, Args: args, Kwargs: kwargs},
		ID:      id,
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return nil, fmt.Errorf("client: send %s: %w", name, err)
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("client: read reply for %s: %w", name, err)
		}
		var fr frame
		if err := json.Unmarshal(data, &fr); err != nil || fr.ID == "" {
			c.deliverPush(data)
			continue
		}
		if fr.ID != id {
			// stale reply from an aborted earlier call
			continue
		}
		if fr.Tag == protocol.TagError && fr.Error != nil {
			return nil, &RemoteError{Kind: fr.Error.Kind, Message: fr.Error.Message}
		}
		var result any
		if len(fr.Response) > 0 {
			if err := json.Unmarshal(fr.Response, &result); err != nil {
				return nil, fmt.Errorf("client: decode reply for %s: %w", name, err)
			}
		}
		return result, nil
	}
}

// Ping round-trips the keepalive command.
func (c *Client) Ping() error {
	out, err := c.Call("ping", nil, nil)
	if err != nil {
		return err
	}
	if out != "pong" {
		return fmt.Errorf("client: unexpected ping reply %v", out)
	}
	return nil
}

func (c *Client) deliverPush(data []byte) {
	if c.onPush != nil {
		c.onPush(json.RawMessage(data))
	}
}

// Close sends a close frame and releases the connection.
func (c *Client) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}
