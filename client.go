package claudeagent

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
)

// clientState is the DISCONNECTED -> CONNECTED -> DISCONNECTED lifecycle.
// DISCONNECTED is terminal once reached via Close.
type clientState int32

const (
	clientDisconnected clientState = iota
	clientConnected
)

// Client is the public façade composing Transport and Query. It manages the
// connect/disconnect lifecycle and exposes the conversation message stream.
type Client struct {
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	state atomic.Int32
	q     *query
}

// NewClient builds a Client from the given options. The client is not
// connected until one of the Connect variants is called.
func NewClient(opts ...Option) (*Client, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateOptions(&o); err != nil {
		return nil, err
	}
	return &Client{opts: o, logger: slog.New(slog.DiscardHandler)}, nil
}

// validateOptions applies the option checks at construction time (from
// NewClient), and, when CanUseTool is set, rewrites
// PermissionPromptToolName to the CLI's reserved "stdio" value.
func validateOptions(o *Options) error {
	if o.CanUseTool != nil && o.PermissionPromptToolName != "" {
		return &ErrConnection{Reason: "canUseTool is mutually exclusive with permissionPromptToolName"}
	}
	if o.CanUseTool != nil {
		o.PermissionPromptToolName = "stdio"
	}
	return nil
}

// Connect opens a streaming-mode connection with no caller-supplied input
// stream; stdin stays open for Query until Close. Idempotent: a second call
// while already connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	return c.connect(ctx, true, "", nil)
}

// ConnectPrompt opens a one-shot connection that sends prompt as the
// --print argument and runs to completion without a control protocol.
func (c *Client) ConnectPrompt(ctx context.Context, prompt string) error {
	if c.opts.CanUseTool != nil {
		return &ErrConnection{Reason: "canUseTool requires streaming mode"}
	}
	return c.connect(ctx, false, prompt, nil)
}

// ConnectStream opens a streaming-mode connection fed by the caller's
// record sequence.
func (c *Client) ConnectStream(ctx context.Context, records iter.Seq[any]) error {
	return c.connect(ctx, true, "", records)
}

func (c *Client) connect(ctx context.Context, streaming bool, prompt string, records iter.Seq[any]) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if clientState(c.state.Load()) == clientConnected {
		return nil
	}
	if c.q != nil {
		// A previous connection was closed: DISCONNECTED is terminal.
		return &ErrClientState{Operation: "Connect", State: "disconnected"}
	}

	t := newTransport(&c.opts, streaming, prompt, nil)
	q := newQuery(t, &c.opts, streaming, c.logger)

	if err := q.start(ctx); err != nil {
		return err
	}

	if streaming && records != nil {
		q.group.Go(func() error {
			return q.streamInput(records)
		})
	}

	c.q = q
	c.state.Store(int32(clientConnected))
	return nil
}

func (c *Client) requireConnected(op string) (*query, error) {
	if clientState(c.state.Load()) != clientConnected {
		return nil, &ErrClientState{Operation: op, State: "disconnected"}
	}
	c.mu.Lock()
	q := c.q
	c.mu.Unlock()
	return q, nil
}

// ReceiveMessages returns the raw conversation stream: every User,
// Assistant, System, and Result message in arrival order.
func (c *Client) ReceiveMessages() (iter.Seq[Message], error) {
	q, err := c.requireConnected("ReceiveMessages")
	if err != nil {
		return nil, err
	}
	return func(yield func(Message) bool) {
		for msg := range q.messages() {
			if !yield(msg) {
				return
			}
		}
	}, nil
}

// ReceiveResponse returns a derived stream that forwards messages and
// auto-terminates after the first Result message (one-turn consumption).
func (c *Client) ReceiveResponse() (iter.Seq[Message], error) {
	q, err := c.requireConnected("ReceiveResponse")
	if err != nil {
		return nil, err
	}
	return func(yield func(Message) bool) {
		for msg := range q.messages() {
			if !yield(msg) {
				return
			}
			if _, ok := msg.(ResultMessage); ok {
				return
			}
		}
	}, nil
}

// Err returns the first error recorded while the connection ran, if any: an
// envelope that failed to parse, a stdout framing or read error, or a failed
// write of a ConnectStream record. Recording an error does not end the
// conversation stream; it keeps yielding later messages until stdout reaches
// EOF. Call after ReceiveMessages/ReceiveResponse stops yielding.
func (c *Client) Err() error {
	c.mu.Lock()
	q := c.q
	c.mu.Unlock()
	if q == nil {
		return nil
	}
	return q.fatalErr()
}

// userEnvelope is the well-formed user message envelope Query writes.
type userEnvelope struct {
	Type           string      `json:"type"`
	Message        userPayload `json:"message"`
	ParentToolUseID *string    `json:"parent_tool_use_id"`
	SessionID      string      `json:"session_id"`
}

type userPayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Query writes a user prompt envelope into the transport. An empty
// sessionID falls back to the WithSessionID value, and to "default" when
// that is empty too.
func (c *Client) Query(prompt string, sessionID string) error {
	q, err := c.requireConnected("Query")
	if err != nil {
		return err
	}
	if sessionID == "" {
		sessionID = c.opts.SessionID
	}
	if sessionID == "" {
		sessionID = "default"
	}
	return q.transport.write(userEnvelope{
		Type:            "user",
		Message:         userPayload{Role: "user", Content: prompt},
		ParentToolUseID: nil,
		SessionID:       sessionID,
	})
}

// Interrupt sends the interrupt control request.
func (c *Client) Interrupt() error {
	q, err := c.requireConnected("Interrupt")
	if err != nil {
		return err
	}
	return q.interrupt()
}

// SetPermissionMode sends the set_permission_mode control request.
func (c *Client) SetPermissionMode(mode PermissionMode) error {
	q, err := c.requireConnected("SetPermissionMode")
	if err != nil {
		return err
	}
	return q.setPermissionMode(mode)
}

// GetServerInfo returns the raw response stashed from the initialize
// control request, or nil if not yet initialized.
func (c *Client) GetServerInfo() (json.RawMessage, error) {
	q, err := c.requireConnected("GetServerInfo")
	if err != nil {
		return nil, err
	}
	return q.getServerInfo(), nil
}

// Close disconnects the client. It is idempotent; the DISCONNECTED state
// reached is terminal.
func (c *Client) Close() error {
	c.mu.Lock()
	q := c.q
	c.mu.Unlock()

	c.state.Store(int32(clientDisconnected))
	if q == nil {
		return nil
	}
	return q.close()
}
