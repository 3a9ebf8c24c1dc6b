package claudeagent

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// query owns the transport for the lifetime of one connection and
// encapsulates the control plane: ControlRouter, PendingRequests,
// CallbackDispatcher, and the hook registry.
type query struct {
	transport *transport
	opts      *Options
	streaming bool
	logger    *slog.Logger

	pending    *pendingRequests
	dispatcher *callbackDispatcher
	hooks      *hookRegistry

	reqCounter atomic.Uint64

	msgCh  chan Message
	msgErr atomic.Pointer[error]

	initResult json.RawMessage
	initMu     sync.Mutex

	group    *errgroup.Group
	groupCtx context.Context

	closeOnce sync.Once
	closed    atomic.Bool
}

// newQuery constructs a query bound to an already-built transport, but does
// not start it.
func newQuery(t *transport, opts *Options, streaming bool, logger *slog.Logger) *query {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &query{
		transport:  t,
		opts:       opts,
		streaming:  streaming,
		logger:     logger,
		pending:    newPendingRequests(),
		dispatcher: newCallbackDispatcher(4),
		hooks:      newHookRegistry(),
		msgCh:      make(chan Message, 64),
	}
}

// start launches the transport and the reader pump, then performs
// initialization if in streaming mode.
func (q *query) start(ctx context.Context) error {
	if err := q.transport.start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	q.group = g
	q.groupCtx = gctx

	g.Go(func() error {
		q.transport.readLoop(q.handleEnvelope, q.handleReadError)
		close(q.msgCh)
		return nil
	})

	if q.streaming {
		if _, err := q.sendControlRequest("initialize", map[string]interface{}{
			"hooks": buildInitHooksPayload(q.opts, q.hooks),
		}); err != nil {
			return err
		}
	}

	return nil
}

// messages exposes the conversation stream published by the reader. It is
// closed when the transport reaches EOF.
func (q *query) messages() <-chan Message {
	return q.msgCh
}

// fatalErr reports the first error recorded by setFatalErr, if any.
// Recording one does not close the conversation stream; msgCh closes only
// when the reader stops at EOF or on a read failure.
func (q *query) fatalErr() error {
	if p := q.msgErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (q *query) setFatalErr(err error) {
	q.msgErr.CompareAndSwap(nil, &err)
}

// getServerInfo returns the raw response stashed from the initialize
// control request, or nil if not yet initialized or non-streaming.
func (q *query) getServerInfo() json.RawMessage {
	q.initMu.Lock()
	defer q.initMu.Unlock()
	return q.initResult
}

// handleEnvelope is invoked by the transport reader for every complete
// envelope. It implements the ControlRouter dispatch table.
func (q *query) handleEnvelope(data []byte) {
	var hdr envelopeHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		q.setFatalErr(&ErrParse{Reason: "envelope is not a JSON object with a type field", Payload: data})
		return
	}

	switch hdr.Type {
	case "control_response":
		q.handleControlResponse(data)
	case "control_request":
		q.handleInboundControlRequest(data)
	case "control_cancel_request":
		q.logger.Debug("control_cancel_request ignored")
	default:
		msg, err := ParseMessage(data)
		if err != nil {
			q.setFatalErr(err)
			return
		}
		select {
		case q.msgCh <- msg:
		case <-q.groupCtx.Done():
		}
	}
}

// handleReadError is invoked when the reader reports a buffer overflow
// (after which it keeps reading) or a stdout read failure.
func (q *query) handleReadError(err error) {
	q.logger.Warn("transport read error", "err", err)
	q.setFatalErr(err)
}

type controlResponseWire struct {
	Response struct {
		RequestID string          `json:"request_id"`
		Subtype   string          `json:"subtype"`
		Response  json.RawMessage `json:"response"`
		Error     string          `json:"error"`
	} `json:"response"`
}

func (q *query) handleControlResponse(data []byte) {
	var wire controlResponseWire
	if err := json.Unmarshal(data, &wire); err != nil {
		q.logger.Warn("malformed control_response", "err", err)
		return
	}

	outcome := controlOutcome{response: wire.Response.Response}
	if wire.Response.Subtype == "error" {
		outcome = controlOutcome{err: &ErrConnection{Reason: wire.Response.Error}}
	}

	if !q.pending.complete(wire.Response.RequestID, outcome) {
		q.logger.Debug("control_response for unknown request_id dropped", "request_id", wire.Response.RequestID)
	}
}

type controlRequestWire struct {
	RequestID string          `json:"request_id"`
	Request   json.RawMessage `json:"request"`
}

func (q *query) handleInboundControlRequest(data []byte) {
	var wire controlRequestWire
	if err := json.Unmarshal(data, &wire); err != nil {
		q.logger.Warn("malformed control_request", "err", err)
		return
	}

	var hdr struct {
		Subtype string `json:"subtype"`
	}
	_ = json.Unmarshal(wire.Request, &hdr)

	q.dispatcher.submit(func() {
		switch hdr.Subtype {
		case "can_use_tool":
			q.handleCanUseTool(wire.RequestID, wire.Request)
		case "hook_callback":
			q.handleHookCallback(wire.RequestID, wire.Request)
		case "mcp_message":
			q.handleMCPMessage(wire.RequestID, wire.Request)
		default:
			q.writeControlError(wire.RequestID, "unrecognized control request subtype: "+hdr.Subtype)
		}
	})
}

func (q *query) handleCanUseTool(requestID string, request json.RawMessage) {
	var body struct {
		ToolName string                 `json:"tool_name"`
		Input    map[string]interface{} `json:"input"`
	}
	if err := json.Unmarshal(request, &body); err != nil {
		q.writeControlError(requestID, "malformed can_use_tool request")
		return
	}

	// A malformed body is rejected before checking whether a callback is
	// configured at all: the request is broken regardless of local config,
	// and a parse failure is more specific than "no callback configured".
	if q.opts.CanUseTool == nil {
		q.writeControlError(requestID, "canUseTool callback is not provided")
		return
	}

	result, err := q.invokeCanUseTool(body.ToolName, body.Input)
	if err != nil {
		q.writeControlError(requestID, err.Error())
		return
	}

	switch r := result.(type) {
	case PermissionAllow:
		resp := map[string]interface{}{"allow": true}
		if r.UpdatedInput != nil {
			resp["input"] = r.UpdatedInput
		}
		q.writeControlSuccess(requestID, resp)
	case PermissionDeny:
		resp := map[string]interface{}{"allow": false, "reason": r.Message}
		if r.Interrupt {
			resp["interrupt"] = true
		}
		q.writeControlSuccess(requestID, resp)
	default:
		q.writeControlError(requestID, "Invalid PermissionResult type")
	}
}

// invokeCanUseTool runs the caller's CanUseTool callback, recovering a panic
// into an error carrying the panic value so the caller can reply with an
// error control_response instead of silently denying the tool.
func (q *query) invokeCanUseTool(toolName string, input map[string]interface{}) (result PermissionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%v", r)
		}
	}()
	ctx := &ToolPermissionContext{}
	return q.opts.CanUseTool(ctx, toolName, input), nil
}

func (q *query) handleHookCallback(requestID string, request json.RawMessage) {
	var body struct {
		CallbackID string                 `json:"callback_id"`
		Input      map[string]interface{} `json:"input"`
		ToolUseID  *string                `json:"tool_use_id"`
	}
	if err := json.Unmarshal(request, &body); err != nil {
		q.writeControlError(requestID, "malformed hook_callback request")
		return
	}

	result, found, err := runHookCallback(q.hooks, body.CallbackID, body.ToolUseID, body.Input)
	if !found {
		q.writeControlError(requestID, "No hook callback found for ID: "+body.CallbackID)
		return
	}
	if err != nil {
		q.writeControlError(requestID, err.Error())
		return
	}

	q.writeControlSuccess(requestID, hookResultFields(result))
}

func (q *query) handleMCPMessage(requestID string, request json.RawMessage) {
	var body struct {
		Message struct {
			ID interface{} `json:"id"`
		} `json:"message"`
	}
	_ = json.Unmarshal(request, &body)

	q.writeControlSuccess(requestID, map[string]interface{}{
		"mcp_response": map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      body.Message.ID,
			"error": map[string]interface{}{
				"code":    -32601,
				"message": "SDK MCP servers are not supported by this client",
			},
		},
	})
}

func (q *query) writeControlSuccess(requestID string, response interface{}) {
	_ = q.transport.write(map[string]interface{}{
		"type": "control_response",
		"response": map[string]interface{}{
			"subtype":    "success",
			"request_id": requestID,
			"response":   response,
		},
	})
}

func (q *query) writeControlError(requestID string, message string) {
	_ = q.transport.write(map[string]interface{}{
		"type": "control_response",
		"response": map[string]interface{}{
			"subtype":    "error",
			"request_id": requestID,
			"error":      message,
		},
	})
}

// sendControlRequest implements the nine-step outbound control request
// protocol.
func (q *query) sendControlRequest(subtype string, extra map[string]interface{}) (json.RawMessage, error) {
	if !q.streaming {
		return nil, &ErrConnection{Reason: "control requests require streaming mode"}
	}

	requestID := q.mintRequestID()

	request := map[string]interface{}{"subtype": subtype}
	for k, v := range extra {
		request[k] = v
	}

	slot := q.pending.insert(requestID)

	envelope := map[string]interface{}{
		"type":       "control_request",
		"request_id": requestID,
		"request":    request,
	}
	if err := q.transport.write(envelope); err != nil {
		q.pending.remove(requestID)
		return nil, &ErrConnection{Reason: "failed to send control request", Cause: err}
	}

	select {
	case outcome := <-slot:
		if outcome.err != nil {
			return nil, outcome.err
		}
		if len(outcome.response) == 0 {
			return json.RawMessage("{}"), nil
		}
		if subtype == "initialize" {
			q.initMu.Lock()
			q.initResult = outcome.response
			q.initMu.Unlock()
		}
		return outcome.response, nil

	case <-time.After(q.opts.requestTimeoutOrDefault()):
		q.pending.remove(requestID)
		return nil, &ErrConnection{Reason: "control request timed out: " + subtype}
	}
}

func (q *query) mintRequestID() string {
	n := q.reqCounter.Add(1)
	return "req_" + strconv.FormatUint(n, 10) + "_" + uuid.NewString()
}

// streamInput consumes a caller-supplied lazy sequence of JSON-shaped
// records, writing each as newline-JSON to the transport, and closes stdin
// on completion. It is run on the errgroup so its error, if any,
// cancels the group context shared with the reader pump. A write failure
// is also recorded as the query's fatal error, reported by Client.Err.
func (q *query) streamInput(records iter.Seq[any]) error {
	defer q.transport.endInput()

	for record := range records {
		select {
		case <-q.groupCtx.Done():
			return q.groupCtx.Err()
		default:
		}
		if err := q.transport.write(record); err != nil {
			q.setFatalErr(err)
			return err
		}
	}
	return nil
}

// interrupt sends the interrupt convenience control request.
func (q *query) interrupt() error {
	_, err := q.sendControlRequest("interrupt", nil)
	return err
}

// setPermissionMode sends the set_permission_mode convenience control
// request.
func (q *query) setPermissionMode(mode PermissionMode) error {
	_, err := q.sendControlRequest("set_permission_mode", map[string]interface{}{"mode": string(mode)})
	return err
}

// close is idempotent: it stops accepting dispatcher jobs, completes every
// pending control request exceptionally, and closes the transport.
func (q *query) close() error {
	var transportErr error
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		q.pending.closeAll(&ErrConnection{Reason: "connection closed"})
		q.dispatcher.close()
		transportErr = q.transport.close()
		if q.group != nil {
			_ = q.group.Wait()
		}
	})
	return transportErr
}
