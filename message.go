package claudeagent

import "encoding/json"

// Message is the base type for every conversation-level envelope surfaced to
// callers: User, Assistant, System, and Result. Control-plane envelopes
// (control_request, control_response, control_cancel_request) never reach
// this interface — they are consumed internally by Query's control router.
type Message interface {
	// MessageType returns the wire-level "type" discriminator.
	MessageType() string
}

// ContentBlock is the base type for the content-block variants nested inside
// User and Assistant messages: Text, Thinking, ToolUse, and ToolResult.
type ContentBlock interface {
	// BlockType returns the wire-level "type" discriminator.
	BlockType() string
}

// TextBlock is a plain-text content block.
type TextBlock struct {
	Text string `json:"text"`
}

// BlockType implements ContentBlock.
func (b TextBlock) BlockType() string { return "text" }

// ThinkingBlock carries a model's extended-thinking trace and its signature.
type ThinkingBlock struct {
	Thinking  string `json:"thinking"`
	Signature string `json:"signature"`
}

// BlockType implements ContentBlock.
func (b ThinkingBlock) BlockType() string { return "thinking" }

// ToolUseBlock is a request from the model to invoke a tool. Input is an
// arbitrary JSON object and is passed through verbatim.
type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// BlockType implements ContentBlock.
func (b ToolUseBlock) BlockType() string { return "tool_use" }

// ToolResultBlock carries the outcome of a tool invocation back into the
// conversation. IsError is a pointer so that "absent" and "false" remain
// distinguishable tri-state values, per the parser contract.
type ToolResultBlock struct {
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   *bool           `json:"is_error,omitempty"`
}

// BlockType implements ContentBlock.
func (b ToolResultBlock) BlockType() string { return "tool_result" }

// UserContent is the content carried by a UserMessage: either a bare string
// prompt or an ordered sequence of content blocks. Exactly one of Text or
// Blocks is populated, mirroring the two shapes the wire protocol accepts.
type UserContent struct {
	Text   string
	Blocks []ContentBlock

	// IsBlocks is true when the original envelope used the array form, even
	// if that array happened to be empty. It lets re-serialization preserve
	// the original shape.
	IsBlocks bool
}

// UserMessage is a prompt, or a tool-result reply, sent toward Claude.
type UserMessage struct {
	Content UserContent
}

// MessageType implements Message.
func (m UserMessage) MessageType() string { return "user" }

// AssistantMessage is a response emitted by Claude.
type AssistantMessage struct {
	Model   string
	Content []ContentBlock
}

// MessageType implements Message.
func (m AssistantMessage) MessageType() string { return "assistant" }

// Text concatenates every TextBlock in Content, in order. It is a
// convenience accessor; tool_use and thinking blocks are skipped.
func (m AssistantMessage) Text() string {
	var out string
	for _, b := range m.Content {
		if t, ok := b.(TextBlock); ok {
			out += t.Text
		}
	}
	return out
}

// SystemMessage carries a system-originated notification. Attrs retains the
// full envelope verbatim (minus type/subtype) so unknown fields survive a
// round trip untouched.
type SystemMessage struct {
	Subtype string
	Attrs   map[string]interface{}
}

// MessageType implements Message.
func (m SystemMessage) MessageType() string { return "system" }

// ResultMessage signals completion of a conversation turn.
type ResultMessage struct {
	Subtype       string
	DurationMs    int64
	DurationAPIMs int64
	IsError       bool
	NumTurns      int
	SessionID     string

	TotalCostUSD *float64
	Usage        map[string]interface{}
	Result       *string
}

// MessageType implements Message.
func (m ResultMessage) MessageType() string { return "result" }

// envelopeHeader peeks the discriminant fields shared across every envelope
// shape without committing to any one concrete type.
type envelopeHeader struct {
	Type string `json:"type"`
}

// ParseMessage is the pure MessageParser: it converts one untyped JSON
// envelope into a typed conversation Message. It performs no I/O and never
// mutates data. Control-plane envelope types (control_request,
// control_response, control_cancel_request) are rejected here — callers
// route those to the control router before ever reaching the parser.
func ParseMessage(data []byte) (Message, error) {
	var hdr envelopeHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, &ErrParse{Reason: "envelope is not a JSON object with a type field", Payload: data}
	}
	if hdr.Type == "" {
		return nil, &ErrParse{Reason: "missing or non-string type field", Payload: data}
	}

	switch hdr.Type {
	case "user":
		return parseUserMessage(data)
	case "assistant":
		return parseAssistantMessage(data)
	case "system":
		return parseSystemMessage(data)
	case "result":
		return parseResultMessage(data)
	default:
		return nil, &ErrParse{
			Reason:  "unknown envelope type: " + hdr.Type,
			Payload: data,
		}
	}
}

func parseUserMessage(data []byte) (Message, error) {
	var wire struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ErrParse{Reason: "malformed user envelope", Payload: data}
	}

	content, err := parseUserContent(wire.Message.Content)
	if err != nil {
		return nil, err
	}

	return UserMessage{Content: content}, nil
}

func parseUserContent(raw json.RawMessage) (UserContent, error) {
	if len(raw) == 0 {
		return UserContent{}, &ErrParse{Reason: "user message missing content"}
	}

	// Bare string form.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return UserContent{Text: s}, nil
	}

	// Array-of-blocks form.
	var rawBlocks []json.RawMessage
	if err := json.Unmarshal(raw, &rawBlocks); err != nil {
		return UserContent{}, &ErrParse{Reason: "user content is neither a string nor an array", Payload: raw}
	}

	blocks := make([]ContentBlock, 0, len(rawBlocks))
	for _, rb := range rawBlocks {
		block, err := parseContentBlock(rb)
		if err != nil {
			return UserContent{}, err
		}
		blocks = append(blocks, block)
	}

	return UserContent{Blocks: blocks, IsBlocks: true}, nil
}

func parseAssistantMessage(data []byte) (Message, error) {
	var wire struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Model   *string         `json:"model"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ErrParse{Reason: "malformed assistant envelope", Payload: data}
	}
	if wire.Message.Model == nil {
		return nil, &ErrParse{Reason: "assistant message missing required model field", Payload: data}
	}

	var rawBlocks []json.RawMessage
	if err := json.Unmarshal(wire.Message.Content, &rawBlocks); err != nil {
		return nil, &ErrParse{Reason: "assistant message.content must be an array", Payload: data}
	}

	blocks := make([]ContentBlock, 0, len(rawBlocks))
	for _, rb := range rawBlocks {
		block, err := parseContentBlock(rb)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return AssistantMessage{Model: *wire.Message.Model, Content: blocks}, nil
}

func parseContentBlock(data json.RawMessage) (ContentBlock, error) {
	var hdr envelopeHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, &ErrParse{Reason: "content block is not a JSON object", Payload: data}
	}

	switch hdr.Type {
	case "text":
		var b TextBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, &ErrParse{Reason: "malformed text block", Payload: data}
		}
		return b, nil

	case "thinking":
		var b ThinkingBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, &ErrParse{Reason: "malformed thinking block", Payload: data}
		}
		return b, nil

	case "tool_use":
		var b ToolUseBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, &ErrParse{Reason: "malformed tool_use block", Payload: data}
		}
		return b, nil

	case "tool_result":
		var b ToolResultBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, &ErrParse{Reason: "malformed tool_result block", Payload: data}
		}
		return b, nil

	default:
		return nil, &ErrParse{
			Reason:  "unknown content block type: " + hdr.Type,
			Payload: data,
		}
	}
}

func parseSystemMessage(data []byte) (Message, error) {
	var attrs map[string]interface{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, &ErrParse{Reason: "malformed system envelope", Payload: data}
	}

	subtype, _ := attrs["subtype"].(string)
	delete(attrs, "type")
	delete(attrs, "subtype")

	return SystemMessage{Subtype: subtype, Attrs: attrs}, nil
}

func parseResultMessage(data []byte) (Message, error) {
	var wire struct {
		Subtype       *string                `json:"subtype"`
		DurationMs    *int64                 `json:"duration_ms"`
		DurationAPIMs *int64                 `json:"duration_api_ms"`
		IsError       *bool                  `json:"is_error"`
		NumTurns      *int                   `json:"num_turns"`
		SessionID     *string                `json:"session_id"`
		TotalCostUSD  *float64               `json:"total_cost_usd,omitempty"`
		Usage         map[string]interface{} `json:"usage,omitempty"`
		Result        *string                `json:"result,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ErrParse{Reason: "malformed result envelope", Payload: data}
	}

	missing := func(name string, ok bool) string {
		if !ok {
			return name
		}
		return ""
	}
	var missingFields []string
	for _, m := range []string{
		missing("subtype", wire.Subtype != nil),
		missing("duration_ms", wire.DurationMs != nil),
		missing("duration_api_ms", wire.DurationAPIMs != nil),
		missing("is_error", wire.IsError != nil),
		missing("num_turns", wire.NumTurns != nil),
		missing("session_id", wire.SessionID != nil),
	} {
		if m != "" {
			missingFields = append(missingFields, m)
		}
	}
	if len(missingFields) > 0 {
		return nil, &ErrParse{
			Reason:  "result message missing required field(s): " + joinStrings(missingFields),
			Payload: data,
		}
	}

	return ResultMessage{
		Subtype:       *wire.Subtype,
		DurationMs:    *wire.DurationMs,
		DurationAPIMs: *wire.DurationAPIMs,
		IsError:       *wire.IsError,
		NumTurns:      *wire.NumTurns,
		SessionID:     *wire.SessionID,
		TotalCostUSD:  wire.TotalCostUSD,
		Usage:         wire.Usage,
		Result:        wire.Result,
	}, nil
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
