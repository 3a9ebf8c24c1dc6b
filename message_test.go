package claudeagent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMessageUserStringContent(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"user","message":{"content":"hello"}}`))
	require.NoError(t, err)

	um, ok := msg.(UserMessage)
	require.True(t, ok)
	require.Equal(t, "hello", um.Content.Text)
	require.False(t, um.Content.IsBlocks)
}

func TestParseMessageUserBlockContent(t *testing.T) {
	data := []byte(`{"type":"user","message":{"content":[
		{"type":"tool_result","tool_use_id":"t1","content":"done"}
	]}}`)
	msg, err := ParseMessage(data)
	require.NoError(t, err)

	um, ok := msg.(UserMessage)
	require.True(t, ok)
	require.True(t, um.Content.IsBlocks)
	require.Len(t, um.Content.Blocks, 1)

	block := um.Content.Blocks[0].(ToolResultBlock)
	require.Equal(t, "t1", block.ToolUseID)
	require.Nil(t, block.IsError)
}

func TestParseMessageToolResultIsErrorTriState(t *testing.T) {
	absent, err := ParseMessage([]byte(`{"type":"user","message":{"content":[
		{"type":"tool_result","tool_use_id":"t1","content":"ok"}
	]}}`))
	require.NoError(t, err)
	require.Nil(t, absent.(UserMessage).Content.Blocks[0].(ToolResultBlock).IsError)

	explicit, err := ParseMessage([]byte(`{"type":"user","message":{"content":[
		{"type":"tool_result","tool_use_id":"t1","content":"ok","is_error":false}
	]}}`))
	require.NoError(t, err)
	isErr := explicit.(UserMessage).Content.Blocks[0].(ToolResultBlock).IsError
	require.NotNil(t, isErr)
	require.False(t, *isErr)
}

func TestParseMessageAssistant(t *testing.T) {
	data := []byte(`{"type":"assistant","message":{"model":"claude-sonnet","content":[
		{"type":"text","text":"hi"},
		{"type":"tool_use","id":"tu1","name":"Bash","input":{"cmd":"ls"}}
	]}}`)
	msg, err := ParseMessage(data)
	require.NoError(t, err)

	am, ok := msg.(AssistantMessage)
	require.True(t, ok)
	require.Equal(t, "claude-sonnet", am.Model)
	require.Len(t, am.Content, 2)
	require.Equal(t, "hi", am.Text())

	tu := am.Content[1].(ToolUseBlock)
	require.Equal(t, "Bash", tu.Name)
}

func TestParseMessageAssistantMissingModel(t *testing.T) {
	_, err := ParseMessage([]byte(`{"type":"assistant","message":{"content":[]}}`))
	require.Error(t, err)
	require.IsType(t, &ErrParse{}, err)
}

func TestParseMessageAssistantContentNotArray(t *testing.T) {
	_, err := ParseMessage([]byte(`{"type":"assistant","message":{"model":"m","content":"oops"}}`))
	require.Error(t, err)
}

func TestParseMessageSystem(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"system","subtype":"init","cwd":"/tmp"}`))
	require.NoError(t, err)

	sm := msg.(SystemMessage)
	require.Equal(t, "init", sm.Subtype)
	require.Equal(t, "/tmp", sm.Attrs["cwd"])
	_, hasType := sm.Attrs["type"]
	require.False(t, hasType)
}

func TestParseMessageResult(t *testing.T) {
	data := []byte(`{
		"type":"result","subtype":"success","duration_ms":12,"duration_api_ms":10,
		"is_error":false,"num_turns":1,"session_id":"s1","total_cost_usd":0.002
	}`)
	msg, err := ParseMessage(data)
	require.NoError(t, err)

	rm := msg.(ResultMessage)
	require.Equal(t, "success", rm.Subtype)
	require.Equal(t, int64(12), rm.DurationMs)
	require.Equal(t, "s1", rm.SessionID)
	require.NotNil(t, rm.TotalCostUSD)
	require.InDelta(t, 0.002, *rm.TotalCostUSD, 1e-9)
}

func TestParseMessageResultMissingRequiredField(t *testing.T) {
	_, err := ParseMessage([]byte(`{"type":"result","subtype":"success"}`))
	require.Error(t, err)
	require.IsType(t, &ErrParse{}, err)
}

func TestParseMessageMissingType(t *testing.T) {
	_, err := ParseMessage([]byte(`{"foo":"bar"}`))
	require.Error(t, err)
}

func TestParseMessageUnknownType(t *testing.T) {
	_, err := ParseMessage([]byte(`{"type":"bogus"}`))
	require.Error(t, err)

	var parseErr *ErrParse
	require.ErrorAs(t, err, &parseErr)
}

func TestParseMessageUnknownContentBlockType(t *testing.T) {
	data := []byte(`{"type":"assistant","message":{"model":"m","content":[{"type":"mystery"}]}}`)
	_, err := ParseMessage(data)
	require.Error(t, err)
}

func TestParseMessageNotJSONObject(t *testing.T) {
	_, err := ParseMessage([]byte(`not json`))
	require.Error(t, err)
}
