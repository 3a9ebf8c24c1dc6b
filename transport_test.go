package claudeagent

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildArgsFlagTranslation(t *testing.T) {
	maxTurns := 3
	opts := &Options{
		SystemPrompt:             "be terse",
		AppendSystemPrompt:       "and polite",
		AllowedTools:             []string{"Bash", "Read"},
		DisallowedTools:          []string{"Write"},
		MaxTurns:                 &maxTurns,
		Model:                    "claude-sonnet",
		PermissionPromptToolName: "stdio",
		PermissionMode:           PermissionModeAcceptEdits,
		ContinueConversation:     true,
		Resume:                   "sess-1",
		Settings:                 "/etc/claude/settings.json",
		AddDirs:                  []string{"/a", "/b"},
		ExtraArgs:                map[string]string{"beta": "feature-x"},
	}

	args, err := buildArgs(opts, true, "")
	require.NoError(t, err)
	joined := strings.Join(args, " ")

	require.Contains(t, joined, "--output-format stream-json --verbose")
	require.Contains(t, joined, "--system-prompt be terse")
	require.Contains(t, joined, "--append-system-prompt and polite")
	require.Contains(t, joined, "--allowedTools Bash,Read")
	require.Contains(t, joined, "--disallowedTools Write")
	require.Contains(t, joined, "--max-turns 3")
	require.Contains(t, joined, "--model claude-sonnet")
	require.Contains(t, joined, "--permission-prompt-tool stdio")
	require.Contains(t, joined, "--permission-mode acceptEdits")
	require.Contains(t, joined, "--continue")
	require.Contains(t, joined, "--resume sess-1")
	require.Contains(t, joined, "--settings /etc/claude/settings.json")
	require.Contains(t, joined, "--add-dir /a")
	require.Contains(t, joined, "--add-dir /b")
	require.Contains(t, joined, "--beta feature-x")
	require.Contains(t, joined, "--input-format stream-json")
}

func TestBuildArgsOneShotMode(t *testing.T) {
	args, err := buildArgs(&Options{}, false, "what is 2+2?")
	require.NoError(t, err)
	require.Equal(t, []string{
		"--output-format", "stream-json", "--verbose",
		"--print", "--", "what is 2+2?",
	}, args)
}

func TestBuildMCPConfigArgMapFormDropsInstanceKey(t *testing.T) {
	opts := &Options{
		MCPServers: map[string]MCPServerConfig{
			"time": {Command: "node", Args: []string{"server.js"}, Env: map[string]string{"X": "1"}},
		},
	}
	arg, err := buildMCPConfigArg(opts)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(arg), &parsed))

	servers := parsed["mcpServers"].(map[string]interface{})
	entry := servers["time"].(map[string]interface{})
	require.Equal(t, "node", entry["command"])
	_, hasInstance := entry["instance"]
	require.False(t, hasInstance)
}

func TestBuildMCPConfigArgStringForm(t *testing.T) {
	opts := &Options{MCPConfigPath: "/etc/mcp.json"}
	arg, err := buildMCPConfigArg(opts)
	require.NoError(t, err)
	require.Equal(t, "/etc/mcp.json", arg)
}

func TestBuildEnvOverlaysAndIdentifies(t *testing.T) {
	opts := &Options{
		Env:  map[string]string{"FOO": "bar"},
		Cwd:  "/work",
		User: "alice",
	}
	env := buildEnv(opts)
	joined := strings.Join(env, "\n")

	require.Contains(t, joined, "FOO=bar")
	require.Contains(t, joined, "CLAUDE_CODE_ENTRYPOINT=sdk-go")
	require.Contains(t, joined, "PWD=/work")
	require.Contains(t, joined, "USER=alice")
}

func newTestTransport(t *testing.T) (*transport, *mockSubprocessRunner) {
	t.Helper()
	runner := newMockSubprocessRunner()
	tr := newTransport(&Options{CLIPath: "claude"}, true, "", runner)
	require.NoError(t, tr.start())
	return tr, runner
}

func TestReadLoopAssemblesMessageSplitAcrossReads(t *testing.T) {
	tr, runner := newTestTransport(t)
	defer tr.close()

	var received [][]byte
	done := make(chan struct{})
	go func() {
		tr.readLoop(func(data []byte) {
			received = append(received, append([]byte(nil), data...))
		}, nil)
		close(done)
	}()

	runner.StdoutPipe.WriteString(`{"type":"sys`)
	time.Sleep(10 * time.Millisecond)
	runner.StdoutPipe.WriteString(`tem","subtype":"init"}` + "\n")
	runner.StdoutPipe.Close()

	<-done
	require.Len(t, received, 1)

	var hdr envelopeHeader
	require.NoError(t, json.Unmarshal(received[0], &hdr))
	require.Equal(t, "system", hdr.Type)
}

func TestReadLoopSkipsEmptyLines(t *testing.T) {
	tr, runner := newTestTransport(t)
	defer tr.close()

	var count int
	done := make(chan struct{})
	go func() {
		tr.readLoop(func(data []byte) { count++ }, nil)
		close(done)
	}()

	runner.StdoutPipe.WriteString("\n\n" + `{"type":"system","subtype":"init"}` + "\n\n")
	runner.StdoutPipe.Close()

	<-done
	require.Equal(t, 1, count)
}

func TestReadLoopOverflowRaisesJSONDecodeError(t *testing.T) {
	tr, runner := newTestTransport(t)
	defer tr.close()

	var gotErr error
	done := make(chan struct{})
	go func() {
		tr.readLoop(func(data []byte) {}, func(err error) { gotErr = err })
		close(done)
	}()

	huge := strings.Repeat("x", maxLineBufferBytes+1024)
	runner.StdoutPipe.WriteString(huge + "\n")
	runner.StdoutPipe.Close()

	<-done
	require.Error(t, gotErr)
	require.IsType(t, &ErrJSONDecode{}, gotErr)
}

func TestWriteRejectedWhenNotReady(t *testing.T) {
	tr := newTransport(&Options{CLIPath: "claude"}, true, "", newMockSubprocessRunner())
	err := tr.write(map[string]string{"type": "user"})
	require.Error(t, err)
	require.IsType(t, &ErrConnection{}, err)
}

func TestWriteAfterProcessExitRaisesConnectionErrorNotProcessError(t *testing.T) {
	tr, runner := newTestTransport(t)
	runner.StdinPipe.Close()

	err := tr.write(map[string]string{"type": "user"})
	require.Error(t, err)
	require.IsType(t, &ErrConnection{}, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	tr, _ := newTestTransport(t)
	require.NoError(t, tr.close())
	require.NoError(t, tr.close())
}
