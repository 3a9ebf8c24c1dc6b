package claudeagent

import "time"

// PermissionMode controls how the CLI decides whether a tool call may
// proceed without prompting.
type PermissionMode string

const (
	// PermissionModeDefault prompts per the CLI's own rules.
	PermissionModeDefault PermissionMode = "default"
	// PermissionModeAcceptEdits auto-accepts file edit tools.
	PermissionModeAcceptEdits PermissionMode = "acceptEdits"
	// PermissionModePlan restricts the session to planning, no execution.
	PermissionModePlan PermissionMode = "plan"
	// PermissionModeBypassPermissions skips all permission prompts.
	PermissionModeBypassPermissions PermissionMode = "bypassPermissions"
)

// HookEvent names a CLI lifecycle event a hook callback can be registered
// against.
type HookEvent string

const (
	HookEventPreToolUse       HookEvent = "PreToolUse"
	HookEventPostToolUse      HookEvent = "PostToolUse"
	HookEventUserPromptSubmit HookEvent = "UserPromptSubmit"
	HookEventStop             HookEvent = "Stop"
	HookEventSubagentStop     HookEvent = "SubagentStop"
	HookEventPreCompact       HookEvent = "PreCompact"
)

// HookCallback is invoked by the CallbackDispatcher for a matching
// hook_callback control request. Input and context are passed through
// verbatim from the CLI; the returned HookResult fields are serialized
// back.
type HookCallback func(ctx *HookContext, input map[string]interface{}) (HookResult, error)

// HookContext is passed to a HookCallback. Signal is reserved for
// forward-compatible cancellation wiring: the current CLI never sends
// control_cancel_request for a hook, so Signal is always nil today.
type HookContext struct {
	ToolUseID *string
	Signal    <-chan struct{}
}

// HookResult is the (possibly partial) set of fields a hook callback may
// set; only fields actually set are echoed into the control response.
type HookResult struct {
	Decision        string
	SystemMessage   string
	HookSpecificOutput map[string]interface{}

	decisionSet      bool
	systemMessageSet bool
	outputSet        bool
}

// SetDecision marks Decision as explicitly set by the callback.
func (r *HookResult) SetDecision(v string) { r.Decision = v; r.decisionSet = true }

// SetSystemMessage marks SystemMessage as explicitly set by the callback.
func (r *HookResult) SetSystemMessage(v string) { r.SystemMessage = v; r.systemMessageSet = true }

// SetHookSpecificOutput marks HookSpecificOutput as explicitly set.
func (r *HookResult) SetHookSpecificOutput(v map[string]interface{}) {
	r.HookSpecificOutput = v
	r.outputSet = true
}

// HookMatcher pairs a tool-name matcher pattern with the callback to invoke
// when a PreToolUse/PostToolUse event matches it. Matcher is ignored for
// events that are not tool-scoped (UserPromptSubmit, Stop, SubagentStop,
// PreCompact).
type HookMatcher struct {
	Matcher  string
	Callback HookCallback
}

// ToolPermissionContext is passed to a CanUseToolFunc alongside the tool
// name and input. Suggestions is always empty; Signal is
// reserved the same way as HookContext.Signal.
type ToolPermissionContext struct {
	Suggestions []interface{}
	Signal      <-chan struct{}
}

// PermissionResult is the sealed result type a CanUseToolFunc returns:
// either PermissionAllow or PermissionDeny.
type PermissionResult interface {
	isPermissionResult()
}

// PermissionAllow allows the tool call to proceed, optionally replacing its
// input with UpdatedInput.
type PermissionAllow struct {
	UpdatedInput map[string]interface{}
}

func (PermissionAllow) isPermissionResult() {}

// PermissionDeny blocks the tool call. Interrupt, if true, asks the CLI to
// also interrupt the in-flight generation.
type PermissionDeny struct {
	Message   string
	Interrupt bool
}

func (PermissionDeny) isPermissionResult() {}

// CanUseToolFunc is consulted before tool execution when the effective
// PermissionPromptToolName is "stdio".
type CanUseToolFunc func(ctx *ToolPermissionContext, toolName string, input map[string]interface{}) PermissionResult

// MCPServerConfig configures one externally-spawned MCP server entry of the
// `mcpServers` map form. The `instance` key the CLI rejects is never
// populated here; it only ever appears on the in-process variant this
// transport layer does not construct.
type MCPServerConfig struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Options configures a Client/Transport pair. It is built up via functional
// Option values passed to NewClient.
type Options struct {
	// CLI discovery and process control.
	CLIPath string
	Cwd     string
	Env     map[string]string
	User    string

	// Prompt shaping.
	SystemPrompt       string
	AppendSystemPrompt string

	// Tool gating.
	AllowedTools    []string
	DisallowedTools []string

	// Turn/model controls.
	MaxTurns *int
	Model    string

	// Permissions.
	PermissionPromptToolName string
	PermissionMode           PermissionMode
	CanUseTool               CanUseToolFunc

	// Session control.
	ContinueConversation bool
	Resume               string
	SessionID            string

	// Settings/config passthrough.
	Settings string
	AddDirs  []string

	// MCPServers is either a map of named server configs, serialized to
	// --mcp-config as JSON, or (if MCPConfigPath is set instead) a raw
	// string/path passed through verbatim.
	MCPServers    map[string]MCPServerConfig
	MCPConfigPath string

	// ExtraArgs lets a caller pass arbitrary additional CLI flags. A blank
	// value means the flag takes no argument.
	ExtraArgs map[string]string

	// Hooks registers lifecycle callbacks, keyed by event name.
	Hooks map[HookEvent][]HookMatcher

	// Stderr, if set, receives each line of CLI stderr as it is captured.
	Stderr func(line string)

	// requestTimeout bounds sendControlRequest; it is not
	// exposed as a CLI flag, only a functional option, and defaults to 60s.
	requestTimeout time.Duration
}

// Option mutates an Options value. Applied in order by NewClient.
type Option func(*Options)

// DefaultOptions returns the zero-value-safe baseline Options.
func DefaultOptions() Options {
	return Options{
		PermissionMode: PermissionModeDefault,
		SessionID:      "default",
		requestTimeout: 60 * time.Second,
	}
}

// WithCLIPath overrides CLI discovery with an explicit executable path.
func WithCLIPath(path string) Option { return func(o *Options) { o.CLIPath = path } }

// WithCwd sets the subprocess working directory.
func WithCwd(cwd string) Option { return func(o *Options) { o.Cwd = cwd } }

// WithEnv overlays additional environment variables onto the subprocess.
func WithEnv(env map[string]string) Option { return func(o *Options) { o.Env = env } }

// WithUser sets the USER environment variable on the subprocess.
func WithUser(user string) Option { return func(o *Options) { o.User = user } }

// WithSystemPrompt sets --system-prompt.
func WithSystemPrompt(prompt string) Option { return func(o *Options) { o.SystemPrompt = prompt } }

// WithAppendSystemPrompt sets --append-system-prompt.
func WithAppendSystemPrompt(prompt string) Option {
	return func(o *Options) { o.AppendSystemPrompt = prompt }
}

// WithAllowedTools sets --allowedTools.
func WithAllowedTools(tools ...string) Option {
	return func(o *Options) { o.AllowedTools = tools }
}

// WithDisallowedTools sets --disallowedTools.
func WithDisallowedTools(tools ...string) Option {
	return func(o *Options) { o.DisallowedTools = tools }
}

// WithMaxTurns sets --max-turns.
func WithMaxTurns(turns int) Option { return func(o *Options) { o.MaxTurns = &turns } }

// WithModel sets --model.
func WithModel(model string) Option { return func(o *Options) { o.Model = model } }

// WithPermissionMode sets --permission-mode.
func WithPermissionMode(mode PermissionMode) Option {
	return func(o *Options) { o.PermissionMode = mode }
}

// WithCanUseTool registers a permission callback. NewClient rejects this
// combined with an explicit WithPermissionPromptToolName, and ConnectPrompt
// rejects it because it is not a streaming-mode connection.
func WithCanUseTool(fn CanUseToolFunc) Option { return func(o *Options) { o.CanUseTool = fn } }

// WithPermissionPromptToolName sets --permission-prompt-tool directly.
func WithPermissionPromptToolName(name string) Option {
	return func(o *Options) { o.PermissionPromptToolName = name }
}

// WithContinueConversation sets --continue.
func WithContinueConversation() Option {
	return func(o *Options) { o.ContinueConversation = true }
}

// WithResume sets --resume.
func WithResume(sessionID string) Option { return func(o *Options) { o.Resume = sessionID } }

// WithSessionID sets the session_id stamped onto outbound user envelopes.
func WithSessionID(id string) Option { return func(o *Options) { o.SessionID = id } }

// WithSettings sets --settings.
func WithSettings(path string) Option { return func(o *Options) { o.Settings = path } }

// WithAddDir appends one --add-dir entry.
func WithAddDir(dir string) Option {
	return func(o *Options) { o.AddDirs = append(o.AddDirs, dir) }
}

// WithMCPServers sets the map form of --mcp-config.
func WithMCPServers(servers map[string]MCPServerConfig) Option {
	return func(o *Options) { o.MCPServers = servers }
}

// WithMCPConfigPath sets the string/path form of --mcp-config. When both
// forms are set, this one is used and the WithMCPServers map is ignored.
func WithMCPConfigPath(pathOrJSON string) Option {
	return func(o *Options) { o.MCPConfigPath = pathOrJSON }
}

// WithExtraArg adds one caller-supplied CLI flag. An empty value means the
// flag is boolean (no argument follows it).
func WithExtraArg(flag, value string) Option {
	return func(o *Options) {
		if o.ExtraArgs == nil {
			o.ExtraArgs = map[string]string{}
		}
		o.ExtraArgs[flag] = value
	}
}

// WithHook registers a HookMatcher for the given event.
func WithHook(event HookEvent, matcher HookMatcher) Option {
	return func(o *Options) {
		if o.Hooks == nil {
			o.Hooks = map[HookEvent][]HookMatcher{}
		}
		o.Hooks[event] = append(o.Hooks[event], matcher)
	}
}

// WithStderr registers a callback receiving each line of CLI stderr.
func WithStderr(fn func(line string)) Option { return func(o *Options) { o.Stderr = fn } }

// WithRequestTimeout overrides the default 60s control-request timeout.
// Intended for tests; production callers should rarely need this.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.requestTimeout = d }
}

func (o *Options) requestTimeoutOrDefault() time.Duration {
	if o.requestTimeout <= 0 {
		return 60 * time.Second
	}
	return o.requestTimeout
}
