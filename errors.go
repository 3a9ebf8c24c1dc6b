package claudeagent

import "fmt"

// ErrCLINotFound indicates that the Claude Code CLI executable could not be
// located via the environment override, PATH, or any well-known install
// location.
//
// NodeMissing is set when a Node.js runtime could also not be found, in
// which case the caller should be told to install Node.js rather than the
// CLI package itself.
type ErrCLINotFound struct {
	NodeMissing bool
}

// Error implements the error interface.
func (e *ErrCLINotFound) Error() string {
	if e.NodeMissing {
		return "claude CLI not found and Node.js runtime is missing; " +
			"install Node.js, then the Claude Code CLI"
	}
	return "claude CLI not found on PATH or in well-known install locations; " +
		"install the Claude Code CLI package"
}

// ErrConnection covers transport-not-ready, write failures, control-request
// timeouts, server-reported control errors, and options validation
// failures. Client lifecycle violations are reported as ErrClientState.
type ErrConnection struct {
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *ErrConnection) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("connection error: %s", e.Reason)
}

// Unwrap implements the unwrap interface for error chains.
func (e *ErrConnection) Unwrap() error { return e.Cause }

// ErrProcess indicates the CLI subprocess exited with a non-zero exit code.
// It carries the exit code and the stderr captured while it ran.
type ErrProcess struct {
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ErrProcess) Error() string {
	return fmt.Sprintf("claude CLI exited with code %d: %s", e.ExitCode, e.Stderr)
}

// ErrJSONDecode indicates the reader's line-accumulation buffer overflowed
// its fixed cap before a complete JSON object was assembled.
type ErrJSONDecode struct {
	Reason string
}

// Error implements the error interface.
func (e *ErrJSONDecode) Error() string {
	return fmt.Sprintf("json decode error: %s", e.Reason)
}

// ErrParse indicates MessageParser rejected an envelope. Payload retains the
// offending raw bytes for diagnostics.
type ErrParse struct {
	Reason  string
	Payload []byte
}

// Error implements the error interface.
func (e *ErrParse) Error() string {
	return fmt.Sprintf("parse error: %s", e.Reason)
}

// ErrClientState indicates a caller-facing Client operation was attempted
// outside the lifecycle state it requires (e.g. Query before Connect).
type ErrClientState struct {
	Operation string
	State     string
}

// Error implements the error interface.
func (e *ErrClientState) Error() string {
	return fmt.Sprintf("%s: client is %s", e.Operation, e.State)
}
