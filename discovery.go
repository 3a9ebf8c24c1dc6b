package claudeagent

import (
	"os"
	"os/exec"
	"path/filepath"
)

// cliPathEnvVar is the environment variable that, if set, overrides CLI
// discovery entirely.
const cliPathEnvVar = "CLAUDE_CODE_CLI_PATH"

// discoverCLIPath locates the Claude Code CLI executable.
//
// Search order:
//  1. The CLAUDE_CODE_CLI_PATH environment override (or Options.CLIPath,
//     which takes precedence over the environment since it is explicit
//     caller configuration).
//  2. "claude" on PATH.
//  3. A fixed list of well-known install locations under the user's home
//     directory and common system prefixes.
//
// If nothing is found, the returned error specifically blames a missing
// Node.js runtime when that is also absent, since the CLI is a Node
// executable and most "not found" cases in practice are an incomplete
// Node install rather than a missing package.
func discoverCLIPath(opts *Options) (string, error) {
	if opts != nil && opts.CLIPath != "" {
		return opts.CLIPath, nil
	}

	if p := os.Getenv(cliPathEnvVar); p != "" {
		return p, nil
	}

	if p, err := exec.LookPath("claude"); err == nil {
		return p, nil
	}

	for _, p := range wellKnownCLIPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	return "", &ErrCLINotFound{NodeMissing: !hasNodeRuntime()}
}

// wellKnownCLIPaths enumerates fixed install locations checked as a last
// resort before giving up.
func wellKnownCLIPaths() []string {
	home, _ := os.UserHomeDir()

	var paths []string
	if home != "" {
		paths = append(paths,
			filepath.Join(home, ".claude", "local", "claude"),
			filepath.Join(home, ".local", "bin", "claude"),
			filepath.Join(home, ".npm-global", "bin", "claude"),
			filepath.Join(home, "node_modules", ".bin", "claude"),
		)
	}
	paths = append(paths,
		"/usr/local/bin/claude",
		"/usr/bin/claude",
		"/opt/homebrew/bin/claude",
	)
	return paths
}

// hasNodeRuntime reports whether a Node.js runtime is available on PATH.
func hasNodeRuntime() bool {
	_, err := exec.LookPath("node")
	return err == nil
}
