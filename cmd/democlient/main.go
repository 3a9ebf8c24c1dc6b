// Command democlient demonstrates a single one-shot prompt against the
// Claude Code CLI using the one-shot convenience wrapper.
//
// Usage:
//
//	go run ./cmd/democlient "What is 2+2?"
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	claudeagent "github.com/kagenova/claude-agent-sdk-go"
)

func main() {
	if os.Getenv("CLAUDE_CODE_OAUTH_TOKEN") == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: CLAUDE_CODE_OAUTH_TOKEN or ANTHROPIC_API_KEY must be set")
		os.Exit(1)
	}

	prompt := "What is 2+2? Answer briefly."
	if len(os.Args) > 1 {
		prompt = strings.Join(os.Args[1:], " ")
	}

	fmt.Printf("Prompt: %s\n\n", prompt)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("Response:")
	fmt.Println("---------")

	for msg, err := range claudeagent.Query(ctx, prompt,
		claudeagent.WithSystemPrompt("You are a helpful assistant. Keep responses brief and to the point."),
		claudeagent.WithModel("claude-sonnet-4-5-20250929"),
		claudeagent.WithPermissionMode(claudeagent.PermissionModeDefault),
	) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		switch m := msg.(type) {
		case claudeagent.AssistantMessage:
			fmt.Print(m.Text())
		case claudeagent.ResultMessage:
			fmt.Printf("\n\n(turns=%d duration_ms=%d)\n", m.NumTurns, m.DurationMs)
		}
	}
}
