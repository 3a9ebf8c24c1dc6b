package claudeagent

import (
	"context"
	"iter"
)

// Query runs a single one-shot prompt against the CLI and returns an
// iterator over the resulting conversation messages, terminating after the
// Result message. It is a thin wrapper over Client.ConnectPrompt +
// ReceiveResponse for callers who don't need the full connect/disconnect
// lifecycle or a multi-turn session.
func Query(ctx context.Context, prompt string, opts ...Option) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		client, err := NewClient(opts...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer client.Close()

		if err := client.ConnectPrompt(ctx, prompt); err != nil {
			yield(nil, err)
			return
		}

		messages, err := client.ReceiveResponse()
		if err != nil {
			yield(nil, err)
			return
		}

		for msg := range messages {
			if !yield(msg, nil) {
				return
			}
		}
		if err := client.Err(); err != nil {
			yield(nil, err)
		}
	}
}
