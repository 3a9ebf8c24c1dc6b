package claudeagent

import "strconv"

// hookRegistry maps synthetic callback_id (minted once at initialize) to the
// caller-supplied callback. Populated only during initialize, never mutated
// thereafter.
type hookRegistry struct {
	callbacks map[string]HookCallback
}

func newHookRegistry() *hookRegistry {
	return &hookRegistry{callbacks: make(map[string]HookCallback)}
}

// buildInitHooksPayload enumerates opts.Hooks per event, minting a fresh
// "hook_<n>" id for each matcher via counter, registering it in the
// registry, and returning the hooks payload shape the CLI expects in the
// initialize control request.
//
//	{ "PreToolUse": [ {"matcher": "Bash", "hookCallbackIds": ["hook_0"]} ] }
func buildInitHooksPayload(opts *Options, reg *hookRegistry) map[string]interface{} {
	if len(opts.Hooks) == 0 {
		return nil
	}

	payload := make(map[string]interface{}, len(opts.Hooks))
	counter := 0

	// Deterministic event iteration keeps hook_N ids stable across runs for
	// a given Options value, which matters for tests asserting exact ids.
	for _, event := range []HookEvent{
		HookEventPreToolUse,
		HookEventPostToolUse,
		HookEventUserPromptSubmit,
		HookEventStop,
		HookEventSubagentStop,
		HookEventPreCompact,
	} {
		matchers, ok := opts.Hooks[event]
		if !ok || len(matchers) == 0 {
			continue
		}

		entries := make([]map[string]interface{}, 0, len(matchers))
		for _, m := range matchers {
			id := mintHookCallbackID(counter)
			counter++
			reg.callbacks[id] = m.Callback

			entries = append(entries, map[string]interface{}{
				"matcher":         m.Matcher,
				"hookCallbackIds": []string{id},
			})
		}
		payload[string(event)] = entries
	}

	return payload
}

func mintHookCallbackID(n int) string {
	return "hook_" + strconv.Itoa(n)
}

// runHookCallback looks up callback_id in the registry and, if found,
// invokes it. Returns (result, found, err), where err is the callback's own
// error; hookResultFields renders the result for the control response.
func runHookCallback(reg *hookRegistry, callbackID string, toolUseID *string, input map[string]interface{}) (HookResult, bool, error) {
	cb, ok := reg.callbacks[callbackID]
	if !ok {
		return HookResult{}, false, nil
	}

	ctx := &HookContext{ToolUseID: toolUseID}
	result, err := cb(ctx, input)
	return result, true, err
}

// hookResultFields renders only the fields the callback actually set, per
// the "only the fields the callback set" response contract.
func hookResultFields(r HookResult) map[string]interface{} {
	out := map[string]interface{}{}
	if r.decisionSet {
		out["decision"] = r.Decision
	}
	if r.systemMessageSet {
		out["systemMessage"] = r.SystemMessage
	}
	if r.outputSet {
		out["hookSpecificOutput"] = r.HookSpecificOutput
	}
	return out
}
