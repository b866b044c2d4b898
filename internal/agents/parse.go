package agents

import "strings"

// stripCodeFences removes a surrounding markdown code block, with or without
// a language tag, so fenced JSON from the model parses cleanly.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	body := parts[1]
	if strings.HasPrefix(body, "json") {
		body = body[len("json"):]
	}
	return strings.TrimSpace(body)
}
