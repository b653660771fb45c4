package doc

import "strings"

// PlainText renders a body to plain text, blocks separated by blank lines.
// Embeds render as nothing; their payloads are opaque to the engine.
func PlainText(body []Node) string {
	var parts []string
	for _, n := range body {
		if !n.IsBlock() {
			continue
		}
		if t := n.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
