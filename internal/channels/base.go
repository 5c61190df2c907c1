// Package channels provides chat-platform channel implementations.
package channels

import (
	"context"
	"strings"
)

// Channel is a connected chat platform. Start blocks until ctx is
// cancelled; inbound traffic is published to the event bus, outbound
// traffic goes through the channel's Transport methods.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
}

// parseSlashCommand splits "/cmd arg1 arg2" into its parts. Returns
// ok=false when text is not a slash command.
func parseSlashCommand(text string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields[0]) < 2 || fields[0][0] != '/' {
		return "", nil, false
	}
	name = fields[0][1:]
	// Strip a bot mention suffix ("/start@witibot").
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", nil, false
	}
	return name, fields[1:], true
}

// splitMessage splits content into chunks that fit within maxLen,
// preferring newline breaks, then space breaks, then hard cut.
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}
	var chunks []string
	for len(content) > 0 {
		if len(content) <= maxLen {
			chunks = append(chunks, content)
			break
		}
		cut := content[:maxLen]
		pos := strings.LastIndex(cut, "\n")
		if pos <= 0 {
			pos = strings.LastIndex(cut, " ")
		}
		if pos <= 0 {
			pos = maxLen
		}
		chunks = append(chunks, content[:pos])
		content = strings.TrimLeft(content[pos:], " \t")
	}
	return chunks
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
