// Package summarize turns a backlog snapshot into one classified
// completion outcome.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/witibot/witibot/internal/backlog"
	"github.com/witibot/witibot/internal/providers"
)

// OutcomeKind classifies how one completion call ended. The finish
// indicator is inspected exactly once, here; downstream code switches on
// the kind and never compares strings.
type OutcomeKind int

const (
	// OutcomeComplete means the model finished normally; Text holds the reply.
	OutcomeComplete OutcomeKind = iota
	// OutcomeTooLong means the model ran out of budget before finishing.
	// The partial text is discarded.
	OutcomeTooLong
	// OutcomeFiltered means the reply was blocked by the content policy.
	OutcomeFiltered
	// OutcomeTransportFailure means the request never produced a
	// classified response: connection error, timeout, or an indicator we
	// do not recognise.
	OutcomeTransportFailure
)

// Outcome is the tagged result of one pipeline invocation.
// Text is set only for OutcomeComplete.
type Outcome struct {
	Kind        OutcomeKind
	Text        string
	TotalTokens int
}

// Pipeline formats backlogs into prompts and classifies completion replies.
type Pipeline struct {
	completer providers.Completer
	timeout   time.Duration
}

// NewPipeline creates a Pipeline. timeout bounds each completion call;
// zero means 60 seconds.
func NewPipeline(completer providers.Completer, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Pipeline{completer: completer, timeout: timeout}
}

// FormatBacklog renders entries as "author: text" lines in chronological
// order, verbatim. This exact form is what the completion API sees.
func FormatBacklog(entries []backlog.Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Author + ": " + e.Text
	}
	return strings.Join(lines, "\n")
}

// Summarize requests a summary of entries in the given language and
// classifies the reply. One call, one outcome; no retries.
func (p *Pipeline) Summarize(ctx context.Context, entries []backlog.Entry, language string) Outcome {
	system := fmt.Sprintf("Summarize the following chat conversation in %s.", language)
	return p.run(ctx, system, FormatBacklog(entries))
}

// Prompt answers instruction using the backlog as context. An empty
// backlog is stated explicitly in the system instruction rather than
// silently omitted; the model behaves differently when told there is no
// context.
func (p *Pipeline) Prompt(ctx context.Context, entries []backlog.Entry, instruction string) Outcome {
	var system string
	if len(entries) == 0 {
		system = "You are a bot that listens to a conversation and answers any question a user has. " +
			"There is no conversation context yet."
	} else {
		system = "You are a bot that listens to a conversation and answers any question a user has. " +
			"The conversation context is:\n" + FormatBacklog(entries)
	}
	return p.run(ctx, system, instruction)
}

func (p *Pipeline) run(ctx context.Context, system, user string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	completion, err := p.completer.Complete(ctx, system, user)
	if err != nil {
		slog.Error("completion request failed", "err", err)
		return Outcome{Kind: OutcomeTransportFailure}
	}

	slog.Info("completion finished",
		"finish_reason", completion.FinishReason,
		"total_tokens", completion.TotalTokens)

	switch completion.FinishReason {
	case providers.FinishStop:
		return Outcome{Kind: OutcomeComplete, Text: completion.Text, TotalTokens: completion.TotalTokens}
	case providers.FinishLength:
		return Outcome{Kind: OutcomeTooLong, TotalTokens: completion.TotalTokens}
	case providers.FinishContentFilter:
		return Outcome{Kind: OutcomeFiltered, TotalTokens: completion.TotalTokens}
	default:
		slog.Warn("unrecognised finish reason", "finish_reason", completion.FinishReason)
		return Outcome{Kind: OutcomeTransportFailure, TotalTokens: completion.TotalTokens}
	}
}
