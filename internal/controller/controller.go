// Package controller routes chat intents against the backlog table, the
// access guard, and the summarization pipeline.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/witibot/witibot/internal/access"
	"github.com/witibot/witibot/internal/backlog"
	"github.com/witibot/witibot/internal/botlog"
	"github.com/witibot/witibot/internal/bus"
	"github.com/witibot/witibot/internal/store"
	"github.com/witibot/witibot/internal/summarize"
)

// User-facing texts. Fixed per classified outcome; the (possibly
// truncated) completion text is never shown for non-complete outcomes.
const (
	msgAlreadyListening = "I'm already listening to this chat."
	msgNotListening     = "I'm not listening to this chat."
	msgNotApproved      = "This chat isn't approved for listening."
	msgStoppedListening = "I will no longer listen to this chat."
	msgNoMessages       = "I haven't seen any messages yet."
	msgCleared          = "Cleared backlog."
	msgWorkingSummary   = "Generating summary..."
	msgWorkingPrompt    = "Answering prompt..."
	msgTooLong          = "I couldn't generate a summary because the chat was too long."
	msgFiltered         = "I couldn't generate a summary because the chat contained sensitive content."
	msgTransportFailure = "I couldn't reach the summarizer. Please try again later."
	msgNoPrompt         = "Please provide a prompt."
	msgReloaded         = "Reloaded message backlog."
)

// MenuService is the narrow surface of the cafeteria-menu collaborator.
// The controller forwards menu-family commands and delivers the reply.
type MenuService interface {
	Handles(command string) bool
	HandleCommand(ctx context.Context, conversation int64, command string, args []string) (reply string, html bool)
}

// Controller is the per-conversation state machine: Inactive → Active on
// start, Active → Inactive on stop, with log/show/clear/summarize/prompt
// admitted only while Active. It is the only component that mutates the
// backlog table.
type Controller struct {
	bus      bus.Bus
	table    *backlog.Table
	store    *store.Store
	guard    *access.Guard
	pipeline *summarize.Pipeline
	errors   *botlog.Collector
	menus    MenuService // nil disables menu commands

	transports      map[string]bus.Transport
	operatorChannel string

	defaultCapacity int
	printLimit      int
	defaultLanguage string

	wg sync.WaitGroup
}

// Options tunes controller behaviour beyond its collaborators.
type Options struct {
	DefaultCapacity int    // backlog capacity when /start gives none
	PrintLimit      int    // max entries rendered by /backlog
	DefaultLanguage string // summary language when -language is absent
	OperatorChannel string // transport used for operator notifications
}

func New(
	b bus.Bus,
	table *backlog.Table,
	st *store.Store,
	guard *access.Guard,
	pipeline *summarize.Pipeline,
	errors *botlog.Collector,
	opts Options,
) *Controller {
	if opts.DefaultCapacity < 1 {
		opts.DefaultCapacity = 100
	}
	if opts.PrintLimit < 1 {
		opts.PrintLimit = 10
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "English"
	}
	if opts.OperatorChannel == "" {
		opts.OperatorChannel = "telegram"
	}
	return &Controller{
		bus:             b,
		table:           table,
		store:           st,
		guard:           guard,
		pipeline:        pipeline,
		errors:          errors,
		transports:      make(map[string]bus.Transport),
		operatorChannel: opts.OperatorChannel,
		defaultCapacity: opts.DefaultCapacity,
		printLimit:      opts.PrintLimit,
		defaultLanguage: opts.DefaultLanguage,
	}
}

// RegisterTransport makes a channel's outbound side available under its
// name. Must be called before Run.
func (c *Controller) RegisterTransport(name string, t bus.Transport) {
	c.transports[name] = t
}

// SetMenus attaches the cafeteria-menu collaborator.
func (c *Controller) SetMenus(m MenuService) { c.menus = m }

// LoadSnapshot seeds the table from the persisted snapshot. Called once
// at process start and again on the operator's reload command.
func (c *Controller) LoadSnapshot() {
	c.table.Import(c.store.Load(c.defaultCapacity), c.defaultCapacity)
}

// Run consumes events until ctx is cancelled. Events are handled in
// arrival order, so operations within one conversation are applied in
// the order they were received. Slow external calls are dispatched off
// this loop after their snapshot is taken.
func (c *Controller) Run(ctx context.Context) error {
	slog.Info("controller started")
	for {
		select {
		case e := <-c.bus.Events():
			c.handle(ctx, e)
		case <-ctx.Done():
			slog.Info("controller stopping")
			c.wg.Wait()
			return ctx.Err()
		}
	}
}

// NotifyOperator sends text to the operator chat over the operator channel.
func (c *Controller) NotifyOperator(ctx context.Context, text string) {
	c.deliver(ctx, c.operatorChannel, c.guard.Operator(), text, bus.DeliverOptions{})
}

func (c *Controller) handle(ctx context.Context, e bus.Event) {
	if !e.IsCommand() {
		c.handleLog(ctx, e)
		return
	}

	if c.menus != nil && c.menus.Handles(e.Command()) {
		reply, html := c.menus.HandleCommand(ctx, e.Conversation(), e.Command(), e.Args())
		if reply != "" {
			c.deliver(ctx, e.Channel(), e.Conversation(), reply, bus.DeliverOptions{HTML: html})
		}
		return
	}

	switch e.Command() {
	case "start":
		c.handleStart(ctx, e)
	case "stop":
		c.requireActive(ctx, e, c.handleStop)
	case "backlog":
		c.requireActive(ctx, e, c.handleShow)
	case "clear":
		c.requireActive(ctx, e, c.handleClear)
	case "summarize":
		c.requireActive(ctx, e, c.handleSummarize)
	case "prompt":
		c.requireActive(ctx, e, c.handlePrompt)
	case "reload":
		c.handleReload(ctx, e)
	case "log":
		c.handleErrorLog(ctx, e)
	default:
		slog.Info("ignoring unknown command",
			"command", e.Command(), "conversation", e.Conversation(), "user", e.UserName())
	}
}

// requireActive admits a per-conversation command only while listening.
// The routing never reaches the table for inactive conversations.
func (c *Controller) requireActive(ctx context.Context, e bus.Event, fn func(context.Context, bus.Event)) {
	if !c.table.IsActive(backlog.ConversationID(e.Conversation())) {
		c.deliver(ctx, e.Channel(), e.Conversation(), msgNotListening, bus.DeliverOptions{})
		return
	}
	fn(ctx, e)
}

// handleLog records a plain message while listening. Messages for
// conversations that are not tracked are dropped at this gate.
func (c *Controller) handleLog(ctx context.Context, e bus.Event) {
	id := backlog.ConversationID(e.Conversation())
	if !c.table.IsActive(id) {
		slog.Debug("ignoring message from untracked conversation", "conversation", e.Conversation())
		return
	}
	c.table.Append(id, backlog.Entry{Author: e.AuthorName(), Text: e.Text()})
	c.persist(ctx)
	slog.Info("added message to backlog", "conversation", e.Conversation(), "title", e.Title())
}

func (c *Controller) handleStart(ctx context.Context, e bus.Event) {
	id := backlog.ConversationID(e.Conversation())
	if !c.guard.MayActivate(id, e.UserID()) {
		c.deliver(ctx, e.Channel(), e.Conversation(), msgNotApproved, bus.DeliverOptions{})
		slog.Warn("activation denied",
			"conversation", e.Conversation(), "user", e.UserID())
		return
	}

	capacity := c.defaultCapacity
	if args := e.Args(); len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 {
			capacity = n
		}
	}

	if !c.table.Activate(id, capacity) {
		c.deliver(ctx, e.Channel(), e.Conversation(), msgAlreadyListening, bus.DeliverOptions{})
		return
	}
	c.persist(ctx)

	c.deliver(ctx, e.Channel(), e.Conversation(),
		fmt.Sprintf("I will now start listening to this chat. "+
			"I will save the last %d messages and will summarize them to you if you ask me to.", capacity),
		bus.DeliverOptions{})

	slog.Info("started listening",
		"conversation", e.Conversation(), "title", e.Title(), "capacity", capacity)
}

func (c *Controller) handleStop(ctx context.Context, e bus.Event) {
	c.table.Deactivate(backlog.ConversationID(e.Conversation()))
	c.persist(ctx)
	c.deliver(ctx, e.Channel(), e.Conversation(), msgStoppedListening, bus.DeliverOptions{})
	slog.Info("stopped listening", "conversation", e.Conversation(), "title", e.Title())
}

func (c *Controller) handleShow(ctx context.Context, e bus.Event) {
	snap, _ := c.table.Snapshot(backlog.ConversationID(e.Conversation()))

	var text string
	switch {
	case len(snap) == 0:
		text = msgNoMessages
	case len(snap) < c.printLimit:
		text = "Here's what I've seen so far:\n" + summarize.FormatBacklog(snap)
	default:
		text = "Here's what I've seen so far:\n...\n" +
			summarize.FormatBacklog(snap[len(snap)-c.printLimit:])
	}
	c.deliver(ctx, e.Channel(), e.Conversation(), text, bus.DeliverOptions{})
	slog.Info("sent backlog", "conversation", e.Conversation(), "entries", len(snap))
}

func (c *Controller) handleClear(ctx context.Context, e bus.Event) {
	c.table.Clear(backlog.ConversationID(e.Conversation()))
	c.persist(ctx)
	c.deliver(ctx, e.Channel(), e.Conversation(), msgCleared, bus.DeliverOptions{})
	slog.Info("cleared backlog", "conversation", e.Conversation(), "title", e.Title())
}

func (c *Controller) handleSummarize(ctx context.Context, e bus.Event) {
	recipient := e.UserID()
	language := c.defaultLanguage
	args := e.Args()
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-ingroup":
			recipient = e.Conversation()
		case "-language":
			if i+1 < len(args) {
				language = args[i+1]
				i++
			}
		}
	}

	snap, _ := c.table.Snapshot(backlog.ConversationID(e.Conversation()))
	if len(snap) == 0 {
		c.deliver(ctx, e.Channel(), recipient, msgNoMessages, bus.DeliverOptions{})
		return
	}

	placeholder := c.deliver(ctx, e.Channel(), recipient, msgWorkingSummary, bus.DeliverOptions{})

	title := e.Title()
	if title == "" {
		title = "this chat"
	}
	channel := e.Channel()

	// The completion call may take seconds; it runs off the event loop
	// with the snapshot taken above. The summary describes the history
	// as of request time.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		outcome := c.pipeline.Summarize(ctx, snap, language)
		text, html := c.renderSummary(outcome, title, len(snap))
		c.deliver(ctx, channel, recipient, text, bus.DeliverOptions{HTML: html})
		c.deletePlaceholder(ctx, channel, recipient, placeholder)
		slog.Info("sent summary", "conversation", e.Conversation(), "recipient", recipient)
	}()
}

func (c *Controller) renderSummary(outcome summarize.Outcome, title string, entries int) (string, bool) {
	switch outcome.Kind {
	case summarize.OutcomeComplete:
		return fmt.Sprintf("<b>Here is the summary of the last <i>%d</i> messages in %s:</b>\n\n%s",
			entries, title, outcome.Text), true
	case summarize.OutcomeTooLong:
		return msgTooLong, false
	case summarize.OutcomeFiltered:
		return msgFiltered, false
	default:
		return msgTransportFailure, false
	}
}

func (c *Controller) handlePrompt(ctx context.Context, e bus.Event) {
	args := e.Args()
	if len(args) == 0 {
		c.deliver(ctx, e.Channel(), e.Conversation(), msgNoPrompt, bus.DeliverOptions{})
		return
	}
	instruction := strings.Join(args, " ")

	snap, _ := c.table.Snapshot(backlog.ConversationID(e.Conversation()))
	placeholder := c.deliver(ctx, e.Channel(), e.Conversation(), msgWorkingPrompt, bus.DeliverOptions{})

	conversation := e.Conversation()
	channel := e.Channel()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		outcome := c.pipeline.Prompt(ctx, snap, instruction)
		text, html := c.renderPrompt(outcome)
		c.deliver(ctx, channel, conversation, text, bus.DeliverOptions{HTML: html})
		c.deletePlaceholder(ctx, channel, conversation, placeholder)
		slog.Info("answered prompt", "conversation", conversation)
	}()
}

func (c *Controller) renderPrompt(outcome summarize.Outcome) (string, bool) {
	switch outcome.Kind {
	case summarize.OutcomeComplete:
		return outcome.Text, true
	case summarize.OutcomeTooLong:
		return msgTooLong, false
	case summarize.OutcomeFiltered:
		return msgFiltered, false
	default:
		return msgTransportFailure, false
	}
}

func (c *Controller) handleReload(ctx context.Context, e bus.Event) {
	if !c.guard.IsOperator(e.Conversation()) && !c.guard.IsOperator(e.UserID()) {
		return
	}
	c.LoadSnapshot()
	c.deliver(ctx, e.Channel(), e.Conversation(), msgReloaded, bus.DeliverOptions{})
	slog.Info("reloaded message backlog")
}

func (c *Controller) handleErrorLog(ctx context.Context, e bus.Event) {
	if !c.guard.IsOperator(e.Conversation()) && !c.guard.IsOperator(e.UserID()) {
		return
	}
	c.deliver(ctx, e.Channel(), e.Conversation(), c.errors.Render(), bus.DeliverOptions{})
}

// persist writes the current table to durable storage without blocking
// the triggering operation. In-memory state is authoritative; failures
// are logged and forwarded to the operator, never rolled back.
func (c *Controller) persist(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.store.Save(c.table.Export()); err != nil {
			slog.Error("snapshot save failed", "err", err)
			c.errors.Record("store", "snapshot save failed: %v", err)
			c.NotifyOperator(ctx, "Persistence failure: "+err.Error())
		}
	}()
}

// deliver sends text over the named channel and returns the message ID
// for later placeholder deletion (0 when unavailable).
func (c *Controller) deliver(ctx context.Context, channel string, conversation int64, text string, opts bus.DeliverOptions) int {
	t, ok := c.transports[channel]
	if !ok {
		slog.Error("no transport registered", "channel", channel)
		return 0
	}
	id, err := t.Deliver(ctx, conversation, text, opts)
	if err != nil {
		// Delivery failures are transient transport noise; count them
		// for the operator log without spamming it.
		slog.Warn("delivery failed", "channel", channel, "conversation", conversation, "err", err)
		c.errors.RecordIgnored()
		return 0
	}
	return id
}

func (c *Controller) deletePlaceholder(ctx context.Context, channel string, conversation int64, messageID int) {
	if messageID == 0 {
		return
	}
	t, ok := c.transports[channel]
	if !ok {
		return
	}
	if err := t.Delete(ctx, conversation, messageID); err != nil {
		slog.Warn("placeholder delete failed", "channel", channel, "err", err)
		c.errors.RecordIgnored()
	}
}
