// Package relay implements the message-relay loop: poll the Messages
// database for new inbound entries, decide which merit an automated reply,
// obtain the reply from the completion backend, and send it back over
// iMessage.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adhikary97/imsgbot/internal/bus"
	"github.com/adhikary97/imsgbot/internal/chatdb"
	"github.com/adhikary97/imsgbot/internal/command"
	"github.com/adhikary97/imsgbot/internal/contacts"
	"github.com/adhikary97/imsgbot/internal/echo"
	"github.com/adhikary97/imsgbot/internal/history"
	"github.com/adhikary97/imsgbot/internal/llm"
)

// User-facing replies for backend failures. These are sent and fingerprinted
// like any other reply, so the loop-suppression invariant holds for them too.
const (
	replyServerDown = "⚠️ AI server is not running. Please start the Apple Intelligence API."
	replyTimeout    = "⏱️ Response took too long. Please try again."
	replyAPIError   = "Sorry, I couldn't process that. Please try again."
	replyGeneric    = "Something went wrong. Please try again."
)

// pruneWindow is how far below the watermark processed rowids are retained.
// Rowids are monotonic and polls only ever ask for ids above the watermark,
// so anything this far behind can never reappear. Sized at twice the fetch
// batch cap.
const pruneWindow = 100

// Source is the read-only message log.
type Source interface {
	LatestRowID(ctx context.Context) (int64, error)
	FetchSince(ctx context.Context, since int64) ([]chatdb.Message, error)
}

// Completer produces a reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Sender delivers a reply to a recipient handle. Fire-and-forget.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
}

// Publisher emits lifecycle events for external observers. Optional.
type Publisher interface {
	Publish(subject string, data any) error
}

// Options wires a Relay's collaborators.
type Options struct {
	Source   Source
	LLM      Completer
	Sender   Sender
	Bus      Publisher // may be nil
	Contacts contacts.AllowList
	History  *history.Store
	Echo     *echo.Cache
	Model    string
	Interval time.Duration
	Logger   *slog.Logger
}

// Relay owns the polling loop and all of its state. The watermark and
// processed set are mutated only from the loop goroutine; the mutex exists so
// Status can be read from the diagnostics API.
type Relay struct {
	source   Source
	llm      Completer
	sender   Sender
	bus      Publisher
	contacts contacts.AllowList
	history  *history.Store
	echo     *echo.Cache
	model    string
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	watermark int64
	processed map[int64]struct{}
	replied   int64
	skipped   int64
	startedAt time.Time
}

// Status is a point-in-time snapshot for the diagnostics API.
type Status struct {
	Watermark     int64     `json:"watermark"`
	Processed     int       `json:"processed"`
	Replied       int64     `json:"replied"`
	Skipped       int64     `json:"skipped"`
	Conversations int       `json:"conversations"`
	Model         string    `json:"model"`
	StartedAt     time.Time `json:"started_at"`
}

// New creates a relay. Interval defaults to one second.
func New(opts Options) *Relay {
	interval := opts.Interval
	if interval == 0 {
		interval = time.Second
	}
	return &Relay{
		source:    opts.Source,
		llm:       opts.LLM,
		sender:    opts.Sender,
		bus:       opts.Bus,
		contacts:  opts.Contacts,
		history:   opts.History,
		echo:      opts.Echo,
		model:     opts.Model,
		interval:  interval,
		logger:    opts.Logger,
		processed: make(map[int64]struct{}),
	}
}

// Run polls until ctx is cancelled. The watermark starts at the log's current
// maximum rowid so historical messages are never replayed. Returns an error
// only if that startup read fails; afterwards the loop has no fatal errors.
func (r *Relay) Run(ctx context.Context) error {
	last, err := r.source.LatestRowID(ctx)
	if err != nil {
		return fmt.Errorf("resolve starting rowid: %w", err)
	}

	r.mu.Lock()
	r.watermark = last
	r.startedAt = time.Now()
	r.mu.Unlock()

	r.logger.Info("relay started", "start_rowid", last, "poll_interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay stopped")
			return nil
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

// Status returns a snapshot of the relay's counters.
func (r *Relay) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Watermark:     r.watermark,
		Processed:     len(r.processed),
		Replied:       r.replied,
		Skipped:       r.skipped,
		Conversations: r.history.Active(),
		Model:         r.model,
		StartedAt:     r.startedAt,
	}
}

// cycle fetches and handles one batch. Read failures are transient: log,
// return an empty cycle, retry on the next tick.
func (r *Relay) cycle(ctx context.Context) {
	batch, err := r.source.FetchSince(ctx, r.currentWatermark())
	if err != nil {
		r.logger.Error("error reading messages", "error", err)
		return
	}

	for _, msg := range batch {
		if ctx.Err() != nil {
			return
		}
		if r.seen(msg.RowID) {
			continue
		}
		r.handle(ctx, msg)
	}

	r.prune()
}

// handle runs one entry through the dispatch chain: echo suppression, the
// contact filter, command short-circuits, then the chat path. The entry is
// marked processed before anything else so no step runs twice for it.
func (r *Relay) handle(ctx context.Context, msg chatdb.Message) {
	r.markProcessed(msg.RowID)

	logger := r.logger.With(
		"trace_id", uuid.NewString(),
		"rowid", msg.RowID,
		"sender", msg.Sender,
	)

	if r.echo.RecentlySent(msg.Text) {
		logger.Info("skipped own message (loop prevention)")
		r.bumpSkipped()
		return
	}

	if !r.contacts.Allowed(msg.Sender) {
		logger.Info("ignored message from sender not in allow-list")
		r.bumpSkipped()
		return
	}

	if msg.Sender == "" {
		logger.Warn("message has no sender handle or chat id, cannot reply")
		r.bumpSkipped()
		return
	}

	r.publish(bus.SubjectReceived, map[string]any{
		"rowid":  msg.RowID,
		"sender": msg.Sender,
		"chars":  len(msg.Text),
	})

	switch command.Classify(msg.Text) {
	case command.KindClear:
		r.history.Clear(msg.Sender)
		logger.Info("cleared conversation history")
		r.sendReply(ctx, logger, msg.Sender, command.ClearReply)
		return
	case command.KindHelp:
		r.sendReply(ctx, logger, msg.Sender, command.HelpReply)
		return
	}

	logger.Info("inbound message", "chars", len(msg.Text))

	r.history.AppendUser(msg.Sender, msg.Text)

	reply, err := r.llm.Complete(ctx, toMessages(r.history.For(msg.Sender)))
	if err != nil {
		logger.Error("completion failed", "error", err)
		reply = apologyFor(err)
	} else {
		r.history.AppendAssistant(msg.Sender, reply)
	}

	r.sendReply(ctx, logger, msg.Sender, reply)
}

// sendReply fingerprints text before handing it to the transport, so the
// reply is recognized as ours even if its echo lands in the log immediately.
// Send failures are logged per entry and never block the cycle.
func (r *Relay) sendReply(ctx context.Context, logger *slog.Logger, recipient, text string) {
	r.echo.Record(text)

	if err := r.sender.Send(ctx, recipient, text); err != nil {
		logger.Error("failed to send reply", "error", err)
		r.publish(bus.SubjectReplyFailed, map[string]any{
			"recipient": recipient,
			"error":     err.Error(),
		})
		return
	}

	logger.Info("reply sent", "preview", preview(text))
	r.mu.Lock()
	r.replied++
	r.mu.Unlock()

	r.publish(bus.SubjectReplySent, map[string]any{
		"recipient": recipient,
		"chars":     len(text),
	})
}

func (r *Relay) publish(subject string, data map[string]any) {
	if r.bus == nil {
		return
	}
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	if err := r.bus.Publish(subject, data); err != nil {
		r.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func (r *Relay) currentWatermark() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watermark
}

func (r *Relay) markProcessed(rowID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[rowID] = struct{}{}
	if rowID > r.watermark {
		r.watermark = rowID
	}
}

func (r *Relay) seen(rowID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.processed[rowID]
	return ok
}

// prune drops processed rowids far enough below the watermark that no future
// poll can return them, keeping the set bounded for long runs.
func (r *Relay) prune() {
	r.mu.Lock()
	defer r.mu.Unlock()
	horizon := r.watermark - pruneWindow
	for id := range r.processed {
		if id <= horizon {
			delete(r.processed, id)
		}
	}
}

func (r *Relay) bumpSkipped() {
	r.mu.Lock()
	r.skipped++
	r.mu.Unlock()
}

func toMessages(turns []history.Turn) []llm.Message {
	msgs := make([]llm.Message, len(turns))
	for i, t := range turns {
		msgs[i] = llm.Message{Role: t.Role, Content: t.Content}
	}
	return msgs
}

// apologyFor maps a backend failure to the fixed reply the correspondent
// sees.
func apologyFor(err error) string {
	var se *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrUnavailable):
		return replyServerDown
	case errors.Is(err, llm.ErrTimeout):
		return replyTimeout
	case errors.As(err, &se):
		return replyAPIError
	default:
		return replyGeneric
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= 100 {
		return text
	}
	return string(runes[:100]) + "..."
}
