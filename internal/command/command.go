// Package command recognizes the bot's reserved inbound commands. Matching is
// exact (after trimming and case-folding) so ordinary conversational text that
// merely mentions a command is never intercepted.
package command

import "strings"

// Kind classifies an inbound message.
type Kind int

const (
	// KindChat is any message that should go to the AI backend.
	KindChat Kind = iota
	// KindClear resets the sender's conversation history.
	KindClear
	// KindHelp returns the command summary.
	KindHelp
)

// Canned replies for handled commands. Neither reaches the backend.
const (
	ClearReply = "✨ Conversation cleared! Starting fresh."
	HelpReply  = "🤖 iMessage AI Bot Commands:\n\n/clear - Reset conversation history\n/help - Show this message"
)

// Classify returns the command kind for text.
func Classify(text string) Kind {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/clear":
		return KindClear
	case "/help":
		return KindHelp
	default:
		return KindChat
	}
}
