// Package imessage delivers outbound replies through Messages.app via
// AppleScript. Requires macOS with an active iMessage account.
package imessage

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Sender sends texts with osascript. Each send gets its own timeout; a hung
// Messages.app must not stall the relay loop indefinitely.
type Sender struct {
	timeout time.Duration
	logger  *slog.Logger

	// run executes the compiled AppleScript; replaced in tests.
	run func(ctx context.Context, script string) error
}

// NewSender creates a sender with the given per-send timeout.
func NewSender(timeout time.Duration, logger *slog.Logger) *Sender {
	return &Sender{
		timeout: timeout,
		logger:  logger,
		run:     runOsascript,
	}
}

// Send delivers text to the recipient handle. Fire-and-forget: a failure is
// returned but there is no retry or delivery confirmation.
func (s *Sender) Send(ctx context.Context, recipient, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug("sending imessage", "recipient", recipient, "chars", len(text))

	script := buildScript(recipient, text)
	if err := s.run(ctx, script); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("send to %s timed out after %s: %w", recipient, s.timeout, err)
		}
		return fmt.Errorf("send to %s: %w", recipient, err)
	}
	return nil
}

func runOsascript(ctx context.Context, script string) error {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func buildScript(recipient, text string) string {
	return fmt.Sprintf(`tell application "Messages"
	set targetService to 1st account whose service type = iMessage
	set targetBuddy to participant "%s" of targetService
	send "%s" to targetBuddy
end tell`, escape(recipient), escape(text))
}

// escape neutralizes the characters AppleScript string literals care about.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
