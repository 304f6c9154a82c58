// Package messenger implements the single "send with degrading content"
// path used by every reply and broadcast. A message is tried through an
// ordered chain of content transforms until one attempt is accepted.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/commitly/commitlybot/internal/logger"
	"github.com/commitly/commitlybot/internal/text"
)

// Sender is the chat transport. *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Message is outgoing content. Plain is an optional hand-written fallback
// used instead of mechanically stripping Text.
type Message struct {
	Text      string
	ParseMode models.ParseMode
	Plain     string
}

// Transform derives the next, simpler version of a message.
type Transform func(Message) Message

// AsIs sends the message unchanged.
func AsIs(m Message) Message { return m }

// PlainText drops the markup mode, preferring the hand-written fallback.
func PlainText(m Message) Message {
	if m.Plain != "" {
		return Message{Text: m.Plain}
	}
	switch m.ParseMode {
	case models.ParseModeHTML:
		return Message{Text: text.StripHTML(m.Text)}
	case models.ParseModeMarkdown, models.ParseModeMarkdownV1:
		return Message{Text: text.StripMarkdown(m.Text)}
	}
	return Message{Text: m.Text}
}

// StripDecorations is PlainText with emoji removed.
func StripDecorations(m Message) Message {
	p := PlainText(m)
	p.Text = text.StripDecorations(p.Text)
	return p
}

var (
	// ReplyChain is used for command replies: rich first, then plain.
	ReplyChain = []Transform{AsIs, PlainText}
	// BroadcastChain is used for scheduled broadcasts.
	BroadcastChain = []Transform{AsIs, StripDecorations}
)

// Result describes a successful delivery.
type Result struct {
	Attempts int
	// Degraded is set when an attempt other than the first was accepted.
	Degraded bool
}

// Messenger delivers messages through a Sender.
type Messenger struct {
	sender Sender
	log    *slog.Logger
}

// New creates a Messenger over sender.
func New(sender Sender, log *slog.Logger) *Messenger {
	if log == nil {
		log = logger.Discard()
	}
	return &Messenger{
		sender: sender,
		log:    log.With("component", "messenger"),
	}
}

// Deliver sends msg to chatID, walking chain until an attempt succeeds.
// An empty chain means ReplyChain. Attempts that would repeat the previous
// content exactly are skipped, and permanent failures end the chain early.
// The returned error is always a *DeliveryError.
func (m *Messenger) Deliver(ctx context.Context, chatID int64, msg Message, chain ...Transform) (Result, error) {
	if len(chain) == 0 {
		chain = ReplyChain
	}

	var (
		res     Result
		lastErr error
		prev    *Message
	)

	for _, transform := range chain {
		candidate := transform(msg)
		if candidate.Text == "" {
			continue
		}
		if prev != nil && candidate.Text == prev.Text && candidate.ParseMode == prev.ParseMode {
			continue
		}
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		res.Attempts++
		_, err := m.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      candidate.Text,
			ParseMode: candidate.ParseMode,
		})
		if err == nil {
			res.Degraded = res.Attempts > 1
			if res.Degraded {
				m.log.InfoContext(ctx, "Delivered degraded message", "chat_id", chatID, "attempts", res.Attempts)
			}
			return res, nil
		}

		lastErr = err
		reason := Classify(err)
		m.log.WarnContext(ctx, "Send attempt failed",
			"chat_id", chatID, "attempt", res.Attempts, "reason", reason, "error", err)
		if reason.Permanent() {
			break
		}
		c := candidate
		prev = &c
	}

	if lastErr == nil {
		lastErr = ErrEmptyMessage
	}
	return res, &DeliveryError{
		ChatID:   chatID,
		Reason:   Classify(lastErr),
		Attempts: res.Attempts,
		Err:      lastErr,
	}
}

// Reply is Deliver with ReplyChain and a last-resort plain apology.
// It reports whether the original content (in any form) was delivered.
func (m *Messenger) Reply(ctx context.Context, chatID int64, msg Message, apology string) bool {
	_, err := m.Deliver(ctx, chatID, msg, ReplyChain...)
	if err == nil {
		return true
	}

	m.log.ErrorContext(ctx, "Failed to deliver reply", "chat_id", chatID, "error", err)

	var derr *DeliveryError
	if errors.As(err, &derr) && derr.Reason.Permanent() {
		return false
	}
	if apology == "" {
		return false
	}
	if _, aerr := m.Deliver(ctx, chatID, Message{Text: apology}, AsIs); aerr != nil {
		m.log.ErrorContext(ctx, "Failed to deliver apology", "chat_id", chatID, "error", fmt.Errorf("apology: %w", aerr))
	}
	return false
}
