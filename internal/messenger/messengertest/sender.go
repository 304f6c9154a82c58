// Package messengertest provides an in-memory chat transport for tests.
package messengertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Call records one SendMessage invocation.
type Call struct {
	ChatID    int64
	Text      string
	ParseMode models.ParseMode
	// Attempt is the 1-based index of this call among calls to the same chat.
	Attempt int
}

// Sender records calls and fails them according to Fail.
type Sender struct {
	// Fail decides the outcome of a call. Nil means every call succeeds.
	Fail func(c Call) error

	mu    sync.Mutex
	calls []Call
}

// SendMessage implements messenger.Sender.
func (s *Sender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	chatID, ok := params.ChatID.(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected chat id type %T", params.ChatID)
	}

	s.mu.Lock()
	attempt := 1
	for _, c := range s.calls {
		if c.ChatID == chatID {
			attempt++
		}
	}
	call := Call{ChatID: chatID, Text: params.Text, ParseMode: params.ParseMode, Attempt: attempt}
	s.calls = append(s.calls, call)
	fail := s.Fail
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail != nil {
		if err := fail(call); err != nil {
			return nil, err
		}
	}
	return &models.Message{ID: len(s.calls), Chat: models.Chat{ID: chatID}, Text: params.Text}, nil
}

// Calls returns a copy of every recorded call.
func (s *Sender) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the calls made to chatID in order.
func (s *Sender) CallsTo(chatID int64) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.ChatID == chatID {
			out = append(out, c)
		}
	}
	return out
}

// FailFirstAttempt returns a Fail func that rejects the first call to each
// listed chat with err.
func FailFirstAttempt(err error, chatIDs ...int64) func(Call) error {
	set := make(map[int64]bool, len(chatIDs))
	for _, id := range chatIDs {
		set[id] = true
	}
	return func(c Call) error {
		if set[c.ChatID] && c.Attempt == 1 {
			return err
		}
		return nil
	}
}

// FailAlways returns a Fail func that rejects every call to the listed chats.
func FailAlways(err error, chatIDs ...int64) func(Call) error {
	set := make(map[int64]bool, len(chatIDs))
	for _, id := range chatIDs {
		set[id] = true
	}
	return func(c Call) error {
		if set[c.ChatID] {
			return err
		}
		return nil
	}
}
