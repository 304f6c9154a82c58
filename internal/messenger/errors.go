package messenger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
)

// ErrEmptyMessage is returned when every transform produced empty text.
var ErrEmptyMessage = errors.New("message is empty")

// Reason classifies why a delivery failed.
type Reason string

const (
	ReasonBlocked      Reason = "blocked"
	ReasonChatNotFound Reason = "chat_not_found"
	ReasonMarkup       Reason = "markup"
	ReasonCanceled     Reason = "canceled"
	ReasonEmpty        Reason = "empty"
	ReasonUnknown      Reason = "unknown"
)

// Permanent reports whether resending different content cannot help.
func (r Reason) Permanent() bool {
	switch r {
	case ReasonBlocked, ReasonChatNotFound, ReasonCanceled, ReasonEmpty:
		return true
	default:
		return false
	}
}

// DeliveryError is returned by Deliver when no attempt was accepted.
type DeliveryError struct {
	ChatID   int64
	Reason   Reason
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to chat %d failed after %d attempt(s) (%s): %v", e.ChatID, e.Attempts, e.Reason, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Classify maps a transport error to a Reason. Telegram reports most
// failures as 400/403 with a free-form description, so the description is
// inspected too.
func Classify(err error) Reason {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonCanceled
	}
	if errors.Is(err, ErrEmptyMessage) {
		return ReasonEmpty
	}

	desc := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, bot.ErrorForbidden),
		strings.Contains(desc, "bot was blocked"),
		strings.Contains(desc, "user is deactivated"),
		strings.Contains(desc, "bot was kicked"):
		return ReasonBlocked
	case strings.Contains(desc, "chat not found"),
		strings.Contains(desc, "user not found"),
		strings.Contains(desc, "peer_id_invalid"):
		return ReasonChatNotFound
	case strings.Contains(desc, "can't parse entities"),
		strings.Contains(desc, "can't find end of"),
		strings.Contains(desc, "unsupported start tag"):
		return ReasonMarkup
	default:
		return ReasonUnknown
	}
}
