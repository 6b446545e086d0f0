package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"voice-alerts-go/internal/types"
)

// Telegram pages the on-call chat for new high priority alerts.
type Telegram struct {
	chatID  int64
	limiter *rate.Limiter
	send    func(ctx context.Context, params *bot.SendMessageParams) error
}

func NewTelegram(token string, chatID int64, ratePerSecond int) (*Telegram, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	t := newTelegram(chatID, ratePerSecond)
	t.send = func(ctx context.Context, params *bot.SendMessageParams) error {
		_, err := b.SendMessage(ctx, params)
		return err
	}
	return t, nil
}

func newTelegram(chatID int64, ratePerSecond int) *Telegram {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &Telegram{
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
	}
}

func (t *Telegram) Notify(ctx context.Context, ev Event) error {
	a := ev.Alert
	if ev.Type != EventAlertCreated || a.Urgency != types.UrgencyHigh || a.IsFalseAlarm {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}
	if err := t.send(ctx, &bot.SendMessageParams{ChatID: t.chatID, Text: message(a)}); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}

func message(a types.Alert) string {
	return fmt.Sprintf("%s\n%s | %s\n\n%s\n\nAlert #%d", a.Title, a.Department, a.Urgency, a.Transcript, a.ID)
}
