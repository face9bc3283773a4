package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"predictperp/internal/position"
)

// Telegram posts a one-line alert per liquidated account to a fixed
// chat. Disabled (every call is a no-op) when no bot token is
// configured, matching the example pack's "Telegram is optional"
// convention.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects to the Telegram bot API with token. Returns nil,
// nil if token is empty so callers can leave notifications disabled
// without special-casing construction.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("telegram notifier connected")
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) NotifyLiquidation(account string, positions []*position.Position) {
	if t == nil || t.api == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "liquidated %s: %d position(s)\n", account, len(positions))
	for _, p := range positions {
		fmt.Fprintf(&b, "  %s %s qty=%s margin=%s reward=%s\n", p.Market, p.Side, p.Quantity.String(), p.Margin.String(), p.LiquidatorReward.String())
	}

	msg := tgbotapi.NewMessage(t.chatID, b.String())
	if _, err := t.api.Send(msg); err != nil {
		log.Error().Err(err).Str("account", account).Msg("telegram notifier: send failed")
	}
}

var _ Port = (*Telegram)(nil)
