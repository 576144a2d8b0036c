package notification

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/scaffold-shop/internal/order"
)

// TelegramAlerter pushes new-order alerts to the staff chat.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

// NewOrderAlert notifies staff that a paid order arrived.
func (t *TelegramAlerter) NewOrderAlert(e order.OrderCreated) error {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", e.OrderID)
	fmt.Fprintf(&b, "Customer: %s\n", e.CustomerEmail)
	fmt.Fprintf(&b, "Total: $%.2f\n", e.TotalAmount)
	for _, item := range e.Items {
		fmt.Fprintf(&b, "- %s: %g %s @ $%.2f/%s\n", item.Name, item.Weight, item.Unit, item.PricePerUnit, item.Unit)
	}

	msg := tgbotapi.NewMessage(t.chatID, b.String())
	_, err := t.bot.Send(msg)
	return err
}
