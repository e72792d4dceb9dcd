package telegram

import (
	"fmt"
	"log/slog"
	"sync"

	"sulabh/backend/internal/localization"
	"sulabh/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger delivers plain-text messages to a Telegram chat.
type Messenger interface {
	SendText(chatID int64, text string) error
}

type botMessenger struct {
	api *tgbotapi.BotAPI
}

// NewBotMessenger sends through the Bot API.
func NewBotMessenger(api *tgbotapi.BotAPI) Messenger {
	return &botMessenger{api: api}
}

func (m *botMessenger) SendText(chatID int64, text string) error {
	_, err := m.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Client implements notify.Client for a Telegram chat following one complaint.
type Client struct {
	ChatID      int64
	ComplaintID string
	Lang        string
	Send        chan models.ComplaintEvent
	Messenger   Messenger
	Localizer   *localization.Localizer
	Logger      *slog.Logger

	closeOnce sync.Once
}

func NewClient(chatID int64, complaintID, lang string, m Messenger, l *localization.Localizer, logger *slog.Logger) *Client {
	return &Client{
		ChatID:      chatID,
		ComplaintID: complaintID,
		Lang:        lang,
		Send:        make(chan models.ComplaintEvent, 10),
		Messenger:   m,
		Localizer:   l,
		Logger:      logger,
	}
}

func followerID(chatID int64, complaintID string) string {
	return fmt.Sprintf("tg:%d:%s", chatID, complaintID)
}

func (c *Client) GetID() string                                { return followerID(c.ChatID, c.ComplaintID) }
func (c *Client) GetComplaintID() string                       { return c.ComplaintID }
func (c *Client) GetSendChannel() chan<- models.ComplaintEvent { return c.Send }

// Run starts the write pump. Incoming messages are handled centrally by BotService.
func (c *Client) Run() {
	go c.writePump()
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *Client) writePump() {
	for event := range c.Send {
		if err := c.Messenger.SendText(c.ChatID, c.render(event)); err != nil {
			c.Logger.Error("failed to deliver complaint event", "chat_id", c.ChatID, "complaint_id", c.ComplaintID, "error", err)
		}
	}
	c.Logger.Debug("telegram follower stopped", "chat_id", c.ChatID, "complaint_id", c.ComplaintID)
}

func (c *Client) render(event models.ComplaintEvent) string {
	status := c.Localizer.GetString(c.Lang, "status_"+string(event.Status))
	if event.Message == "" {
		return c.Localizer.Format(c.Lang, "event_update", event.ComplaintID, status)
	}
	return c.Localizer.Format(c.Lang, "event_update_message", event.ComplaintID, status, event.Message)
}
