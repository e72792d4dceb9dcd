// Package telegram handles the integration with the Telegram Bot API.
// It is responsible for receiving updates from Telegram, answering complaint
// lookups, and subscribing chats to the notification hub.
package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"sulabh/backend/internal/complaint"
	"sulabh/backend/internal/localization"
	"sulabh/backend/internal/models"
	"sulabh/backend/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const timeLayout = "02 Jan 2006 15:04 MST"

// BotService is responsible for receiving Telegram updates and answering them.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Messenger Messenger
	Hub       *notify.ManagerService
	Store     *complaint.Store
	Localizer *localization.Localizer
	Logger    *slog.Logger

	mu        sync.Mutex
	followers map[string]*Client
}

// NewBotService authorises against the Bot API with token.
func NewBotService(token string, hub *notify.ManagerService, store *complaint.Store, localizer *localization.Localizer, logger *slog.Logger) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	s := NewBotServiceWithMessenger(NewBotMessenger(bot), hub, store, localizer, logger)
	s.BotAPI = bot
	s.Logger.Info("telegram bot authorized", "account", bot.Self.UserName)
	return s, nil
}

// NewBotServiceWithMessenger builds a service that answers through m; Run
// is unavailable without a BotAPI.
func NewBotServiceWithMessenger(m Messenger, hub *notify.ManagerService, store *complaint.Store, localizer *localization.Localizer, logger *slog.Logger) *BotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BotService{
		Messenger: m,
		Hub:       hub,
		Store:     store,
		Localizer: localizer,
		Logger:    logger,
		followers: make(map[string]*Client),
	}
}

// Run is the main loop for receiving Telegram updates. It returns when ctx ends.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)
	defer s.BotAPI.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				s.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// HandleMessage answers one incoming message.
func (s *BotService) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID
	lang := localization.DefaultLanguage
	if msg.From != nil && msg.From.LanguageCode != "" {
		lang = msg.From.LanguageCode
	}
	arg := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))

	var reply string
	switch msg.Command() {
	case "start":
		reply = s.Localizer.GetString(lang, "start")
	case "help":
		reply = s.Localizer.GetString(lang, "help")
	case "track":
		reply = s.handleTrack(ctx, lang, arg)
	case "follow":
		reply = s.handleFollow(ctx, chatID, lang, arg)
	case "unfollow":
		reply = s.handleUnfollow(chatID, lang, arg)
	default:
		reply = s.Localizer.GetString(lang, "unknown_command")
	}

	s.reply(chatID, reply)
}

func (s *BotService) handleTrack(ctx context.Context, lang, id string) string {
	if id == "" {
		return s.Localizer.GetString(lang, "track_usage")
	}
	c, err := s.Store.Track(ctx, id)
	if err != nil {
		s.Logger.Error("telegram track failed", "complaint_id", id, "error", err)
		return s.Localizer.GetString(lang, "error")
	}
	if c == nil {
		return s.Localizer.Format(lang, "not_found", id)
	}
	return s.describe(lang, c)
}

func (s *BotService) handleFollow(ctx context.Context, chatID int64, lang, id string) string {
	if id == "" {
		return s.Localizer.GetString(lang, "follow_usage")
	}
	c, err := s.Store.Track(ctx, id)
	if err != nil {
		s.Logger.Error("telegram follow lookup failed", "complaint_id", id, "error", err)
		return s.Localizer.GetString(lang, "error")
	}
	if c == nil {
		return s.Localizer.Format(lang, "not_found", id)
	}

	key := followerID(chatID, c.ID)
	if s.Hub.HasClient(key) {
		return s.Localizer.Format(lang, "following", c.ID)
	}

	client := NewClient(chatID, c.ID, lang, s.Messenger, s.Localizer, s.Logger)
	client.Run()
	if !s.Hub.Register(client) {
		client.Close()
		return s.Localizer.GetString(lang, "error")
	}

	s.mu.Lock()
	s.followers[key] = client
	s.mu.Unlock()
	s.Logger.Info("telegram chat following complaint", "chat_id", chatID, "complaint_id", c.ID)
	return s.Localizer.Format(lang, "following", c.ID)
}

func (s *BotService) handleUnfollow(chatID int64, lang, id string) string {
	if id == "" {
		return s.Localizer.GetString(lang, "unfollow_usage")
	}
	key := followerID(chatID, id)

	s.mu.Lock()
	client, ok := s.followers[key]
	delete(s.followers, key)
	s.mu.Unlock()

	if !ok || !s.Hub.HasClient(key) {
		return s.Localizer.Format(lang, "not_following", id)
	}
	s.Hub.Unregister(client)
	return s.Localizer.Format(lang, "unfollowed", id)
}

// describe renders the public summary of a complaint.
func (s *BotService) describe(lang string, c *models.Complaint) string {
	last := ""
	if u := c.LastUpdate(); u != nil {
		last = u.Message
	}
	return s.Localizer.Format(lang, "track_result",
		c.ID,
		s.Localizer.GetString(lang, "status_"+string(c.Status)),
		s.Localizer.GetString(lang, "category_"+string(c.Category)),
		last,
		c.UpdatedAt.Format(timeLayout),
	)
}

func (s *BotService) reply(chatID int64, text string) {
	if err := s.Messenger.SendText(chatID, text); err != nil {
		s.Logger.Error("failed to send telegram reply", "chat_id", chatID, "error", err)
	}
}
