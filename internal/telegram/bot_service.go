// Package telegram is the citizen intake channel on Telegram. Free text and
// captioned photos become complaints; commands set the chat's ward and
// language and look up complaint status.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"civiclens/backend/internal/complaint"
	"civiclens/backend/internal/escalation"
	"civiclens/backend/internal/localization"
	"civiclens/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Intake is the complaint service as seen by the bot.
type Intake interface {
	Submit(ctx context.Context, text, ward, imageName string) (models.Complaint, error)
	Get(id string) (models.Complaint, error)
	EscalationFor(c models.Complaint) escalation.Status
}

// BotService receives Telegram updates and turns them into complaint operations.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Sender    Sender
	Intake    Intake
	Prefs     Preferences
	Localizer *localization.Localizer
	Logger    *zap.Logger
}

// NewBotService authorizes against the Bot API with token.
func NewBotService(token string, intake Intake, prefs Preferences, localizer *localization.Localizer, logger *zap.Logger) (*BotService, error) {
	return NewBotServiceWithEndpoint(token, tgbotapi.APIEndpoint, intake, prefs, localizer, logger)
}

// NewBotServiceWithEndpoint authorizes against a Bot API server at endpoint,
// formatted like tgbotapi.APIEndpoint.
func NewBotServiceWithEndpoint(token, endpoint string, intake Intake, prefs Preferences, localizer *localization.Localizer, logger *zap.Logger) (*BotService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	bot.Debug = false
	logger.Info("Authorized on Telegram", zap.String("account", bot.Self.UserName))

	s := NewBotServiceWithSender(bot, intake, prefs, localizer, logger)
	s.BotAPI = bot
	return s, nil
}

// NewBotServiceWithSender builds a bot that writes through sender and is fed
// updates by the caller via HandleUpdate.
func NewBotServiceWithSender(sender Sender, intake Intake, prefs Preferences, localizer *localization.Localizer, logger *zap.Logger) *BotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefs == nil {
		prefs = NewMemoryPreferences()
	}
	return &BotService{
		Sender:    sender,
		Intake:    intake,
		Prefs:     prefs,
		Localizer: localizer,
		Logger:    logger,
	}
}

// Run is the main loop for receiving Telegram updates. It returns when ctx is done.
func (s *BotService) Run(ctx context.Context) {
	if s.BotAPI == nil {
		s.Logger.Error("Telegram bot has no API connection")
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			s.Logger.Info("Telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		s.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		s.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (s *BotService) clientFor(ctx context.Context, chatID int64, from *tgbotapi.User) *Client {
	lang, err := s.Prefs.Language(ctx, chatID)
	if err != nil {
		s.Logger.Warn("Failed to read chat language", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if lang == "" && from != nil {
		lang = localization.Normalize(from.LanguageCode)
	}
	if !s.Localizer.Supports(lang) {
		lang = localization.DefaultLanguage
	}
	return &Client{ChatID: chatID, Lang: lang, Sender: s.Sender, Logger: s.Logger}
}

func (s *BotService) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	c := s.clientFor(ctx, msg.Chat.ID, msg.From)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			c.Reply(s.Localizer.GetString(c.Lang, "bot.welcome"))
		case "ward":
			s.handleWardCommand(ctx, c, msg.CommandArguments())
		case "status":
			s.handleStatusCommand(c, msg.CommandArguments())
		case "language":
			s.handleLanguageCommand(c)
		default:
			c.Reply(s.Localizer.GetString(c.Lang, "bot.unknown_command"))
		}
		return
	}

	s.handleSubmission(ctx, c, msg)
}

// handleSubmission files the message text or photo caption as a complaint.
func (s *BotService) handleSubmission(ctx context.Context, c *Client, msg *tgbotapi.Message) {
	ward, err := s.Prefs.Ward(ctx, c.ChatID)
	if err != nil {
		s.Logger.Warn("Failed to read chat ward", zap.Int64("chat_id", c.ChatID), zap.Error(err))
	}

	created, err := s.Intake.Submit(ctx, extractMessageContent(msg), ward, extractPhotoID(msg))
	if err != nil {
		c.Reply(s.Localizer.GetString(c.Lang, errorKey(err)))
		return
	}

	c.Reply(s.Localizer.Format(c.Lang, "bot.submitted",
		created.Icon, created.ID, created.Type, created.Department, created.Urgency))
}

func (s *BotService) handleStatusCommand(c *Client, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		c.Reply(s.Localizer.GetString(c.Lang, "bot.status_usage"))
		return
	}

	found, err := s.Intake.Get(id)
	if err != nil {
		c.Reply(s.Localizer.GetString(c.Lang, errorKey(err)))
		return
	}

	text := s.Localizer.Format(c.Lang, "bot.status",
		found.Icon, found.Type, found.Status, found.Urgency, found.CreatedAt.Format("2006-01-02 15:04 MST"))
	if esc := s.Intake.EscalationFor(found); esc.Escalated() {
		text += "\n" + s.Localizer.Format(c.Lang, "bot.escalated", esc.Class, esc.SinceDays)
	}
	c.Reply(text)
}

func (s *BotService) handleLanguageCommand(c *Client) {
	c.ReplyWithKeyboard(s.Localizer.GetString(c.Lang, "bot.choose_language"),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("English", "set_lang_en"),
				tgbotapi.NewInlineKeyboardButtonData("Українська", "set_lang_uk"),
			),
		))
}

func (s *BotService) handleCallbackQuery(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil {
		return
	}
	c := s.clientFor(ctx, q.Message.Chat.ID, q.From)
	c.AnswerCallback(q.ID)

	if !strings.HasPrefix(q.Data, "set_lang_") {
		return
	}
	lang := strings.TrimPrefix(q.Data, "set_lang_")
	if !s.Localizer.Supports(lang) {
		return
	}
	if err := s.Prefs.SetLanguage(ctx, c.ChatID, lang); err != nil {
		s.Logger.Error("Failed to store chat language", zap.Int64("chat_id", c.ChatID), zap.Error(err))
		return
	}
	c.Lang = lang
	c.Reply(s.Localizer.GetString(lang, "bot.language_changed"))
}

// extractMessageContent uniformly extracts text or a caption from a message.
func extractMessageContent(msg *tgbotapi.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// extractPhotoID returns the file id of the largest photo size, if any.
func extractPhotoID(msg *tgbotapi.Message) string {
	if msg == nil || len(msg.Photo) == 0 {
		return ""
	}
	return msg.Photo[len(msg.Photo)-1].FileID
}

// errorKey maps a complaint error to its localization key.
func errorKey(err error) string {
	switch {
	case errors.Is(err, complaint.ErrNotFound):
		return "error.not_found"
	case errors.Is(err, complaint.ErrEmptyDescription):
		return "error.empty_description"
	case errors.Is(err, complaint.ErrPersistence):
		return "error.persistence"
	default:
		return "error.internal"
	}
}
