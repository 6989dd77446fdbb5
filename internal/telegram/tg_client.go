package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of the Telegram Bot API the bot writes through.
// *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client sends replies to one Telegram chat.
type Client struct {
	ChatID int64
	Lang   string
	Sender Sender
	Logger *zap.Logger
}

// Reply sends a plain text message. Complaint text is user-supplied, so no
// parse mode is set.
func (c *Client) Reply(text string) {
	msg := tgbotapi.NewMessage(c.ChatID, text)
	if _, err := c.Sender.Send(msg); err != nil {
		c.Logger.Error("Failed to send Telegram reply", zap.Int64("chat_id", c.ChatID), zap.Error(err))
	}
}

// ReplyWithKeyboard sends text with an inline keyboard attached.
func (c *Client) ReplyWithKeyboard(text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(c.ChatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := c.Sender.Send(msg); err != nil {
		c.Logger.Error("Failed to send Telegram keyboard", zap.Int64("chat_id", c.ChatID), zap.Error(err))
	}
}

// AnswerCallback clears the loading state of an inline button.
func (c *Client) AnswerCallback(callbackID string) {
	if _, err := c.Sender.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		c.Logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}
