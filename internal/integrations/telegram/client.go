package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zaptalk/internal/domain"
)

// botAPI is the subset of *tgbotapi.BotAPI used by Client. Defined here for testability.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Command is one entry of the bot command menu.
type Command struct {
	Name        string
	Description string
}

// Client is the Telegram Bot API transport.
type Client struct {
	api      botAPI
	botID    int64
	username string
}

type options struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*options)

// WithAPIEndpoint overrides the Bot API endpoint format ("https://host/bot%s/%s").
func WithAPIEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = strings.TrimSpace(endpoint)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// New authenticates token against the Bot API (getMe) and returns a ready Client.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram: bot token must not be empty")
	}
	o := options{
		endpoint:   tgbotapi.APIEndpoint,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticate bot: %w", err)
	}
	return NewWithAPI(bot, bot.Self)
}

// NewWithAPI wraps an already authenticated API handle.
func NewWithAPI(api botAPI, self tgbotapi.User) (*Client, error) {
	if api == nil {
		return nil, errors.New("telegram: api must not be nil")
	}
	if self.ID == 0 {
		return nil, errors.New("telegram: bot identity is unknown")
	}
	return &Client{api: api, botID: self.ID, username: self.UserName}, nil
}

// BotID is the bot's own user id.
func (c *Client) BotID() int64 { return c.botID }

// Username is the bot's username without the leading "@".
func (c *Client) Username() string { return c.username }

// SendTyping shows the "typing" chat action.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("telegram: send chat action: %w", err)
	}
	return nil
}

// SendText sends text as a reply to replyTo (0 for none), with optional link buttons.
func (c *Client) SendText(ctx context.Context, chatID int64, replyTo int, text string, links [][]domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	if len(links) > 0 {
		msg.ReplyMarkup = linkKeyboard(links)
	}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// SendDocument uploads content as a file attachment named name.
func (c *Client) SendDocument(ctx context.Context, chatID int64, replyTo int, name string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: content})
	doc.ReplyToMessageID = replyTo
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("telegram: send document: %w", err)
	}
	return nil
}

// MemberStatus returns the chat membership status of userID (creator, administrator, member, ...).
func (c *Client) MemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return "", fmt.Errorf("telegram: get chat member: %w", err)
	}
	return member.Status, nil
}

// SetCommands registers the bot command menu.
func (c *Client) SetCommands(ctx context.Context, cmds []Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	botCmds := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		botCmds = append(botCmds, tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}
	if _, err := c.api.Request(tgbotapi.NewSetMyCommands(botCmds...)); err != nil {
		return fmt.Errorf("telegram: set my commands: %w", err)
	}
	return nil
}

// Updates long-polls getUpdates until ctx is done; the returned channel is closed afterwards.
func (c *Client) Updates(ctx context.Context, pollTimeout time.Duration) <-chan tgbotapi.Update {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(pollTimeout.Seconds())
	cfg.AllowedUpdates = []string{"message"}
	src := c.api.GetUpdatesChan(cfg)

	out := make(chan tgbotapi.Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				c.api.StopReceivingUpdates()
				return
			case u, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- u:
				case <-ctx.Done():
					c.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out
}

func linkKeyboard(links [][]domain.Link) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(links))
	for _, row := range links {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, l := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(l.Text, l.URL))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
