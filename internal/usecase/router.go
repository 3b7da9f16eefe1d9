package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"zaptalk/internal/domain"
	"zaptalk/internal/metrics"
)

const (
	CommandStart   = "start"
	CommandHelp    = "help"
	CommandChatbot = "chatbot"
)

const (
	memberCreator       = "creator"
	memberAdministrator = "administrator"
)

// Replies sent by the router.
const (
	MsgGreeting = "Hey! I'm your AI companion based on %s. Add me to your group and reply to my messages to chat!"
	MsgHelp     = "Here's what I can do:\n\n" +
		"• Chat with you when you reply to my message.\n" +
		"• Enable/Disable chat in group with /chatbot\n\n" +
		"Admin-only in groups: /chatbot enable|disable"
	MsgGroupOnly      = "Use this command in a group."
	MsgAdminOnly      = "Only admins can control the chatbot."
	MsgUsage          = "Usage: /chatbot enable or /chatbot disable"
	MsgInvalidArg     = "Invalid argument. Use enable/disable."
	MsgEnabled        = "Chatbot enabled."
	MsgDisabled       = "Chatbot disabled."
	MsgGenericFailure = "Something went wrong, try again later."
)

var toggleArgs = map[string]bool{
	"enable": true, "on": true, "yes": true,
	"disable": false, "off": false, "no": false,
}

type RouterConfig struct {
	Persona     Persona
	Links       [][]domain.Link
	BotUsername string
}

// CommandRouter handles /start, /help and /chatbot.
type CommandRouter struct {
	store    StatusStore
	out      Messenger
	persona  Persona
	links    [][]domain.Link
	username string
}

func NewCommandRouter(store StatusStore, out Messenger, cfg RouterConfig) (*CommandRouter, error) {
	if store == nil {
		return nil, errors.New("usecase: status store must not be nil")
	}
	if out == nil {
		return nil, errors.New("usecase: messenger must not be nil")
	}
	return &CommandRouter{
		store:    store,
		out:      out,
		persona:  cfg.Persona,
		links:    cfg.Links,
		username: strings.TrimPrefix(strings.TrimSpace(cfg.BotUsername), "@"),
	}, nil
}

// Handles reports whether msg is a command this router serves. Commands addressed
// to another bot with "/cmd@otherbot" are not served.
func (r *CommandRouter) Handles(msg domain.IncomingMessage) bool {
	switch msg.Command {
	case CommandStart, CommandHelp, CommandChatbot:
	default:
		return false
	}
	return msg.Mention == "" || r.username == "" || strings.EqualFold(msg.Mention, r.username)
}

// Route dispatches msg to its command handler. Unknown commands are ignored.
func (r *CommandRouter) Route(ctx context.Context, msg domain.IncomingMessage) error {
	if !r.Handles(msg) {
		return nil
	}
	if err := r.out.SendTyping(ctx, msg.ChatID); err != nil {
		slog.WarnContext(ctx, "typing indicator failed", "chat_id", msg.ChatID, "err", err)
	}

	var (
		result string
		err    error
	)
	switch msg.Command {
	case CommandStart:
		result, err = r.start(ctx, msg)
	case CommandHelp:
		result, err = r.help(ctx, msg)
	case CommandChatbot:
		result, err = r.chatbot(ctx, msg)
	}
	metrics.CommandsTotal.WithLabelValues(msg.Command, result).Inc()
	return err
}

func (r *CommandRouter) start(ctx context.Context, msg domain.IncomingMessage) (string, error) {
	character := strings.TrimSpace(r.persona.Character)
	if character == "" {
		character = DefaultCharacter
	}
	return r.reply(ctx, msg, "ok", fmt.Sprintf(MsgGreeting, character), r.links)
}

func (r *CommandRouter) help(ctx context.Context, msg domain.IncomingMessage) (string, error) {
	return r.reply(ctx, msg, "ok", MsgHelp, r.links)
}

func (r *CommandRouter) chatbot(ctx context.Context, msg domain.IncomingMessage) (string, error) {
	if msg.IsPrivate() {
		return r.reply(ctx, msg, "private_chat", MsgGroupOnly, nil)
	}

	status, err := r.out.MemberStatus(ctx, msg.ChatID, msg.SenderID)
	if err != nil {
		return r.fail(ctx, msg, newError(ErrorUpstream, "member_lookup_error", err))
	}
	if status != memberAdministrator && status != memberCreator {
		return r.reply(ctx, msg, "not_admin", MsgAdminOnly, nil)
	}

	args := strings.Fields(msg.CommandArgs)
	if len(args) == 0 {
		return r.reply(ctx, msg, "usage", MsgUsage, nil)
	}
	enable, ok := toggleArgs[strings.ToLower(args[0])]
	if !ok {
		return r.reply(ctx, msg, "invalid_argument", MsgInvalidArg, nil)
	}

	if enable {
		if err := r.store.Enable(ctx, msg.ChatID); err != nil {
			return r.fail(ctx, msg, newError(ErrorStoreUnavailable, "store_enable_error", err))
		}
		return r.reply(ctx, msg, "enabled", MsgEnabled, nil)
	}
	if err := r.store.Disable(ctx, msg.ChatID); err != nil {
		return r.fail(ctx, msg, newError(ErrorStoreUnavailable, "store_disable_error", err))
	}
	return r.reply(ctx, msg, "disabled", MsgDisabled, nil)
}

func (r *CommandRouter) reply(ctx context.Context, msg domain.IncomingMessage, result, text string, links [][]domain.Link) (string, error) {
	if err := r.out.SendText(ctx, msg.ChatID, msg.MessageID, text, links); err != nil {
		return "send_error", newError(ErrorUpstream, "send_error", err)
	}
	return result, nil
}

// fail tells the user something went wrong and returns cause for logging.
func (r *CommandRouter) fail(ctx context.Context, msg domain.IncomingMessage, cause *Error) (string, error) {
	if err := r.out.SendText(ctx, msg.ChatID, msg.MessageID, MsgGenericFailure, nil); err != nil {
		return cause.Reason, errors.Join(cause, newError(ErrorUpstream, "send_error", err))
	}
	return cause.Reason, cause
}
