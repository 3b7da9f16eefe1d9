package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zaptalk/internal/domain"
)

// IncomingFromUpdate converts an update into an IncomingMessage. Only new messages are considered;
// edits, channel posts and callbacks report false.
func IncomingFromUpdate(u tgbotapi.Update) (domain.IncomingMessage, bool) {
	if u.Message == nil || u.Message.Chat == nil {
		return domain.IncomingMessage{}, false
	}
	return IncomingFromMessage(u.Message), true
}

// IncomingFromMessage converts a Bot API message. m and m.Chat must be non-nil.
func IncomingFromMessage(m *tgbotapi.Message) domain.IncomingMessage {
	in := domain.IncomingMessage{
		ChatID:    m.Chat.ID,
		ChatType:  m.Chat.Type,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.From != nil {
		in.SenderID = m.From.ID
	}
	if m.IsCommand() {
		in.Command = strings.ToLower(m.Command())
		in.CommandArgs = m.CommandArguments()
		if _, mention, ok := strings.Cut(m.CommandWithAt(), "@"); ok {
			in.Mention = mention
		}
	}
	if r := m.ReplyToMessage; r != nil {
		in.ReplyTo = &domain.RepliedMessage{MessageID: r.MessageID}
		if r.From != nil {
			in.ReplyTo.SenderID = r.From.ID
		}
	}
	return in
}
