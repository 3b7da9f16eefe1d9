package domain

import "strings"

const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

// IncomingMessage is the transport-agnostic view of one inbound chat event.
type IncomingMessage struct {
	ChatID    int64
	ChatType  string
	MessageID int
	SenderID  int64
	Text      string

	// Command and CommandArgs are set when the message starts with a bot command.
	// Mention holds the "@botname" suffix of the command, without the "@".
	Command     string
	CommandArgs string
	Mention     string

	ReplyTo *RepliedMessage
}

// RepliedMessage identifies the message an inbound message replies to.
type RepliedMessage struct {
	MessageID int
	SenderID  int64
}

func (m IncomingMessage) IsCommand() bool {
	return m.Command != ""
}

func (m IncomingMessage) IsPrivate() bool {
	return strings.EqualFold(m.ChatType, ChatTypePrivate)
}

// Link is an external URL rendered as an inline action button.
type Link struct {
	Text string
	URL  string
}
