package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"zaptalk/internal/domain"
)

type mockStore struct {
	enabled    map[int64]bool
	isErr      error
	enableErr  error
	disableErr error
	calls      []string
}

func newMockStore() *mockStore {
	return &mockStore{enabled: map[int64]bool{}}
}

func (m *mockStore) IsEnabled(_ context.Context, chatID int64) (bool, error) {
	m.calls = append(m.calls, "is_enabled")
	if m.isErr != nil {
		return false, m.isErr
	}
	return m.enabled[chatID], nil
}

func (m *mockStore) Enable(_ context.Context, chatID int64) error {
	m.calls = append(m.calls, "enable")
	if m.enableErr != nil {
		return m.enableErr
	}
	m.enabled[chatID] = true
	return nil
}

func (m *mockStore) Disable(_ context.Context, chatID int64) error {
	m.calls = append(m.calls, "disable")
	if m.disableErr != nil {
		return m.disableErr
	}
	delete(m.enabled, chatID)
	return nil
}

type mockLLM struct {
	answer    string
	err       error
	block     bool
	prompts   []string
	callCount int
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.answer, m.err
}

type sentText struct {
	chatID  int64
	replyTo int
	text    string
	links   [][]domain.Link
}

type sentDocument struct {
	chatID  int64
	replyTo int
	name    string
	content []byte
}

type mockMessenger struct {
	typing    []int64
	texts     []sentText
	documents []sentDocument
	status    string
	statusErr error
	typingErr error
	sendErr   error
	events    []string
}

func (m *mockMessenger) SendTyping(_ context.Context, chatID int64) error {
	m.events = append(m.events, "typing")
	m.typing = append(m.typing, chatID)
	return m.typingErr
}

func (m *mockMessenger) SendText(_ context.Context, chatID int64, replyTo int, text string, links [][]domain.Link) error {
	m.events = append(m.events, "text")
	if m.sendErr != nil {
		return m.sendErr
	}
	m.texts = append(m.texts, sentText{chatID: chatID, replyTo: replyTo, text: text, links: links})
	return nil
}

func (m *mockMessenger) SendDocument(_ context.Context, chatID int64, replyTo int, name string, content []byte) error {
	m.events = append(m.events, "document")
	if m.sendErr != nil {
		return m.sendErr
	}
	m.documents = append(m.documents, sentDocument{chatID: chatID, replyTo: replyTo, name: name, content: content})
	return nil
}

func (m *mockMessenger) MemberStatus(_ context.Context, _, _ int64) (string, error) {
	m.events = append(m.events, "member_status")
	return m.status, m.statusErr
}

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return "upstream status" }
func (e *statusErr) HTTPStatusCode() int { return e.code }

var errStoreDown = errors.New("dial tcp 10.0.0.5:5432: connection refused")

const (
	testBotID  int64 = 777
	testChatID int64 = -100123
	testUserID int64 = 42
)

func replyToBot(text string) domain.IncomingMessage {
	return domain.IncomingMessage{
		ChatID:    testChatID,
		ChatType:  domain.ChatTypeSupergroup,
		MessageID: 50,
		SenderID:  testUserID,
		Text:      text,
		ReplyTo:   &domain.RepliedMessage{MessageID: 49, SenderID: testBotID},
	}
}

func command(name, args, chatType string) domain.IncomingMessage {
	return domain.IncomingMessage{
		ChatID:      testChatID,
		ChatType:    chatType,
		MessageID:   60,
		SenderID:    testUserID,
		Text:        "/" + name + " " + args,
		Command:     name,
		CommandArgs: args,
	}
}

func requireUsecaseError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}
