package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, email *Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func testConfig() Config {
	return Config{
		From:          "server@example.com",
		SubjectPrefix: "[app] ",
		Programmers:   []string{"dev@example.com"},
		Admins:        []string{"admin@example.com"},
		Live:          true,
	}
}

func TestMailer_MailProgrammers_Exception(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	m := New(sender, nil, testConfig())

	sender.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return e.To[0] == "dev@example.com" &&
			e.From == "server@example.com" &&
			e.Subject == "[app] exception encountered" &&
			strings.Contains(e.HTML, "<h2>boom</h2>") &&
			strings.Contains(e.Text, "GET /fail")
	})).Return(nil)

	err := m.MailProgrammers(context.Background(), SendParams{
		Template: "exception.md",
		Data: map[string]any{
			"Summary": "boom",
			"Ident":   "abc",
			"Method":  "GET",
			"URL":     "/fail",
			"Trace":   "boom",
			"Environ": "REQUEST_METHOD: GET",
			"Post":    "",
		},
	})

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestMailer_MailAdmins_Notice(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	m := New(sender, nil, testConfig())

	sender.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return e.To[0] == "admin@example.com" && e.Subject == "[app] Disk full"
	})).Return(nil)

	err := m.MailAdmins(context.Background(), SendParams{
		Template: "notice.md",
		Data:     map[string]any{"Subject": "Disk full", "Body": "Clean **up**."},
	})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestMailer_Override(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Override = []string{"qa@example.com"}
	cfg.Live = false

	sender := &MockSender{}
	m := New(sender, nil, cfg)

	sender.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return len(e.To) == 1 && e.To[0] == "qa@example.com" &&
			e.Headers["X-Original-To"] == "user@example.com" &&
			e.CC == nil
	})).Return(nil)

	err := m.SendRaw(context.Background(), &Email{
		To:      []string{"user@example.com"},
		CC:      []string{"cc@example.com"},
		Subject: "hi",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestMailer_NotLiveDropsMail(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Live = false

	sender := &MockSender{}
	m := New(sender, nil, cfg).WithLogger(nil)

	err := m.SendRaw(context.Background(), &Email{To: []string{"a@example.com"}, Subject: "s", HTML: "<p>x</p>"})
	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send")
}

func TestMailer_Validation(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	m := New(sender, nil, testConfig())
	ctx := context.Background()

	require.ErrorIs(t, m.SendRaw(ctx, &Email{Subject: "s", HTML: "h"}), ErrNoRecipient)
	require.ErrorIs(t, m.SendRaw(ctx, &Email{To: []string{"a"}, HTML: "h"}), ErrNoSubject)
	require.ErrorIs(t, m.SendRaw(ctx, &Email{To: []string{"a"}, Subject: "s"}), ErrNoContent)

	cfg := testConfig()
	cfg.Programmers = nil
	err := New(sender, nil, cfg).MailProgrammers(ctx, SendParams{Template: "exception.md"})
	require.ErrorIs(t, err, ErrNoRecipient)

	sender.AssertNotCalled(t, "Send")
}

func TestMailer_SenderFailure(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("provider down"))

	err := New(sender, nil, testConfig()).SendRaw(context.Background(), &Email{To: []string{"a"}, Subject: "s", HTML: "h"})
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "provider down")
}

func TestMailer_SubjectResolution(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{ .Content }}`)},
		"plain.md":          {Data: []byte(`Hello {{ .Name }}`)},
	}

	var got *Email
	sender := SenderFunc(func(_ context.Context, e *Email) error {
		got = e
		return nil
	})
	cfg := testConfig()
	cfg.FallbackSubject = "Note for {{ .Name }}"
	m := New(sender, NewRenderer(fsys), cfg)

	require.NoError(t, m.Send(context.Background(), SendParams{To: []string{"a"}, Template: "plain.md", Data: map[string]string{"Name": "Ann"}}))
	assert.Equal(t, "[app] Note for Ann", got.Subject)

	require.NoError(t, m.Send(context.Background(), SendParams{To: []string{"a"}, Template: "plain.md", Subject: "Explicit", Data: map[string]string{"Name": "Ann"}}))
	assert.Equal(t, "[app] Explicit", got.Subject)

	err := m.Send(context.Background(), SendParams{To: []string{"a"}, Template: "missing.md"})
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestParseTemplate(t *testing.T) {
	t.Parallel()

	tpl, err := ParseTemplate([]byte("---\nSubject: Hi\n---\nBody"))
	require.NoError(t, err)
	assert.Equal(t, "Hi", tpl.Metadata["Subject"])
	assert.Equal(t, "Body", tpl.Body)

	tpl, err = ParseTemplate([]byte("No frontmatter"))
	require.NoError(t, err)
	assert.Empty(t, tpl.Metadata)
	assert.Equal(t, "No frontmatter", tpl.Body)

	_, err = ParseTemplate([]byte("---\nSubject: Hi\nBody"))
	require.ErrorIs(t, err, ErrInvalidFrontmatter)

	_, err = ParseTemplate([]byte("---\n: [bad\n---\nBody"))
	require.ErrorIs(t, err, ErrInvalidFrontmatter)
}

func TestRecipient(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a@example.com", Recipient("", "a@example.com"))
	assert.Equal(t, "Ann <a@example.com>", Recipient("Ann", "a@example.com"))
}
