package resend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

func TestSender_From(t *testing.T) {
	t.Parallel()

	s := New(Config{APIKey: "re_test", SenderEmail: "app@example.com", SenderName: "App"})
	assert.Equal(t, "App <app@example.com>", s.from("root@localhost"))

	s = New(Config{APIKey: "re_test"})
	assert.Equal(t, "root@localhost", s.from("root@localhost"))
}

func TestFromSettings(t *testing.T) {
	t.Parallel()

	st := settings.Defaults()
	st.Set("mail.resend.api_key", "re_123")
	st.Set("emails.from_server", "server@example.com")

	cfg := FromSettings(st)
	assert.Equal(t, "re_123", cfg.APIKey)
	assert.Equal(t, "server@example.com", cfg.SenderEmail)
}
