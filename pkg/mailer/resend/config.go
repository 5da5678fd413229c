package resend

import "github.com/dmitrymomot/blazeweb/pkg/settings"

// Config holds Resend credentials and the default sender.
type Config struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

// FromSettings reads "mail.resend.api_key" and the "emails.from_server" address.
func FromSettings(s *settings.Settings) Config {
	return Config{
		APIKey:      s.String("mail.resend.api_key", ""),
		SenderEmail: s.String("emails.from_server", ""),
		SenderName:  s.String("mail.resend.sender_name", ""),
	}
}
