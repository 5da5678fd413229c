package mailer

import "github.com/dmitrymomot/blazeweb/pkg/settings"

// Config holds delivery rules.
type Config struct {
	From            string
	SubjectPrefix   string
	Override        []string
	Programmers     []string
	Admins          []string
	Live            bool
	DefaultLayout   string
	FallbackSubject string
}

// FromSettings reads "emails.*", "email.*" and "is_live".
func FromSettings(s *settings.Settings) Config {
	return Config{
		From:            s.String("emails.from_server", "root@localhost"),
		SubjectPrefix:   s.String("email.subject_prefix", ""),
		Override:        s.Strings("emails.override"),
		Programmers:     s.Strings("emails.programmers"),
		Admins:          s.Strings("emails.admins"),
		Live:            s.Bool("is_live", true),
		DefaultLayout:   "base.html",
		FallbackSubject: "Notification",
	}
}
