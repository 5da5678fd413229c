package mailer

import "fmt"

// Recipient formats "Name <email>", or just the email when name is empty.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email is a message ready for a Sender.
type Email struct {
	Headers map[string]string
	Subject string
	HTML    string
	Text    string
	From    string
	ReplyTo string
	To      []string
	CC      []string
	BCC     []string
}
