// Package mailer sends the mails a blazeweb application produces on its own:
// exception reports to programmers and notices to admins.
//
// A Mailer combines a Sender (the provider, see the resend subpackage) with a
// Renderer that turns markdown templates with YAML frontmatter into HTML:
//
//	m := mailer.New(resend.New(cfg), mailer.DefaultRenderer(), mailer.FromSettings(s))
//
//	err := m.MailProgrammers(ctx, mailer.SendParams{
//		Template: "exception.md",
//		Data:     report,
//	})
//
// Delivery honours the "email.*" and "emails.*" settings:
//
//   - email.subject_prefix is prepended to every subject
//   - emails.override replaces all recipients (useful on staging)
//   - when is_live is false and no override is set, mails are logged and dropped
package mailer
