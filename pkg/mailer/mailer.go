package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	texttemplate "text/template"
)

// Mailer renders templates and delivers them through a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
	log      *slog.Logger
}

// New creates a Mailer. A nil renderer uses DefaultRenderer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	if renderer == nil {
		renderer = DefaultRenderer()
	}
	if cfg.DefaultLayout == "" {
		cfg.DefaultLayout = "base.html"
	}
	return &Mailer{
		sender:   sender,
		renderer: renderer,
		config:   cfg,
		log:      slog.New(slog.DiscardHandler),
	}
}

// WithLogger returns a copy of m logging dropped mails to l.
func (m *Mailer) WithLogger(l *slog.Logger) *Mailer {
	c := *m
	if l != nil {
		c.log = l
	}
	return &c
}

// SendParams describes a templated mail.
type SendParams struct {
	To       []string
	Template string
	Data     any
	Subject  string
	Layout   string
	ReplyTo  string
}

// Send renders params.Template and delivers it.
// Subject resolution: params.Subject, then frontmatter "Subject", then the
// configured fallback. Subjects are templates executed with Data.
func (m *Mailer) Send(ctx context.Context, params SendParams) error {
	if len(params.To) == 0 {
		return ErrNoRecipient
	}

	layout := params.Layout
	if layout == "" {
		layout = m.config.DefaultLayout
	}
	result, err := m.renderer.Render(layout, params.Template, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	subject := params.Subject
	if subject == "" {
		if s, ok := result.Metadata["Subject"].(string); ok {
			subject = s
		} else {
			subject = m.config.FallbackSubject
		}
	}
	subject, err = executeSubject(subject, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	return m.SendRaw(ctx, &Email{
		To:      params.To,
		Subject: subject,
		HTML:    result.HTML,
		Text:    result.Text,
		ReplyTo: params.ReplyTo,
	})
}

// SendRaw delivers a prepared email, applying the sender address, subject
// prefix, recipient override and live check.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipient
	}
	if email.Subject == "" {
		return ErrNoSubject
	}
	if email.HTML == "" {
		return ErrNoContent
	}

	out := *email
	if out.From == "" {
		out.From = m.config.From
	}
	out.Subject = m.config.SubjectPrefix + out.Subject

	if len(m.config.Override) > 0 {
		if out.Headers == nil {
			out.Headers = map[string]string{}
		}
		out.Headers["X-Original-To"] = strings.Join(out.To, ", ")
		out.To = m.config.Override
		out.CC = nil
		out.BCC = nil
	} else if !m.config.Live {
		m.log.InfoContext(ctx, "mail not sent: application is not live",
			slog.String("subject", out.Subject),
			slog.Any("to", out.To),
		)
		return nil
	}

	if err := m.sender.Send(ctx, &out); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

// MailProgrammers sends params to the "emails.programmers" list.
func (m *Mailer) MailProgrammers(ctx context.Context, params SendParams) error {
	params.To = m.config.Programmers
	return m.Send(ctx, params)
}

// MailAdmins sends params to the "emails.admins" list.
func (m *Mailer) MailAdmins(ctx context.Context, params SendParams) error {
	params.To = m.config.Admins
	return m.Send(ctx, params)
}

func executeSubject(subject string, data any) (string, error) {
	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
