// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail delivers outbound email.

Two senders exist: [SMTPSender] for real delivery and [LogSender], which only
records that a message would have been sent. main picks one from SMTP_HOST.
*/
package mail

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// Message is a single email with a plain text body and an optional HTML alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a [Message].
type Sender interface {
	Name() string
	Send(context context.Context, message Message) error
}

// # SMTP

// SMTPOptions configures an [SMTPSender].
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through an SMTP relay. A client is dialed per message.
type SMTPSender struct {
	options SMTPOptions
}

// NewSMTPSender validates the options without dialing.
func NewSMTPSender(options SMTPOptions) (*SMTPSender, error) {
	if options.Host == "" {
		return nil, fmt.Errorf("mail: smtp host is required")
	}
	if _, err := newClient(options); err != nil {
		return nil, err
	}
	return &SMTPSender{options: options}, nil
}

// Name implements [Sender].
func (sender *SMTPSender) Name() string { return "smtp" }

// Send implements [Sender].
func (sender *SMTPSender) Send(context context.Context, message Message) error {
	msg, err := buildMsg(sender.options.From, message)
	if err != nil {
		return err
	}

	client, err := newClient(sender.options)
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(context, msg); err != nil {
		return fmt.Errorf("mail: send to smtp relay failed: %w", err)
	}
	return nil
}

func newClient(options SMTPOptions) (*gomail.Client, error) {
	clientOptions := []gomail.Option{
		gomail.WithPort(options.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if options.Username != "" {
		clientOptions = append(clientOptions,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(options.Username),
			gomail.WithPassword(options.Password),
		)
	}

	client, err := gomail.NewClient(options.Host, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("mail: invalid smtp options: %w", err)
	}
	return client, nil
}

func buildMsg(from string, message Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("mail: invalid sender address: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("mail: invalid recipient address: %w", err)
	}

	msg.Subject(message.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, message.Text)
	if message.HTML != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, message.HTML)
	}
	return msg, nil
}

// # Log

// LogSender logs message metadata and never delivers. Bodies are not logged
// because they carry verification links.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender builds a [LogSender].
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name implements [Sender].
func (sender *LogSender) Name() string { return "log" }

// Send implements [Sender].
func (sender *LogSender) Send(context context.Context, message Message) error {
	sender.logger.InfoContext(context, "mail_not_delivered",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.Int("text_bytes", len(message.Text)),
	)
	return nil
}

// # Templates

var verificationHTML = template.Must(template.New("verification").Parse(
	`<p>Hello {{.Name}},</p>
<p>please confirm your email address by following <a href="{{.Link}}">this link</a>.</p>
<p>If you did not create an account, ignore this message.</p>
`))

// VerificationMessage renders the account verification email for link.
func VerificationMessage(to, name, link string) (Message, error) {
	var html strings.Builder
	if err := verificationHTML.Execute(&html, struct{ Name, Link string }{name, link}); err != nil {
		return Message{}, fmt.Errorf("mail: render verification: %w", err)
	}

	text := fmt.Sprintf("Hello %s,\n\nplease confirm your email address by opening:\n%s\n\nIf you did not create an account, ignore this message.\n", name, link)

	return Message{
		To:      to,
		Subject: "Verify your email address",
		Text:    text,
		HTML:    html.String(),
	}, nil
}
