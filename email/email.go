// Package email sends form submission notifications over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"tessera/common"
	"tessera/forms"
)

var ErrNotConfigured = errors.New("smtp is not configured")

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
	send     sendFunc
}

func NewEmailService(cfg *common.Config) *EmailService {
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		send:     smtp.SendMail,
	}
}

// Enabled reports whether a mail server is configured.
func (e *EmailService) Enabled() bool {
	return e.host != "" && e.from != ""
}

// NotifySubmission mails the submitted values to the form's notify
// address, one "Label: value" line per field in form order. Values for
// names the form does not declare follow, sorted.
func (e *EmailService) NotifySubmission(ctx context.Context, form *forms.Form, data map[string]any) error {
	if !e.Enabled() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("New submission: %s", form.Name)
	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", e.from, form.NotifyEmail, subject, submissionBody(form, data))

	var auth smtp.Auth
	if e.user != "" {
		auth = smtp.PlainAuth("", e.user, e.password, e.host)
	}
	port := e.port
	if port == "" {
		port = "587"
	}
	addr := fmt.Sprintf("%s:%s", e.host, port)

	if err := e.send(addr, auth, e.from, []string{form.NotifyEmail}, []byte(message)); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

func submissionBody(form *forms.Form, data map[string]any) string {
	var b strings.Builder
	seen := map[string]bool{}
	for _, f := range form.Fields {
		seen[f.Name] = true
		v, ok := data[f.Name]
		if !ok {
			continue
		}
		label := f.Label
		if label == "" {
			label = f.Name
		}
		fmt.Fprintf(&b, "%s: %v\r\n", label, v)
	}

	var extra []string
	for name := range data {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		fmt.Fprintf(&b, "%s: %v\r\n", name, data[name])
	}
	return strings.TrimRight(b.String(), "\r\n")
}
