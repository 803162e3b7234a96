package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/wneessen/go-mail"
	"github.com/yuin/goldmark"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
)

// EmailWriter sends the digest via SMTP. Credentials come from the
// environment; the configuration only carries recipients, format and the
// subject template. A send failure is logged and swallowed so a transient
// SMTP problem does not fail an otherwise successful run.
type EmailWriter struct {
	enabled         bool
	format          string
	to              string
	subjectTemplate string
}

func newEmailWriter(section map[string]any) (*EmailWriter, error) {
	cfg := struct {
		Enabled *bool  `yaml:"enabled"`
		Format  string `yaml:"format"`
		To      string `yaml:"to"`
		Subject string `yaml:"subject"`
	}{}
	if err := config.DecodeSection(section, &cfg); err != nil {
		return nil, fmt.Errorf("email output: invalid config: %w", err)
	}

	enabled := true
	if cfg.Enabled != nil {
		enabled = *cfg.Enabled
	}
	// Environment variable overrides config, useful for CI.
	switch strings.ToLower(os.Getenv("DIGEST_EMAIL_ENABLED")) {
	case "true", "1", "yes":
		enabled = true
	case "false", "0", "no":
		enabled = false
	}

	if cfg.Format == "" {
		cfg.Format = "plain"
	}
	if cfg.Subject == "" {
		cfg.Subject = "[{name}] Digest ({time_window}) - {date}"
	}

	w := &EmailWriter{
		enabled:         enabled,
		format:          cfg.Format,
		to:              cfg.To,
		subjectTemplate: cfg.Subject,
	}

	if enabled {
		if err := w.validateEnvironment(); err != nil {
			return nil, err
		}
	}

	return w, nil
}

func (w *EmailWriter) validateEnvironment() error {
	var missing []string

	if w.to == "" {
		missing = append(missing, "to (in config)")
	}
	for _, name := range []string{"SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD", "EMAIL_FROM"} {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("email output is enabled but missing required settings: %s", strings.Join(missing, ", "))
	}

	return nil
}

func (w *EmailWriter) Type() string { return "email" }

func (w *EmailWriter) Write(ctx context.Context, content string, metadata digest.Metadata, items []digest.Item) (string, error) {
	if !w.enabled {
		slog.Debug("Email output is disabled")
		return "", nil
	}

	subject := strings.NewReplacer(
		"{name}", metadata.Title,
		"{date}", metadata.Date,
		"{slug}", metadata.Config,
		"{time_window}", metadata.TimeWindow,
	).Replace(w.subjectTemplate)

	if err := w.send(ctx, subject, content, metadata); err != nil {
		slog.Error("Failed to send email", "error", err)
		return "", nil
	}

	slog.Info("Email sent", "to", w.to, "subject", subject)

	return "email:" + w.to, nil
}

func (w *EmailWriter) send(ctx context.Context, subject, content string, metadata digest.Metadata) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			smtpPort = port
		}
	}

	msg := mail.NewMsg()
	if err := msg.From(os.Getenv("EMAIL_FROM")); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(strings.Split(w.to, ",")...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, content)

	if w.format == "html" {
		htmlContent, err := w.renderHTML(content, metadata)
		if err != nil {
			return fmt.Errorf("failed to render HTML body: %w", err)
		}
		msg.AddAlternativeString(mail.TypeTextHTML, htmlContent)
	}

	client, err := mail.NewClient(smtpHost,
		mail.WithPort(smtpPort),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(os.Getenv("SMTP_USER")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}

func (w *EmailWriter) renderHTML(content string, metadata digest.Metadata) (string, error) {
	var body strings.Builder
	if err := goldmark.Convert([]byte(content), &body); err != nil {
		return "", err
	}

	var html strings.Builder
	html.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&html, "<title>%s - %s</title>\n", metadata.Title, metadata.Date)
	html.WriteString("<style>\n")
	html.WriteString("body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;\n")
	html.WriteString("       max-width: 800px; margin: 0 auto; padding: 20px; line-height: 1.6; }\n")
	html.WriteString("h1, h2, h3 { color: #333; }\n")
	html.WriteString("a { color: #0066cc; }\n")
	html.WriteString("ul { padding-left: 20px; }\n")
	html.WriteString("li { margin: 8px 0; }\n")
	html.WriteString("</style>\n</head>\n<body>\n")
	html.WriteString(body.String())
	html.WriteString("</body>\n</html>\n")

	return html.String(), nil
}
