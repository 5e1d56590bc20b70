package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// EmailService defines the interface for sending emails
type EmailService interface {
	SendLeaveSubmitted(to string, data LeaveEmailData) error
	SendLeaveDecision(to string, data LeaveEmailData) error
}

// LeaveEmailData is the pre-formatted content of a leave email
type LeaveEmailData struct {
	AppName          string
	RecipientName    string
	RequesterName    string
	Approved         bool
	TypeLabel        string
	FromDate         string
	ToDate           string
	Duration         string
	TimeSlotLabel    string
	Projects         string
	ProjectDeadlines string
	Reason           string
	Link             string
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	backoff   time.Duration
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		send:      smtp.SendMail,
		backoff:   time.Second,
	}, nil
}

// SendLeaveSubmitted asks a reviewer to look at a new or edited request
func (s *emailServiceImpl) SendLeaveSubmitted(to string, data LeaveEmailData) error {
	body, err := s.render("leave_submitted.html", data)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Nouvelle demande de congés de %s (%s)", data.RequesterName, data.TypeLabel)
	return s.sendHTML(to, subject, body)
}

// SendLeaveDecision tells the requester their request was approved or refused
func (s *emailServiceImpl) SendLeaveDecision(to string, data LeaveEmailData) error {
	body, err := s.render("leave_decision.html", data)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Votre demande de congés a été refusée (%s)", data.TypeLabel)
	if data.Approved {
		subject = fmt.Sprintf("Votre demande de congés a été validée (%s)", data.TypeLabel)
	}
	return s.sendHTML(to, subject, body)
}

func (s *emailServiceImpl) render(name string, data LeaveEmailData) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return body.String(), nil
}

func (s *emailServiceImpl) sendHTML(to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", headerValue(s.cfg.FromName), headerValue(from))
	headers += fmt.Sprintf("To: %s\r\n", headerValue(to))
	headers += fmt.Sprintf("Subject: %s\r\n", headerValue(subject))
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.send(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Exponential backoff: 1s, 2s, 4s
		if attempt < maxRetries {
			time.Sleep(s.backoff * time.Duration(1<<(attempt-1)))
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

var headerBreaks = strings.NewReplacer("\r", "", "\n", "")

// headerValue keeps user supplied text on a single header line.
func headerValue(v string) string {
	return headerBreaks.Replace(v)
}
