package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/internal/util"
	"go.uber.org/zap"
)

type MailTemplateFile string

const (
	MAX_RETRY = 3

	CERTIFICATES_TEMPLATE MailTemplateFile = "templates/certificates.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile MailTemplateFile, toEmail string, data any) (int, error)
}

type CertificateMailItem struct {
	Name        string
	EventName   string
	DateOfEvent string
	Category    string
	URL         string
}

// CertificatesMailData is what templates/certificates.tmpl renders.
type CertificatesMailData struct {
	AppName      string
	LogoURL      string
	SearchURL    string
	Email        string
	Certificates []CertificateMailItem
}

func NewMailer(cfg config.MailConfig, isProduction bool, logger *zap.SugaredLogger) Client {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	switch strings.ToLower(cfg.PROVIDER) {
	case "sendgrid":
		return NewSendgrid(cfg.SEND_GRID.API_KEY, cfg.FROM_EMAIL, isProduction, logger)
	default:
		return NewSMTPMailer(cfg.SMTP, cfg.FROM_EMAIL, logger)
	}
}

// renderTemplate executes the "subject" and "body" blocks of a mail template.
func renderTemplate(templateFile MailTemplateFile, data any) (string, string, error) {
	tmpl, err := template.ParseFS(FS, string(templateFile))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse mail template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return "", "", fmt.Errorf("failed to execute subject of %s: %w", templateFile, err)
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return "", "", fmt.Errorf("failed to execute body of %s: %w", templateFile, err)
	}

	return strings.TrimSpace(subject.String()), body.String(), nil
}

func fromName() string {
	return util.GetAppName()
}
