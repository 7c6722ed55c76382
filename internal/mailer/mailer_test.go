package mailer

import (
	"testing"

	"github.com/SeakMengs/certportal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func certificatesData() CertificatesMailData {
	return CertificatesMailData{
		AppName:   "CertPortal",
		SearchURL: "https://certs.example.com/search",
		Email:     "alice@example.com",
		Certificates: []CertificateMailItem{
			{Name: "Alice Smith", EventName: "Tech Summit", DateOfEvent: "2024-03-01", Category: "Delegate", URL: "https://cdn.example.com/a.pdf"},
			{Name: "Alice Smith", EventName: "Go <Day>", Category: "Speaker", URL: "https://cdn.example.com/b.pdf"},
		},
	}
}

func TestRenderCertificatesTemplate(t *testing.T) {
	subject, body, err := renderTemplate(CERTIFICATES_TEMPLATE, certificatesData())
	require.NoError(t, err)

	assert.Equal(t, "Your certificates from CertPortal", subject)
	assert.Contains(t, body, "alice@example.com")
	assert.Contains(t, body, "Tech Summit")
	assert.Contains(t, body, `href="https://cdn.example.com/a.pdf"`)
	assert.Contains(t, body, `href="https://cdn.example.com/b.pdf"`)
	assert.Contains(t, body, "https://certs.example.com/search")
	// html/template escapes event names
	assert.Contains(t, body, "Go &lt;Day&gt;")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := renderTemplate("templates/missing.tmpl", nil)
	assert.Error(t, err)
}

func TestSMTPBuildMessage(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{HOST: "localhost", PORT: 1025, USERNAME: "noreply@example.com"}, "", nil)

	message, err := m.buildMessage(CERTIFICATES_TEMPLATE, "alice@example.com", certificatesData())
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com"}, message.GetHeader("To"))
	assert.Equal(t, []string{"Your certificates from CertPortal"}, message.GetHeader("Subject"))
	require.Len(t, message.GetHeader("From"), 1)
	assert.Contains(t, message.GetHeader("From")[0], "noreply@example.com")
}

func TestNewMailer(t *testing.T) {
	_, ok := NewMailer(config.MailConfig{PROVIDER: "sendgrid"}, false, nil).(*SendGridMailer)
	assert.True(t, ok)

	_, ok = NewMailer(config.MailConfig{PROVIDER: "smtp"}, false, nil).(*SMTPMailer)
	assert.True(t, ok)
}
