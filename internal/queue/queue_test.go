package queue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/SeakMengs/certportal/internal/constant"
	"github.com/SeakMengs/certportal/internal/mailer"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type published struct {
	queue QueueName
	body  []byte
}

type fakeBroker struct {
	mu         sync.Mutex
	published  []published
	acked      int
	nacked     int
	publishErr error
}

func (b *fakeBroker) Publish(routingKey QueueName, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, published{routingKey, body})
	return nil
}

func (b *fakeBroker) Ack(amqp091.Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked++
	return nil
}

func (b *fakeBroker) Nack(amqp091.Delivery, bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nacked++
	return nil
}

type fakeGenerator struct {
	report *certgen.Report
	err    error
	got    []certgen.Participant
}

func (g *fakeGenerator) Generate(_ context.Context, _ certgen.EventID, participants []certgen.Participant) (*certgen.Report, error) {
	g.got = participants
	return g.report, g.err
}

type fakeLogs struct {
	statuses  []constant.GenerationStatus
	messages  []string
	completed *certgen.Report
}

func (l *fakeLogs) UpdateStatus(_ context.Context, _ *gorm.DB, _ string, status constant.GenerationStatus, message string) error {
	l.statuses = append(l.statuses, status)
	l.messages = append(l.messages, message)
	return nil
}

func (l *fakeLogs) Complete(_ context.Context, _ *gorm.DB, _ string, report *certgen.Report) error {
	l.completed = report
	return nil
}

func certDelivery(t *testing.T, payload CertificateGeneratePayload) amqp091.Delivery {
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return amqp091.Delivery{Body: body}
}

func TestHandleCertificateGenerateJob(t *testing.T) {
	participants := []certgen.Participant{{Email: "alice@x.com", Name: "Alice", Category: "Delegate"}}

	t.Run("completes the generation log", func(t *testing.T) {
		report := &certgen.Report{Total: 1, Generated: 1, Message: "Generated 1 certificates. 0 failed."}
		gen := &fakeGenerator{report: report}
		logs := &fakeLogs{}
		app := &ConsumerContext{Logger: zap.NewNop().Sugar(), Generator: gen, GenerationLogs: logs}

		retry, err := HandleCertificateGenerateJob(context.Background(), NewCertificateGeneratePayload("e1", participants, "log1", "admin@x.com"), app)
		require.NoError(t, err)
		assert.False(t, retry)
		assert.Equal(t, participants, gen.got)
		assert.Equal(t, []constant.GenerationStatus{constant.GenerationStatusProcessing}, logs.statuses)
		assert.Same(t, report, logs.completed)
	})

	t.Run("fatal errors are not retried", func(t *testing.T) {
		app := &ConsumerContext{Logger: zap.NewNop().Sugar(), Generator: &fakeGenerator{err: certgen.ErrNoTemplates}, GenerationLogs: &fakeLogs{}}

		retry, err := HandleCertificateGenerateJob(context.Background(), NewCertificateGeneratePayload("e1", participants, "log1", ""), app)
		assert.ErrorIs(t, err, certgen.ErrNoTemplates)
		assert.False(t, retry)
	})

	t.Run("lookup failures are retried", func(t *testing.T) {
		app := &ConsumerContext{Logger: zap.NewNop().Sugar(), Generator: &fakeGenerator{err: errors.New("db down")}, GenerationLogs: &fakeLogs{}}

		retry, err := HandleCertificateGenerateJob(context.Background(), NewCertificateGeneratePayload("e1", participants, "log1", ""), app)
		assert.Error(t, err)
		assert.True(t, retry)
	})
}

func TestProcessCertificateJob(t *testing.T) {
	newApp := func() (*ConsumerContext, *fakeLogs) {
		logs := &fakeLogs{}
		return &ConsumerContext{Logger: zap.NewNop().Sugar(), GenerationLogs: logs}, logs
	}

	t.Run("success is acked", func(t *testing.T) {
		broker := &fakeBroker{}
		app, _ := newApp()
		handler := func(context.Context, CertificateGeneratePayload, *ConsumerContext) (bool, error) { return false, nil }

		processCertificateJob(context.Background(), broker, 1, certDelivery(t, CertificateGeneratePayload{EventID: "e1"}), handler, app)
		assert.Equal(t, 1, broker.acked)
		assert.Empty(t, broker.published)
	})

	t.Run("retryable failure is republished with retry incremented", func(t *testing.T) {
		broker := &fakeBroker{}
		app, _ := newApp()
		handler := func(context.Context, CertificateGeneratePayload, *ConsumerContext) (bool, error) { return true, errors.New("db down") }

		processCertificateJob(context.Background(), broker, 1, certDelivery(t, CertificateGeneratePayload{EventID: "e1", Retry: 1}), handler, app)

		require.Len(t, broker.published, 1)
		assert.Equal(t, QueueCertificateGenerate, broker.published[0].queue)

		var requeued CertificateGeneratePayload
		require.NoError(t, json.Unmarshal(broker.published[0].body, &requeued))
		assert.Equal(t, 2, requeued.Retry)
		assert.Equal(t, 1, broker.acked)
	})

	t.Run("last retry marks the log failed", func(t *testing.T) {
		broker := &fakeBroker{}
		app, logs := newApp()
		handler := func(context.Context, CertificateGeneratePayload, *ConsumerContext) (bool, error) { return true, errors.New("db down") }

		processCertificateJob(context.Background(), broker, 1, certDelivery(t, CertificateGeneratePayload{EventID: "e1", LogID: "log1", Retry: MAX_QUEUE_RETRY}), handler, app)

		assert.Empty(t, broker.published)
		assert.Equal(t, 1, broker.nacked)
		assert.Equal(t, []constant.GenerationStatus{constant.GenerationStatusFailed}, logs.statuses)
		assert.Equal(t, []string{"db down"}, logs.messages)
	})

	t.Run("invalid payload is dropped", func(t *testing.T) {
		broker := &fakeBroker{}
		app, _ := newApp()
		called := false
		handler := func(context.Context, CertificateGeneratePayload, *ConsumerContext) (bool, error) {
			called = true
			return false, nil
		}

		processCertificateJob(context.Background(), broker, 1, amqp091.Delivery{Body: []byte("{")}, handler, app)
		processCertificateJob(context.Background(), broker, 1, amqp091.Delivery{}, handler, app)

		assert.False(t, called)
		assert.Equal(t, 2, broker.nacked)
	})
}

type fakeMailer struct {
	status int
	err    error
	to     string
	data   any
}

func (m *fakeMailer) Send(_ mailer.MailTemplateFile, toEmail string, data any) (int, error) {
	m.to = toEmail
	m.data = data
	return m.status, m.err
}

func TestHandleMailJob(t *testing.T) {
	data := mailer.CertificatesMailData{
		AppName: "CertPortal",
		Email:   "alice@x.com",
		Certificates: []mailer.CertificateMailItem{
			{Name: "Alice", EventName: "Tech Summit", URL: "https://cdn/a.pdf"},
		},
	}

	payload, err := NewCertificatesMailJob("alice@x.com", data)
	require.NoError(t, err)

	tests := []struct {
		name      string
		mailer    *fakeMailer
		wantErr   bool
		wantRetry bool
	}{
		{"sent", &fakeMailer{status: http.StatusAccepted}, false, false},
		{"network error is retried", &fakeMailer{status: -1, err: errors.New("timeout")}, true, true},
		{"server error is retried", &fakeMailer{status: http.StatusInternalServerError, err: errors.New("smtp")}, true, true},
		{"rejected is not retried", &fakeMailer{status: http.StatusBadRequest, err: errors.New("bad address")}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &MailConsumerContext{Logger: zap.NewNop().Sugar(), Mailer: tt.mailer}

			retry, err := HandleMailJob(context.Background(), payload, app)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantRetry, retry)
			assert.Equal(t, "alice@x.com", tt.mailer.to)
			assert.Equal(t, data, tt.mailer.data)
		})
	}

	_, err = HandleMailJob(context.Background(), MailJobPayload{TemplateFile: "templates/unknown.tmpl", Data: []byte("{}")}, &MailConsumerContext{Logger: zap.NewNop().Sugar(), Mailer: &fakeMailer{}})
	assert.Error(t, err)
}

func TestProcessMailJobRequeue(t *testing.T) {
	broker := &fakeBroker{}
	app := &MailConsumerContext{Logger: zap.NewNop().Sugar()}
	handler := func(context.Context, MailJobPayload, *MailConsumerContext) (bool, error) { return true, errors.New("timeout") }

	payload, err := NewMailJobPayload("alice@x.com", mailer.CERTIFICATES_TEMPLATE, mailer.CertificatesMailData{})
	require.NoError(t, err)
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	processMailJob(context.Background(), broker, 1, amqp091.Delivery{Body: body}, handler, app)

	require.Len(t, broker.published, 1)
	assert.Equal(t, QueueMail, broker.published[0].queue)

	var requeued MailJobPayload
	require.NoError(t, json.Unmarshal(broker.published[0].body, &requeued))
	assert.Equal(t, 1, requeued.Try)

	broker.publishErr = errors.New("closed")
	processMailJob(context.Background(), broker, 1, amqp091.Delivery{Body: body}, handler, app)
	assert.Equal(t, 1, broker.nacked)
}
