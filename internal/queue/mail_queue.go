package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SeakMengs/certportal/internal/mailer"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type MailConsumerContext struct {
	Logger *zap.SugaredLogger
	Mailer mailer.Client
}

type MailJobPayload struct {
	ToEmail      string                  `json:"to_email"`
	TemplateFile mailer.MailTemplateFile `json:"template_file"`
	Data         json.RawMessage         `json:"data"`
	CreatedAt    string                  `json:"created_at"`
	Try          int                     `json:"try" default:"0"`
}

func NewMailJobPayload[T any](toEmail string, templateFile mailer.MailTemplateFile, data T) (MailJobPayload, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return MailJobPayload{}, fmt.Errorf("failed to marshal data: %w", err)
	}

	return MailJobPayload{
		ToEmail:      toEmail,
		TemplateFile: templateFile,
		Data:         dataBytes,
		Try:          0,
		CreatedAt:    time.Now().Format(time.RFC3339),
	}, nil
}

func NewCertificatesMailJob(toEmail string, data mailer.CertificatesMailData) (MailJobPayload, error) {
	return NewMailJobPayload(toEmail, mailer.CERTIFICATES_TEMPLATE, data)
}

func PublishMailJob(p Publisher, payload MailJobPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	return p.Publish(QueueMail, body)
}

// DecodeMailData turns the raw payload data back into the type its template expects.
func DecodeMailData(templateFile mailer.MailTemplateFile, raw json.RawMessage) (any, error) {
	switch templateFile {
	case mailer.CERTIFICATES_TEMPLATE:
		var data mailer.CertificatesMailData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("invalid data for %s: %w", templateFile, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown mail template: %s", templateFile)
	}
}

// Return whether the job should be retried, and the error if any
type MailJobHandler func(ctx context.Context, jobPayload MailJobPayload, app *MailConsumerContext) (bool, error)

// HandleMailJob sends one email. Rejections by the provider are not retried.
func HandleMailJob(ctx context.Context, jobPayload MailJobPayload, app *MailConsumerContext) (bool, error) {
	data, err := DecodeMailData(jobPayload.TemplateFile, jobPayload.Data)
	if err != nil {
		return false, err
	}

	status, err := app.Mailer.Send(jobPayload.TemplateFile, jobPayload.ToEmail, data)
	if err != nil {
		retry := status < 0 || status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
		return retry, err
	}

	return false, nil
}

func (r *RabbitMQ) ConsumeMailJob(ctx context.Context, handler MailJobHandler, maxWorker int, app *MailConsumerContext) error {
	msgs, err := r.Consume(QueueMail, maxWorker)
	if err != nil {
		return fmt.Errorf("failed to start consuming mail jobs: %w", err)
	}

	for i := range maxWorker {
		go func(workerNumber int) {
			runMailWorker(ctx, r, workerNumber, msgs, handler, app)
		}(i + 1)
	}

	return nil
}

func runMailWorker(ctx context.Context, broker Broker, workerNumber int, msgs <-chan amqp091.Delivery, handler MailJobHandler, app *MailConsumerContext) {
	for {
		select {
		case <-ctx.Done():
			app.Logger.Infof("[Mail Worker %d] Shutting down", workerNumber)
			return
		case msg, ok := <-msgs:
			if !ok {
				app.Logger.Infof("[Mail Worker %d] Message channel closed", workerNumber)
				return
			}
			processMailJob(ctx, broker, workerNumber, msg, handler, app)
		}
	}
}

func processMailJob(ctx context.Context, broker Broker, workerNumber int, msg amqp091.Delivery, handler MailJobHandler, app *MailConsumerContext) {
	if len(msg.Body) == 0 {
		app.Logger.Warnf("[Mail Worker %d] Received empty message body", workerNumber)
		_ = broker.Nack(msg, false)
		return
	}

	var jobPayload MailJobPayload
	if err := json.Unmarshal(msg.Body, &jobPayload); err != nil {
		app.Logger.Warnf("[Mail Worker %d] Invalid payload: %v", workerNumber, err)
		_ = broker.Nack(msg, false)
		return
	}

	workerPrefix := fmt.Sprintf("[Mail Worker %d: Retry %d]", workerNumber, jobPayload.Try)

	shouldRequeue, err := handler(ctx, jobPayload, app)
	if err != nil {
		app.Logger.Errorf("%s Handler error processing mail job for recipient: %s, template: %s: %v",
			workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile, err)

		if !shouldRequeue || jobPayload.Try >= MAX_QUEUE_RETRY {
			app.Logger.Warnf("%s Not requeuing mail job for recipient: %s, template: %s (shouldRequeue: %v)",
				workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile, shouldRequeue)
			_ = broker.Nack(msg, false)
			return
		}

		requeueMailJob(broker, workerPrefix, msg, jobPayload, app)
		return
	}

	app.Logger.Infof("%s Successfully processed mail job for recipient: %s, template: %s",
		workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile)
	_ = broker.Ack(msg)
}

func requeueMailJob(broker Broker, workerPrefix string, msg amqp091.Delivery, jobPayload MailJobPayload, app *MailConsumerContext) {
	jobPayload.Try++

	if err := PublishMailJob(broker, jobPayload); err != nil {
		app.Logger.Errorf("%s Failed to requeue mail job for recipient: %s, template: %s: %v",
			workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile, err)
		_ = broker.Nack(msg, false)
		return
	}

	app.Logger.Infof("%s Requeued mail job for recipient: %s, template: %s",
		workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile)
	_ = broker.Ack(msg)
}
