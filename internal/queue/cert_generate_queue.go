package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SeakMengs/certportal/internal/constant"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Broker is what the workers need from RabbitMQ.
type Broker interface {
	Publisher
	Acknowledger
}

type Generator interface {
	Generate(ctx context.Context, eventID certgen.EventID, participants []certgen.Participant) (*certgen.Report, error)
}

type GenerationLogWriter interface {
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status constant.GenerationStatus, message string) error
	Complete(ctx context.Context, tx *gorm.DB, id string, report *certgen.Report) error
}

type ConsumerContext struct {
	Logger         *zap.SugaredLogger
	Generator      Generator
	GenerationLogs GenerationLogWriter
	// Upper bound for one batch, zero means no limit
	JobTimeout time.Duration
}

type CertificateGeneratePayload struct {
	EventID      string                `json:"event_id"`
	Participants []certgen.Participant `json:"participants"`
	LogID        string                `json:"log_id"`
	RequestedBy  string                `json:"requested_by"`
	CreatedAt    string                `json:"created_at"`
	Retry        int                   `json:"retry" default:"0"`
}

func NewCertificateGeneratePayload(eventID certgen.EventID, participants []certgen.Participant, logID, requestedBy string) CertificateGeneratePayload {
	return CertificateGeneratePayload{
		EventID:      eventID.String(),
		Participants: participants,
		LogID:        logID,
		RequestedBy:  requestedBy,
		CreatedAt:    time.Now().Format(time.RFC3339),
	}
}

func PublishCertificateGenerateJob(p Publisher, payload CertificateGeneratePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate generate payload: %w", err)
	}

	return p.Publish(QueueCertificateGenerate, body)
}

// Return whether the job should be retried, and the error if any
type CertificateGenerateJobHandler func(ctx context.Context, jobPayload CertificateGeneratePayload, app *ConsumerContext) (bool, error)

// HandleCertificateGenerateJob runs one batch and records its outcome in the
// generation log. Missing events and templates are not retried.
func HandleCertificateGenerateJob(ctx context.Context, jobPayload CertificateGeneratePayload, app *ConsumerContext) (bool, error) {
	if err := app.GenerationLogs.UpdateStatus(ctx, nil, jobPayload.LogID, constant.GenerationStatusProcessing, ""); err != nil {
		return true, fmt.Errorf("failed to mark generation log %s as processing: %w", jobPayload.LogID, err)
	}

	if app.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.JobTimeout)
		defer cancel()
	}

	report, err := app.Generator.Generate(ctx, certgen.EventID(jobPayload.EventID), jobPayload.Participants)
	if err != nil {
		return !certgen.IsFatal(err), err
	}

	if err := app.GenerationLogs.Complete(ctx, nil, jobPayload.LogID, report); err != nil {
		// The certificates are stored, running the batch again only replaces them
		return false, fmt.Errorf("failed to complete generation log %s: %w", jobPayload.LogID, err)
	}

	app.Logger.Infof("Event %s: %s", jobPayload.EventID, report.Message)
	return false, nil
}

func (r *RabbitMQ) ConsumeCertificateGenerateJob(ctx context.Context, handler CertificateGenerateJobHandler, maxWorker int, app *ConsumerContext) error {
	msgs, err := r.Consume(QueueCertificateGenerate, maxWorker)
	if err != nil {
		return fmt.Errorf("failed to start consuming certificate generate jobs: %w", err)
	}

	for i := range maxWorker {
		go func(workerNumber int) {
			runCertificateWorker(ctx, r, workerNumber, msgs, handler, app)
		}(i + 1)
	}

	return nil
}

func runCertificateWorker(ctx context.Context, broker Broker, workerNumber int, msgs <-chan amqp091.Delivery, handler CertificateGenerateJobHandler, app *ConsumerContext) {
	for {
		select {
		case <-ctx.Done():
			app.Logger.Infof("[Certificate Worker %d] Shutting down", workerNumber)
			return
		case msg, ok := <-msgs:
			if !ok {
				app.Logger.Infof("[Certificate Worker %d] Message channel closed", workerNumber)
				return
			}
			processCertificateJob(ctx, broker, workerNumber, msg, handler, app)
		}
	}
}

func processCertificateJob(ctx context.Context, broker Broker, workerNumber int, msg amqp091.Delivery, handler CertificateGenerateJobHandler, app *ConsumerContext) {
	if len(msg.Body) == 0 {
		app.Logger.Warnf("[Certificate Worker %d] Received empty message body", workerNumber)
		_ = broker.Nack(msg, false)
		return
	}

	var jobPayload CertificateGeneratePayload
	if err := json.Unmarshal(msg.Body, &jobPayload); err != nil {
		app.Logger.Warnf("[Certificate Worker %d] Invalid payload: %v", workerNumber, err)
		_ = broker.Nack(msg, false)
		return
	}

	workerPrefix := fmt.Sprintf("[Certificate Worker %d: Retry %d]", workerNumber, jobPayload.Retry)

	shouldRequeue, err := handler(ctx, jobPayload, app)
	if err != nil {
		app.Logger.Errorf("%s Handler error for event %s: %v", workerPrefix, jobPayload.EventID, err)

		if !shouldRequeue || jobPayload.Retry >= MAX_QUEUE_RETRY {
			handleCertificateJobFailure(ctx, broker, workerPrefix, msg, jobPayload, err, app)
			return
		}

		requeueCertificateJob(broker, workerPrefix, msg, jobPayload, app)
		return
	}

	app.Logger.Infof("%s Successfully processed job for event %s, requested by %s", workerPrefix, jobPayload.EventID, jobPayload.RequestedBy)
	_ = broker.Ack(msg)
}

func handleCertificateJobFailure(ctx context.Context, broker Broker, workerPrefix string, msg amqp091.Delivery, jobPayload CertificateGeneratePayload, jobErr error, app *ConsumerContext) {
	app.Logger.Warnf("%s Dropping job for event %s", workerPrefix, jobPayload.EventID)

	message := jobErr.Error()
	if errors.Is(jobErr, context.DeadlineExceeded) {
		message = "generation timed out"
	}

	if err := app.GenerationLogs.UpdateStatus(context.WithoutCancel(ctx), nil, jobPayload.LogID, constant.GenerationStatusFailed, message); err != nil {
		app.Logger.Errorf("%s Failed to mark generation log %s as failed: %v", workerPrefix, jobPayload.LogID, err)
	}

	_ = broker.Nack(msg, false)
}

func requeueCertificateJob(broker Broker, workerPrefix string, msg amqp091.Delivery, jobPayload CertificateGeneratePayload, app *ConsumerContext) {
	jobPayload.Retry++

	if err := PublishCertificateGenerateJob(broker, jobPayload); err != nil {
		app.Logger.Errorf("%s Failed to requeue job for event %s: %v", workerPrefix, jobPayload.EventID, err)
		_ = broker.Nack(msg, false)
		return
	}

	app.Logger.Infof("%s Requeued job for event %s", workerPrefix, jobPayload.EventID)
	_ = broker.Ack(msg)
}
