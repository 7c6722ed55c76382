package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/SeakMengs/certportal/internal/constant"
	"github.com/SeakMengs/certportal/internal/metrics"
	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/internal/queue"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GenerateController struct {
	*baseController
}

const ErrNoParticipants = "at least one participant is required"

type generateRequest struct {
	Participants []certgen.Participant `json:"participants" binding:"required"`
}

// readParticipants accepts a JSON body or a multipart form with a csvFile.
func (gc GenerateController) readParticipants(ctx *gin.Context) ([]certgen.Participant, bool) {
	if file, err := ctx.FormFile("csvFile"); err == nil {
		src, err := file.Open()
		if err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to read CSV", util.GenerateErrorMessages(err, "csvFile"), nil)
			return nil, false
		}
		defer src.Close()

		records, err := certgen.ReadCSV(src)
		if err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid CSV", util.GenerateErrorMessages(err, "csvFile"), nil)
			return nil, false
		}

		participants, err := certgen.ParseParticipants(records)
		if err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid CSV", util.GenerateErrorMessages(err, "csvFile"), nil)
			return nil, false
		}

		if len(participants) == 0 {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid CSV", util.GenerateErrorMessages(errors.New(ErrNoParticipants), "csvFile"), nil)
			return nil, false
		}
		return participants, true
	}

	var body generateRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return nil, false
	}

	if len(body.Participants) == 0 {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(errors.New(ErrNoParticipants), "participants"), nil)
		return nil, false
	}

	return body.Participants, true
}

func (gc GenerateController) requestedBy(ctx *gin.Context) string {
	admin, err := gc.getAdmin(ctx)
	if err != nil {
		return ""
	}
	return admin.Email
}

// Generate runs the batch within the request and answers with the report.
// Individual failures are part of a successful response.
func (gc GenerateController) Generate(ctx *gin.Context) {
	eventId, ok := gc.eventIdParam(ctx)
	if !ok {
		return
	}

	participants, ok := gc.readParticipants(ctx)
	if !ok {
		return
	}

	generator, err := gc.app.NewGenerator(len(participants))
	if err != nil {
		gc.respondError(ctx, "Generator unavailable", err)
		return
	}

	log, err := gc.app.Repository.GenerationLog.Create(ctx, nil, &model.GenerationLog{
		EventID:     eventId.String(),
		Status:      constant.GenerationStatusProcessing,
		Total:       len(participants),
		RequestedBy: gc.requestedBy(ctx),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			err = fmt.Errorf("%w: %s", certgen.ErrEventNotFound, eventId)
		}
		gc.respondError(ctx, "Failed to generate certificates", err)
		return
	}

	report, err := generator.Generate(ctx, eventId, participants)
	metrics.ObserveBatch("sync", err)
	if err != nil {
		if logErr := gc.app.Repository.GenerationLog.UpdateStatus(context.WithoutCancel(ctx), nil, log.ID, constant.GenerationStatusFailed, err.Error()); logErr != nil {
			gc.app.Logger.Errorf("Failed to update generation log %s: %v", log.ID, logErr)
		}
		gc.respondError(ctx, "Failed to generate certificates", err)
		return
	}

	if err := gc.app.Repository.GenerationLog.Complete(context.WithoutCancel(ctx), nil, log.ID, report); err != nil {
		gc.app.Logger.Errorf("Failed to complete generation log %s: %v", log.ID, err)
	}

	util.ResponseSuccess(ctx, gin.H{
		"logId":  log.ID,
		"report": report,
	})
}

// GenerateAsync records a queued generation log and hands the batch to the
// certificate consumer. Without RabbitMQ the batch runs in the background.
func (gc GenerateController) GenerateAsync(ctx *gin.Context) {
	eventId, ok := gc.eventIdParam(ctx)
	if !ok {
		return
	}

	participants, ok := gc.readParticipants(ctx)
	if !ok {
		return
	}

	if _, err := gc.app.Repository.Event.GetById(ctx, nil, eventId.String()); err != nil {
		gc.respondError(ctx, "Event not found", err)
		return
	}

	log, err := gc.app.Repository.GenerationLog.Create(ctx, nil, &model.GenerationLog{
		EventID:     eventId.String(),
		Status:      constant.GenerationStatusQueued,
		Total:       len(participants),
		RequestedBy: gc.requestedBy(ctx),
	})
	if err != nil {
		gc.respondError(ctx, "Failed to queue generation", err)
		return
	}

	payload := queue.NewCertificateGeneratePayload(eventId, participants, log.ID, log.RequestedBy)

	if gc.app.QueueEnabled() {
		if err := queue.PublishCertificateGenerateJob(gc.app.Queue, payload); err != nil {
			metrics.ObserveBatch("async", err)
			if logErr := gc.app.Repository.GenerationLog.UpdateStatus(ctx, nil, log.ID, constant.GenerationStatusFailed, "failed to queue generation"); logErr != nil {
				gc.app.Logger.Errorf("Failed to update generation log %s: %v", log.ID, logErr)
			}
			gc.respondError(ctx, "Failed to queue generation", err)
			return
		}
	} else {
		generator, err := gc.app.NewGenerator(len(participants))
		if err != nil {
			gc.respondError(ctx, "Generator unavailable", err)
			return
		}

		consumer := &queue.ConsumerContext{
			Logger:         gc.app.Logger,
			Generator:      generator,
			GenerationLogs: gc.app.Repository.GenerationLog,
			JobTimeout:     gc.app.Config.Generate.JobTimeout,
		}
		go func() {
			_, err := queue.HandleCertificateGenerateJob(context.Background(), payload, consumer)
			metrics.ObserveBatch("async", err)
			if err != nil {
				gc.app.Logger.Errorf("Background generation for event %s failed: %v", eventId, err)
				if logErr := gc.app.Repository.GenerationLog.UpdateStatus(context.Background(), nil, log.ID, constant.GenerationStatusFailed, err.Error()); logErr != nil {
					gc.app.Logger.Errorf("Failed to update generation log %s: %v", log.ID, logErr)
				}
			}
		}()
	}

	util.ResponseStatus(ctx, http.StatusAccepted, gin.H{
		"logId":  log.ID,
		"status": log.Status,
	})
}

func (gc GenerateController) ListGenerationLogs(ctx *gin.Context) {
	eventId, ok := gc.eventIdParam(ctx)
	if !ok {
		return
	}
	page, pageSize := gc.getPage(ctx)

	logs, total, err := gc.app.Repository.GenerationLog.ListByEventId(ctx, nil, eventId.String(), page, pageSize)
	if err != nil {
		gc.respondError(ctx, "Failed to list generation logs", err)
		return
	}

	util.ResponsePaginated(ctx, logs, total, page, pageSize)
}

func (gc GenerateController) GetGenerationLog(ctx *gin.Context) {
	eventId, ok := gc.eventIdParam(ctx)
	if !ok {
		return
	}

	logId, err := parseUUIDParam(ctx, "logId")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid log id", util.GenerateErrorMessages(err, "logId"), nil)
		return
	}

	log, err := gc.app.Repository.GenerationLog.GetById(ctx, nil, logId)
	if err != nil || log.EventID != eventId.String() {
		if err == nil {
			err = fmt.Errorf("generation log %s does not belong to event %s", logId, eventId)
		}
		util.ResponseFailed(ctx, http.StatusNotFound, "Generation log not found", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"log": log,
	})
}
