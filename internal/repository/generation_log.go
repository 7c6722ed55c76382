package repository

import (
	"context"
	"time"

	constant "github.com/SeakMengs/certportal/internal/constant"
	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GenerationLogRepository struct {
	*baseRepository
}

func (glr GenerationLogRepository) Create(ctx context.Context, tx *gorm.DB, log *model.GenerationLog) (*model.GenerationLog, error) {
	glr.logger.Debugf("Create generation log for event: %s, status: %s", log.EventID, log.Status)

	db := glr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.GenerationLog{}).Create(log).Error; err != nil {
		return log, err
	}

	return log, nil
}

func (glr GenerationLogRepository) GetById(ctx context.Context, tx *gorm.DB, id string) (*model.GenerationLog, error) {
	glr.logger.Debugf("Get generation log by id: %s", id)

	db := glr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var log model.GenerationLog
	if err := db.WithContext(ctx).Model(&model.GenerationLog{}).Where("id = ?", id).First(&log).Error; err != nil {
		return nil, err
	}

	return &log, nil
}

func (glr GenerationLogRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status constant.GenerationStatus, message string) error {
	glr.logger.Debugf("Update generation log status: %s, status: %s", id, status)

	db := glr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	updates := map[string]any{"status": status}
	if message != "" {
		updates["message"] = message
	}
	if status == constant.GenerationStatusFailed {
		updates["completed_at"] = time.Now()
	}

	return db.WithContext(ctx).Model(&model.GenerationLog{}).Where("id = ?", id).Updates(updates).Error
}

// Complete stores the outcome of a finished batch.
func (glr GenerationLogRepository) Complete(ctx context.Context, tx *gorm.DB, id string, report *certgen.Report) error {
	glr.logger.Debugf("Complete generation log: %s, generated: %d, failed: %d", id, report.Generated, report.Failed)

	db := glr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.GenerationLog{}).Where("id = ?", id).Updates(map[string]any{
		"status":       constant.GenerationStatusCompleted,
		"total":        report.Total,
		"generated":    report.Generated,
		"failed":       report.Failed,
		"errors":       datatypes.JSONSlice[string](report.Errors),
		"message":      report.Message,
		"duration_ms":  report.Duration.Milliseconds(),
		"completed_at": time.Now(),
	}).Error
}

// Newest first
func (glr GenerationLogRepository) ListByEventId(ctx context.Context, tx *gorm.DB, eventId string, page, pageSize uint) ([]model.GenerationLog, int64, error) {
	glr.logger.Debugf("List generation logs by event id: %s", eventId)

	db := glr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var logs []model.GenerationLog
	total := int64(0)

	query := db.WithContext(ctx).Model(&model.GenerationLog{}).Where("event_id = ?", eventId)
	if err := query.Count(&total).Error; err != nil {
		return logs, total, err
	}

	if err := query.Order("created_at desc").Scopes(paginate(page, pageSize)).Find(&logs).Error; err != nil {
		return logs, total, err
	}

	return logs, total, nil
}
