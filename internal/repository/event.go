package repository

import (
	"context"

	constant "github.com/SeakMengs/certportal/internal/constant"
	"github.com/SeakMengs/certportal/internal/model"
	"gorm.io/gorm"
)

type EventRepository struct {
	*baseRepository
}

func (er EventRepository) Create(ctx context.Context, tx *gorm.DB, event *model.Event) (*model.Event, error) {
	er.logger.Debugf("Create event: %s", event.Name)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.Event{}).Create(event).Error; err != nil {
		return event, err
	}

	return event, nil
}

func (er EventRepository) GetById(ctx context.Context, tx *gorm.DB, id string) (*model.Event, error) {
	er.logger.Debugf("Get event by id: %s", id)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var event model.Event
	if err := db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}

	return &event, nil
}

// Newest first, with the total count for pagination
func (er EventRepository) List(ctx context.Context, tx *gorm.DB, page, pageSize uint) ([]model.Event, int64, error) {
	er.logger.Debugf("List events, page: %d, pageSize: %d", page, pageSize)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var events []model.Event
	total := int64(0)

	if err := db.WithContext(ctx).Model(&model.Event{}).Count(&total).Error; err != nil {
		return events, total, err
	}

	if err := db.WithContext(ctx).Model(&model.Event{}).
		Order("created_at desc").
		Scopes(paginate(page, pageSize)).
		Find(&events).Error; err != nil {
		return events, total, err
	}

	return events, total, nil
}

func (er EventRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	er.logger.Debugf("Delete event: %s", id)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	result := db.WithContext(ctx).Where("id = ?", id).Delete(&model.Event{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
