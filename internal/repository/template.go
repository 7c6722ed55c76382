package repository

import (
	"context"
	"errors"

	constant "github.com/SeakMengs/certportal/internal/constant"
	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	*baseRepository
}

// Create fails with certgen.ErrTemplateExists when the event already has a
// template for the category, compared case-insensitively.
func (tr TemplateRepository) Create(ctx context.Context, tx *gorm.DB, template *model.Template) (*model.Template, error) {
	tr.logger.Debugf("Create template for event: %s, category: %s", template.EventID, template.Category)

	template.CategoryKey = certgen.NormalizeCategory(template.Category)

	err := tr.withTx(tr.getDB(tx), func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		var count int64
		if err := tx.WithContext(ctx).Model(&model.Template{}).
			Where("event_id = ? AND category_key = ?", template.EventID, template.CategoryKey).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return certgen.ErrTemplateExists
		}

		if err := tx.WithContext(ctx).Model(&model.Template{}).Create(template).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return certgen.ErrTemplateExists
			}
			return err
		}
		return nil
	})

	return template, err
}

func (tr TemplateRepository) GetById(ctx context.Context, tx *gorm.DB, eventId, id string) (*model.Template, error) {
	tr.logger.Debugf("Get template by id: %s, event id: %s", id, eventId)

	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var template model.Template
	if err := db.WithContext(ctx).Model(&model.Template{}).
		Where("id = ? AND event_id = ?", id, eventId).
		First(&template).Error; err != nil {
		return nil, err
	}

	return &template, nil
}

// Newest first
func (tr TemplateRepository) ListByEventId(ctx context.Context, tx *gorm.DB, eventId string) ([]model.Template, error) {
	tr.logger.Debugf("List templates by event id: %s", eventId)

	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var templates []model.Template
	if err := db.WithContext(ctx).Model(&model.Template{}).
		Where("event_id = ?", eventId).
		Order("created_at desc").
		Find(&templates).Error; err != nil {
		return templates, err
	}

	return templates, nil
}

func (tr TemplateRepository) UpdatePlacement(ctx context.Context, tx *gorm.DB, eventId, id string, placement certgen.TextPlacement) (*model.Template, error) {
	tr.logger.Debugf("Update template placement: %s, placement: %+v", id, placement)

	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	result := db.WithContext(ctx).Model(&model.Template{}).
		Where("id = ? AND event_id = ?", id, eventId).
		Updates(map[string]any{
			"name_position_x":  placement.PositionX,
			"name_position_y":  placement.PositionY,
			"name_font_size":   placement.FontSize,
			"name_font_color":  placement.FontColor,
			"name_font_family": placement.FontFamily,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return tr.GetById(ctx, tx, eventId, id)
}

func (tr TemplateRepository) Delete(ctx context.Context, tx *gorm.DB, eventId, id string) (*model.Template, error) {
	tr.logger.Debugf("Delete template: %s, event id: %s", id, eventId)

	template, err := tr.GetById(ctx, tx, eventId, id)
	if err != nil {
		return nil, err
	}

	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Delete(&model.Template{}, "id = ?", template.ID).Error; err != nil {
		return nil, err
	}

	return template, nil
}
