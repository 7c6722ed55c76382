package repository

import (
	"context"
	"errors"
	"strings"

	constant "github.com/SeakMengs/certportal/internal/constant"
	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type CertificateRepository struct {
	*baseRepository
}

func (cr CertificateRepository) Create(ctx context.Context, tx *gorm.DB, certificate *model.Certificate) (*model.Certificate, error) {
	cr.logger.Debugf("Create certificate for email: %s", certificate.Email)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	certificate.Email = certgen.NormalizeEmail(certificate.Email)
	if err := db.WithContext(ctx).Model(&model.Certificate{}).Create(certificate).Error; err != nil {
		return certificate, err
	}

	return certificate, nil
}

func (cr CertificateRepository) CreateMany(ctx context.Context, tx *gorm.DB, certificates []*model.Certificate) ([]*model.Certificate, error) {
	cr.logger.Debugf("Create multiple certificates: %d", len(certificates))

	if len(certificates) == 0 {
		return certificates, nil
	}

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	silentDB := db.Session(&gorm.Session{
		Logger: db.Logger.LogMode(logger.Silent),
	})

	if err := silentDB.WithContext(ctx).Model(&model.Certificate{}).Create(certificates).Error; err != nil {
		return certificates, err
	}

	return certificates, nil
}

func (cr CertificateRepository) GetById(ctx context.Context, tx *gorm.DB, id string) (*model.Certificate, error) {
	cr.logger.Debugf("Get certificate by id: %s", id)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificate model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).Where("id = ?", id).First(&certificate).Error; err != nil {
		return nil, err
	}

	return &certificate, nil
}

// Return nil, nil when the participant has no certificate for the event
func (cr CertificateRepository) GetByEmailAndEvent(ctx context.Context, tx *gorm.DB, email, eventId string) (*model.Certificate, error) {
	cr.logger.Debugf("Get certificate by email: %s, event id: %s", email, eventId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificate model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).
		Where("email = ? AND event_id = ?", certgen.NormalizeEmail(email), eventId).
		First(&certificate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &certificate, nil
}

// Case-insensitive lookup, newest event first
func (cr CertificateRepository) SearchByEmail(ctx context.Context, tx *gorm.DB, email string) ([]model.Certificate, error) {
	cr.logger.Debugf("Search certificates by email: %s", email)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificates []model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).
		Where("LOWER(email) = ?", certgen.NormalizeEmail(email)).
		Order("date_of_event desc nulls last").
		Find(&certificates).Error; err != nil {
		return certificates, err
	}

	return certificates, nil
}

type CertificateFilter struct {
	EventId string
	// Matched against email, name and event name
	Search string
}

func (cr CertificateRepository) List(ctx context.Context, tx *gorm.DB, filter CertificateFilter, page, pageSize uint) ([]model.Certificate, int64, error) {
	cr.logger.Debugf("List certificates, filter: %+v, page: %d, pageSize: %d", filter, page, pageSize)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.Certificate{})
	if filter.EventId != "" {
		query = query.Where("event_id = ?", filter.EventId)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		query = query.Where("email ILIKE ? OR name ILIKE ? OR event_name ILIKE ?", like, like, like)
	}

	var certificates []model.Certificate
	total := int64(0)

	if err := query.Count(&total).Error; err != nil {
		return certificates, total, err
	}

	if err := query.Order("created_at desc").Scopes(paginate(page, pageSize)).Find(&certificates).Error; err != nil {
		return certificates, total, err
	}

	return certificates, total, nil
}

// Every generated certificate of an event, ordered by category and name for exports
func (cr CertificateRepository) ListGeneratedByEventId(ctx context.Context, tx *gorm.DB, eventId string) ([]model.Certificate, error) {
	cr.logger.Debugf("List generated certificates by event id: %s", eventId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificates []model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).
		Where("event_id = ? AND object_key IS NOT NULL AND object_key <> ''", eventId).
		Order("category asc, name asc").
		Find(&certificates).Error; err != nil {
		return certificates, err
	}

	return certificates, nil
}

func (cr CertificateRepository) Update(ctx context.Context, tx *gorm.DB, id string, certificate *model.Certificate) (*model.Certificate, error) {
	cr.logger.Debugf("Update certificate: %s", id)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	result := db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ?", id).
		Select("email", "name", "event_id", "event_name", "date_of_event", "category", "tags", "certificate_url", "object_key").
		Updates(&model.Certificate{
			Email:          certgen.NormalizeEmail(certificate.Email),
			Name:           certificate.Name,
			EventID:        certificate.EventID,
			EventName:      certificate.EventName,
			DateOfEvent:    certificate.DateOfEvent,
			Category:       certificate.Category,
			Tags:           certificate.Tags,
			CertificateURL: certificate.CertificateURL,
			ObjectKey:      certificate.ObjectKey,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return cr.GetById(ctx, tx, id)
}

func (cr CertificateRepository) Delete(ctx context.Context, tx *gorm.DB, id string) (*model.Certificate, error) {
	cr.logger.Debugf("Delete certificate: %s", id)

	certificate, err := cr.GetById(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Delete(&model.Certificate{}, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return certificate, nil
}
