package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"gorm.io/gorm"
)

// CertgenStore exposes the repositories as the storage interfaces of the
// certificate generator.
type CertgenStore struct {
	repo *Repository
}

var (
	_ certgen.EventSource      = (*CertgenStore)(nil)
	_ certgen.TemplateRegistry = (*CertgenStore)(nil)
	_ certgen.CertificateStore = (*CertgenStore)(nil)
)

func NewCertgenStore(repo *Repository) *CertgenStore {
	return &CertgenStore{repo: repo}
}

func (s *CertgenStore) GetEvent(ctx context.Context, eventID certgen.EventID) (*certgen.Event, error) {
	event, err := s.repo.Event.GetById(ctx, nil, eventID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", certgen.ErrEventNotFound, eventID)
		}
		return nil, err
	}

	return event.ToCertgen(), nil
}

func (s *CertgenStore) GetTemplatesForEvent(ctx context.Context, eventID certgen.EventID) ([]certgen.Template, error) {
	templates, err := s.repo.Template.ListByEventId(ctx, nil, eventID.String())
	if err != nil {
		return nil, err
	}

	result := make([]certgen.Template, 0, len(templates))
	for _, t := range templates {
		result = append(result, t.ToCertgen())
	}

	return result, nil
}

func (s *CertgenStore) FindByEmailAndEvent(ctx context.Context, email string, eventID certgen.EventID) (*certgen.CertificateRecord, error) {
	certificate, err := s.repo.Certificate.GetByEmailAndEvent(ctx, nil, email, eventID.String())
	if err != nil || certificate == nil {
		return nil, err
	}

	return certificate.ToCertgen(), nil
}

func (s *CertgenStore) Insert(ctx context.Context, record *certgen.CertificateRecord) (*certgen.CertificateRecord, error) {
	certificate, err := s.repo.Certificate.Create(ctx, nil, model.CertificateFromCertgen(record))
	if err != nil {
		return nil, err
	}

	return certificate.ToCertgen(), nil
}

func (s *CertgenStore) Update(ctx context.Context, id string, record *certgen.CertificateRecord) (*certgen.CertificateRecord, error) {
	certificate, err := s.repo.Certificate.Update(ctx, nil, id, model.CertificateFromCertgen(record))
	if err != nil {
		return nil, err
	}

	return certificate.ToCertgen(), nil
}
