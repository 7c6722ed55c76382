package model

import (
	"github.com/SeakMengs/certportal/pkg/certgen"
	"gorm.io/datatypes"
)

type Certificate struct {
	BaseModel
	Email string `gorm:"type:text;not null;uniqueIndex:idx_certificates_email_event" json:"email"`
	Name  string `gorm:"type:text;not null" json:"name"`
	// Null for certificates imported without an event, e.g. through bulk upload
	EventID        *string                     `gorm:"type:text;default:null;uniqueIndex:idx_certificates_email_event" json:"eventId"`
	EventName      string                      `gorm:"type:text;not null" json:"eventName"`
	DateOfEvent    string                      `gorm:"type:text;default:null" json:"dateOfEvent"`
	Category       string                      `gorm:"type:text;default:null" json:"category"`
	Tags           datatypes.JSONSlice[string] `gorm:"default:null" json:"tags"`
	CertificateURL string                      `gorm:"type:text;not null" json:"certificateUrl"`
	// Empty for certificates that were not generated by us
	ObjectKey string `gorm:"type:text;default:null" json:"objectKey,omitempty"`

	Event *Event `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

func (c Certificate) TableName() string {
	return "certificates"
}

func (c Certificate) ToCertgen() *certgen.CertificateRecord {
	var eventID certgen.EventID
	if c.EventID != nil {
		eventID = certgen.EventID(*c.EventID)
	}

	return &certgen.CertificateRecord{
		ID:             c.ID,
		Email:          c.Email,
		Name:           c.Name,
		EventID:        eventID,
		EventName:      c.EventName,
		DateOfEvent:    c.DateOfEvent,
		Category:       c.Category,
		Tags:           []string(c.Tags),
		CertificateURL: c.CertificateURL,
		ObjectKey:      c.ObjectKey,
	}
}

// CertificateFromCertgen copies a record into a model, leaving the id empty.
func CertificateFromCertgen(r *certgen.CertificateRecord) *Certificate {
	c := &Certificate{
		Email:          certgen.NormalizeEmail(r.Email),
		Name:           r.Name,
		EventName:      r.EventName,
		DateOfEvent:    r.DateOfEvent,
		Category:       r.Category,
		Tags:           datatypes.JSONSlice[string](r.Tags),
		CertificateURL: r.CertificateURL,
		ObjectKey:      r.ObjectKey,
	}

	if r.EventID != "" {
		id := r.EventID.String()
		c.EventID = &id
	}

	return c
}
