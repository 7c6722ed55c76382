package model

import (
	"github.com/SeakMengs/certportal/pkg/certgen"
	"gorm.io/gorm"
)

type Template struct {
	BaseModel
	EventID  string `gorm:"type:text;not null;uniqueIndex:idx_templates_event_category" json:"eventId"`
	Category string `gorm:"type:text;not null" json:"category"`
	// Lowercased category, one template per (event, category key)
	CategoryKey string `gorm:"type:text;not null;uniqueIndex:idx_templates_event_category" json:"-"`

	ImageKey string `gorm:"type:text;not null" json:"imageKey"`
	ImageURL string `gorm:"type:text;not null" json:"templateUrl"`
	Width    int    `gorm:"type:int;default:0" json:"width"`
	Height   int    `gorm:"type:int;default:0" json:"height"`
	BlurHash string `gorm:"type:text;default:null" json:"blurHash"`

	NamePositionX  float64 `gorm:"type:double precision;not null;default:50" json:"namePositionX"`
	NamePositionY  float64 `gorm:"type:double precision;not null;default:50" json:"namePositionY"`
	NameFontSize   float64 `gorm:"type:double precision;not null;default:48" json:"nameFontSize"`
	NameFontColor  string  `gorm:"type:varchar(9);not null;default:'#000000'" json:"nameFontColor"`
	NameFontFamily string  `gorm:"type:text;not null;default:'serif'" json:"nameFontFamily"`

	Event *Event `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"event,omitempty"`
}

func (t Template) TableName() string {
	return "certificate_templates"
}

func (t *Template) BeforeSave(tx *gorm.DB) error {
	t.CategoryKey = certgen.NormalizeCategory(t.Category)
	return nil
}

func (t Template) Placement() certgen.TextPlacement {
	return certgen.TextPlacement{
		PositionX:  t.NamePositionX,
		PositionY:  t.NamePositionY,
		FontSize:   t.NameFontSize,
		FontColor:  t.NameFontColor,
		FontFamily: t.NameFontFamily,
	}
}

func (t Template) ToCertgen() certgen.Template {
	return certgen.Template{
		ID:        t.ID,
		EventID:   certgen.EventID(t.EventID),
		Category:  t.Category,
		ImageKey:  t.ImageKey,
		ImageURL:  t.ImageURL,
		Placement: t.Placement(),
	}
}
