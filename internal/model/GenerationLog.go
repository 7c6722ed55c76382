package model

import (
	"time"

	"github.com/SeakMengs/certportal/internal/constant"
	"gorm.io/datatypes"
)

// GenerationLog records one batch run, whether requested inline or through the queue.
type GenerationLog struct {
	BaseModel
	EventID     string                      `gorm:"type:text;not null;index" json:"eventId"`
	Status      constant.GenerationStatus   `gorm:"type:text;not null" json:"status"`
	Total       int                         `gorm:"type:int;not null;default:0" json:"total"`
	Generated   int                         `gorm:"type:int;not null;default:0" json:"generated"`
	Failed      int                         `gorm:"type:int;not null;default:0" json:"failed"`
	Errors      datatypes.JSONSlice[string] `gorm:"default:null" json:"errors"`
	Message     string                      `gorm:"type:text;default:null" json:"message"`
	DurationMs  int64                       `gorm:"type:bigint;default:0" json:"durationMs"`
	RequestedBy string                      `gorm:"type:text;default:null" json:"requestedBy"`
	CompletedAt *time.Time                  `gorm:"type:timestamptz;default:null" json:"completedAt"`

	Event *Event `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (gl GenerationLog) TableName() string {
	return "generation_logs"
}
