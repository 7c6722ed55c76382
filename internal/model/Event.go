package model

import "github.com/SeakMengs/certportal/pkg/certgen"

type Event struct {
	BaseModel
	Name      string `gorm:"type:text;not null" json:"name" form:"name" binding:"required,strNotEmpty,cmax=200"`
	EventDate string `gorm:"type:text;default:null" json:"eventDate" form:"eventDate"`
	Location  string `gorm:"type:text;default:null" json:"location" form:"location"`

	Templates []Template `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"templates,omitempty"`
}

func (e Event) TableName() string {
	return "events"
}

func (e Event) ToCertgen() *certgen.Event {
	return &certgen.Event{
		ID:       certgen.EventID(e.ID),
		Name:     e.Name,
		Date:     e.EventDate,
		Location: e.Location,
	}
}
