package certgen

import (
	"fmt"
	"time"
)

const DefaultMaxReportedErrors = 10

// Stage is the furthest step a participant reached in the pipeline.
type Stage int

const (
	StagePending Stage = iota
	StageValidated
	StageTemplateResolved
	StageRendered
	StageUploaded
	StageRecorded
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageValidated:
		return "validated"
	case StageTemplateResolved:
		return "template-resolved"
	case StageRendered:
		return "rendered"
	case StageUploaded:
		return "uploaded"
	case StageRecorded:
		return "recorded"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ItemResult is the outcome of one participant. Err is nil on success,
// Message is the text shown to the admin on failure.
type ItemResult struct {
	Index          int
	Participant    Participant
	Stage          Stage
	CertificateID  string
	CertificateURL string
	ObjectKey      string
	Err            error
	Message        string
}

func (r ItemResult) Succeeded() bool {
	return r.Err == nil && r.Stage == StageRecorded
}

func (r *ItemResult) fail(err error, message string) {
	r.Err = err
	r.Message = message
}

type Success struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	CertificateID  string `json:"certificateId"`
	CertificateURL string `json:"certificateUrl"`
	ObjectKey      string `json:"objectKey"`
}

type Report struct {
	EventID   EventID   `json:"eventId"`
	Total     int       `json:"total"`
	Generated int       `json:"generated"`
	Failed    int       `json:"failed"`
	Errors    []string  `json:"errors"`
	Successes []Success `json:"successes"`
	Message   string    `json:"message"`

	// Per participant outcomes in input order.
	Items    []ItemResult  `json:"-"`
	Duration time.Duration `json:"-"`
}

func newReport(eventID EventID, items []ItemResult, maxErrors int) *Report {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxReportedErrors
	}

	r := &Report{
		EventID:   eventID,
		Total:     len(items),
		Errors:    make([]string, 0),
		Successes: make([]Success, 0),
		Items:     items,
	}

	for _, item := range items {
		if item.Succeeded() {
			r.Generated++
			r.Successes = append(r.Successes, Success{
				Email:          NormalizeEmail(item.Participant.Email),
				Name:           item.Participant.Name,
				Category:       item.Participant.Category,
				CertificateID:  item.CertificateID,
				CertificateURL: item.CertificateURL,
				ObjectKey:      item.ObjectKey,
			})
			continue
		}

		r.Failed++
		if len(r.Errors) < maxErrors {
			r.Errors = append(r.Errors, item.Message)
		}
	}

	r.Message = fmt.Sprintf("Generated %d certificates. %d failed.", r.Generated, r.Failed)
	return r
}
