package certgen

import "strings"

// EventID identifies an event. It is parsed once at the HTTP or queue
// boundary and passed around as an opaque key afterwards.
type EventID string

func (id EventID) String() string {
	return string(id)
}

type Event struct {
	ID       EventID
	Name     string
	Date     string
	Location string
}

type Participant struct {
	Email    string   `json:"email" validate:"required,strNotEmpty"`
	Name     string   `json:"name" validate:"required,strNotEmpty"`
	Category string   `json:"category" validate:"required,strNotEmpty"`
	Tags     []string `json:"tags,omitempty"`
}

// Identifier is used in error messages, falling back from email to name.
func (p Participant) Identifier() string {
	if s := strings.TrimSpace(p.Email); s != "" {
		return s
	}
	if s := strings.TrimSpace(p.Name); s != "" {
		return s
	}
	return "unknown"
}

type CertificateRecord struct {
	ID             string
	Email          string
	Name           string
	EventID        EventID
	EventName      string
	DateOfEvent    string
	Category       string
	Tags           []string
	CertificateURL string
	ObjectKey      string
}

// NormalizeEmail returns the natural key form of an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCategory returns the lookup key of a category.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
