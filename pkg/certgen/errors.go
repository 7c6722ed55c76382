package certgen

import "errors"

// Per participant failures. The batch generator records them and moves on.
var (
	ErrValidation       = errors.New("validation error")
	ErrTemplateNotFound = errors.New("template not found")
	ErrDecode           = errors.New("decode error")
	ErrEncode           = errors.New("encode error")
	ErrStorage          = errors.New("storage error")
	ErrPersistence      = errors.New("persistence error")
)

// Pre-flight failures that abort the whole batch.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrNoTemplates   = errors.New("no templates found for this event")
)

var (
	ErrObjectExists   = errors.New("object already exists")
	ErrTemplateExists = errors.New("template already exists for this category")
)

// IsFatal reports whether err aborts a batch before any participant is processed.
func IsFatal(err error) bool {
	return errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrNoTemplates)
}
