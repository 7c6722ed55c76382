package certgen

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice Smith", "Alice_Smith"},
		{"  O'Brien ", "O_Brien"},
		{"Zoë", "Zo_"},
		{"a/b\\c", "a_b_c"},
		{"abc123", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestCertificateObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	key, err := CertificateObjectKey("event-1", "Delegate", "Alice Smith", ".pdf", now)
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^certificates/event-1/delegate_Alice_Smith_1700000000000_[A-Za-z0-9_-]{8}\.pdf$`)
	assert.Regexp(t, pattern, key)

	other, err := CertificateObjectKey("event-1", "Delegate", "Alice Smith", ".pdf", now)
	require.NoError(t, err)
	assert.NotEqual(t, key, other, "keys generated in the same millisecond must differ")
}

func TestTemplateObjectKey(t *testing.T) {
	key, err := TemplateObjectKey("event-1", "Speaker", "Design.PNG", time.UnixMilli(42))
	require.NoError(t, err)
	assert.Regexp(t, `^templates/event-1/speaker_42_[A-Za-z0-9_-]{8}\.png$`, key)
}
