package util

import (
	"os"
	"strings"
	"testing"
)

func TestCreateTemp(t *testing.T) {
	f, err := CreateTemp("export-*.zip")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if !strings.HasPrefix(f.Name(), GetTempDir()) {
		t.Errorf("Expected temp file inside %s, got %s", GetTempDir(), f.Name())
	}
}

func TestAttachmentName(t *testing.T) {
	tests := []struct {
		title  string
		suffix string
		want   string
	}{
		{"Tech Summit", "_certificates.zip", "Tech_Summit_certificates.zip"},
		{"  Go   Day ", ".pdf", "Go_Day.pdf"},
		{"", ".zip", "certificates.zip"},
	}

	for _, tt := range tests {
		if got := AttachmentName(tt.title, tt.suffix); got != tt.want {
			t.Errorf("AttachmentName(%q, %q) = %q, want %q", tt.title, tt.suffix, got, tt.want)
		}
	}
}
