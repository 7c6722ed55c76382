package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func GetTempDir() string {
	return filepath.Join(os.TempDir(), "certportal")
}

func CreateTemp(pattern string) (*os.File, error) {
	tempDir := GetTempDir()
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return os.CreateTemp(tempDir, pattern)
}

// AttachmentName builds a download file name such as "Tech_Summit_certificates.zip".
func AttachmentName(title, suffix string) string {
	title = strings.Join(strings.Fields(title), "_")
	if title == "" {
		title = "certificates"
	}
	return title + suffix
}
