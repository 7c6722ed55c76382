package certgen

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const uniqueTokenLength = 8

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeName replaces every character outside [a-zA-Z0-9] with an underscore.
func SanitizeName(s string) string {
	return nonAlphanumeric.ReplaceAllString(strings.TrimSpace(s), "_")
}

func GetEventCertificateDirectoryPath(eventID EventID) string {
	return fmt.Sprintf("certificates/%s", eventID)
}

func GetEventTemplateDirectoryPath(eventID EventID) string {
	return fmt.Sprintf("templates/%s", eventID)
}

// CertificateObjectKey builds a fresh key for a generated document.
// Example: "certificates/<event>/delegate_Alice_Smith_1700000000000_V1StGXR8.pdf"
func CertificateObjectKey(eventID EventID, category, name, ext string, now time.Time) (string, error) {
	token, err := gonanoid.New(uniqueTokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate unique token: %w", err)
	}

	fileName := fmt.Sprintf("%s_%s_%d_%s%s", SanitizeName(NormalizeCategory(category)), SanitizeName(name), now.UnixMilli(), token, ext)
	return GetEventCertificateDirectoryPath(eventID) + "/" + fileName, nil
}

// TemplateObjectKey builds the key of an uploaded template image, keeping the
// extension of the uploaded file.
func TemplateObjectKey(eventID EventID, category, originalFileName string, now time.Time) (string, error) {
	token, err := gonanoid.New(uniqueTokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate unique token: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalFileName))
	fileName := fmt.Sprintf("%s_%d_%s%s", SanitizeName(NormalizeCategory(category)), now.UnixMilli(), token, ext)
	return GetEventTemplateDirectoryPath(eventID) + "/" + fileName, nil
}
