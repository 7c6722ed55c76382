package certgen

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF, "":
		return FormatPDF, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "application/pdf"
}

func (f Format) Ext() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".pdf"
}

type Config struct {
	// A path to json where it store font name and path to the font file
	FontMetadataPath string
	// Output document format for generated certificates
	Format Format
	// Shrink the font size of names wider than the template instead of letting them overflow
	ShrinkToFit bool
}

func NewDefaultConfig() Config {
	return Config{
		FontMetadataPath: "font_metadata.json",
		Format:           FormatPDF,
	}
}
