package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/SeakMengs/certportal/internal/util"
	"github.com/SeakMengs/certportal/pkg/certgen"
)

func main() {
	fontDir := flag.String("dir", "fonts", "directory containing .ttf and .otf files")
	outputFile := flag.String("out", "font_metadata.json", "where to write the font metadata")
	flag.Parse()

	logger := util.NewLogger("development", "scan_font")
	defer logger.Sync()

	fonts, err := certgen.ScanFontDir(*fontDir, logger)
	if err != nil {
		logger.Fatalf("Failed to scan font directory: %v", err)
	}

	data, err := json.MarshalIndent(fonts, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to marshal JSON: %v", err)
	}

	// The file can be read by the owner (you), read by users in the file's group, and read by anyone else on the system
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		logger.Fatalf("Failed to write JSON file: %v", err)
	}

	logger.Infof("Saved metadata for %d fonts to %q", len(fonts), *outputFile)
}
