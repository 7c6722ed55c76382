package certgen

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExportEntry is one stored document to include in an export.
type ExportEntry struct {
	// Path inside the archive, e.g. "delegate/Alice_Smith.pdf"
	Name string
	Key  string
}

// ExportEntryFor names a certificate inside an archive after its category and participant.
func ExportEntryFor(record CertificateRecord) ExportEntry {
	category := SanitizeName(NormalizeCategory(record.Category))
	if category == "" {
		category = "uncategorized"
	}

	return ExportEntry{
		Name: fmt.Sprintf("%s/%s%s", category, SanitizeName(record.Name), path.Ext(record.ObjectKey)),
		Key:  record.ObjectKey,
	}
}

// WriteZip downloads every entry and writes them into a zip archive.
// Duplicate names get a numeric suffix.
func WriteZip(ctx context.Context, w io.Writer, store ObjectStore, entries []ExportEntry) error {
	archive := zip.NewWriter(w)

	used := make(map[string]int, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			archive.Close()
			return err
		}

		data, err := store.Download(ctx, entry.Key)
		if err != nil {
			archive.Close()
			return fmt.Errorf("%w: failed to download %s: %w", ErrStorage, entry.Key, err)
		}

		header := &zip.FileHeader{
			Name:     uniqueEntryName(used, entry.Name),
			Method:   zip.Deflate,
			Modified: time.Now(),
		}

		writer, err := archive.CreateHeader(header)
		if err != nil {
			archive.Close()
			return err
		}

		if _, err := writer.Write(data); err != nil {
			archive.Close()
			return err
		}
	}

	return archive.Close()
}

func uniqueEntryName(used map[string]int, name string) string {
	count, exists := used[name]
	used[name] = count + 1
	if !exists {
		return name
	}

	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), count+1, ext)
}

// MergePDFs downloads the given PDF documents and writes them as a single PDF,
// in the order of keys. Keys that are not PDFs are skipped. It returns the
// page count of the merged document.
func MergePDFs(ctx context.Context, w io.Writer, store ObjectStore, keys []string) (int, error) {
	readers := make([]io.ReadSeeker, 0, len(keys))
	pages := 0
	for _, key := range keys {
		if !strings.EqualFold(path.Ext(key), FormatPDF.Ext()) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return 0, err
		}

		data, err := store.Download(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("%w: failed to download %s: %w", ErrStorage, key, err)
		}

		n, err := PageCount(data)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not a readable PDF: %w", ErrDecode, key, err)
		}
		pages += n
		readers = append(readers, bytes.NewReader(data))
	}

	if len(readers) == 0 {
		return 0, fmt.Errorf("no PDF certificates to merge")
	}

	if err := api.MergeRaw(readers, w, false, nil); err != nil {
		return 0, fmt.Errorf("failed to merge PDFs: %w", err)
	}

	return pages, nil
}

// PageCount returns the number of pages of a PDF document.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), nil)
}
