package certgen

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads every record of r. Rows may have a varying number of fields.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return records, nil
}

// Reads CSV records and returns the data as a slice of maps.
// The first row is assumed to be the header, and its values are used as keys.
// Duplicate headers are renamed to header_2, header_3 and so on.
func ParseCSVToMap(records [][]string) ([]map[string]string, error) {
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	headers := uniqueHeaders(records[0])
	result := make([]map[string]string, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		if isBlankRecord(records[i]) {
			continue
		}

		row := make(map[string]string, len(headers))
		for j := 0; j < len(headers); j++ {
			if j < len(records[i]) {
				row[headers[j]] = strings.TrimSpace(records[i][j])
			} else {
				row[headers[j]] = ""
			}
		}
		result = append(result, row)
	}

	return result, nil
}

func uniqueHeaders(record []string) []string {
	headers := make([]string, len(record))
	headerCount := make(map[string]int)

	for i, header := range record {
		header = strings.TrimSpace(header)
		if count, exists := headerCount[header]; exists {
			headerCount[header]++
			headers[i] = fmt.Sprintf("%s_%d", header, count+2)
		} else {
			headerCount[header] = 0
			headers[i] = header
		}
	}
	return headers
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type Column int

const (
	ColumnUnknown Column = iota
	ColumnEmail
	ColumnName
	ColumnEventName
	ColumnDate
	ColumnCategory
	ColumnTags
	ColumnURL
)

// DetectColumn maps a header to a known column. Exact names win over
// substring matches, and "event" is checked before "date" so that a header
// like "Event Date" is read as the event name.
func DetectColumn(header string) Column {
	h := strings.ToLower(strings.TrimSpace(header))

	switch {
	case h == "email":
		return ColumnEmail
	case h == "name":
		return ColumnName
	case strings.Contains(h, "event"):
		return ColumnEventName
	case strings.Contains(h, "date"):
		return ColumnDate
	case h == "category":
		return ColumnCategory
	case h == "tags":
		return ColumnTags
	case strings.Contains(h, "url"), strings.Contains(h, "attachment"):
		return ColumnURL
	default:
		return ColumnUnknown
	}
}

// CertificateRow is one line of a bulk upload of already produced certificates.
type CertificateRow struct {
	Email          string   `json:"email" validate:"required,email"`
	Name           string   `json:"name" validate:"required,strNotEmpty"`
	EventName      string   `json:"eventName" validate:"required,strNotEmpty"`
	DateOfEvent    string   `json:"dateOfEvent"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	CertificateURL string   `json:"certificateUrl" validate:"required,strNotEmpty"`
}

// ParseTags splits a tags cell. Tags may be separated by ';', '|' or ','.
func ParseTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == '|' || r == ','
	})

	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// ParseParticipants maps CSV records to participants using DetectColumn. Rows
// are returned as they are, required fields are checked by the generator so
// that an incomplete row is reported instead of silently dropped.
func ParseParticipants(records [][]string) ([]Participant, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV is empty")
	}

	columns := detectColumns(records[0])
	if _, ok := columns[ColumnName]; !ok {
		return nil, fmt.Errorf("CSV must contain name and category columns")
	}
	if _, ok := columns[ColumnCategory]; !ok {
		return nil, fmt.Errorf("CSV must contain name and category columns")
	}

	rows, err := ParseCSVToMap(records)
	if err != nil {
		return nil, err
	}

	participants := make([]Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, Participant{
			Email:    columns.value(row, ColumnEmail),
			Name:     columns.value(row, ColumnName),
			Category: columns.value(row, ColumnCategory),
			Tags:     ParseTags(columns.value(row, ColumnTags)),
		})
	}

	return participants, nil
}

// ParseCertificateRows maps CSV records to bulk upload rows. Rows missing
// email, name, event name or URL are skipped and counted.
func ParseCertificateRows(records [][]string) ([]CertificateRow, int, error) {
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("CSV is empty")
	}

	columns := detectColumns(records[0])
	rows, err := ParseCSVToMap(records)
	if err != nil {
		return nil, 0, err
	}

	result := make([]CertificateRow, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		row := CertificateRow{
			Email:          NormalizeEmail(columns.value(r, ColumnEmail)),
			Name:           columns.value(r, ColumnName),
			EventName:      columns.value(r, ColumnEventName),
			DateOfEvent:    columns.value(r, ColumnDate),
			Category:       columns.value(r, ColumnCategory),
			Tags:           ParseTags(columns.value(r, ColumnTags)),
			CertificateURL: columns.value(r, ColumnURL),
		}

		if row.Email == "" || row.Name == "" || row.EventName == "" || row.CertificateURL == "" {
			skipped++
			continue
		}
		result = append(result, row)
	}

	return result, skipped, nil
}

// columnKeys maps each detected column to the ParseCSVToMap key holding it.
type columnKeys map[Column]string

// detectColumns keeps the first header of each kind, later duplicates are ignored.
func detectColumns(record []string) columnKeys {
	headers := uniqueHeaders(record)
	keys := make(columnKeys)
	for i, h := range record {
		c := DetectColumn(h)
		if c == ColumnUnknown {
			continue
		}
		if _, seen := keys[c]; seen {
			continue
		}
		keys[c] = headers[i]
	}
	return keys
}

func (k columnKeys) value(row map[string]string, c Column) string {
	key, ok := k[c]
	if !ok {
		return ""
	}
	return row[key]
}
