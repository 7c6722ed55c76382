package certgen

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVToMap(t *testing.T) {
	tests := []struct {
		name     string
		records  [][]string
		expected []map[string]string
	}{
		{
			name: "Basic CSV",
			records: [][]string{
				{"header1", "header2"},
				{"value1", "value2"},
				{"value3", "value4"},
			},
			expected: []map[string]string{
				{"header1": "value1", "header2": "value2"},
				{"header1": "value3", "header2": "value4"},
			},
		},
		{
			name:     "Empty CSV",
			records:  [][]string{},
			expected: []map[string]string{},
		},
		{
			name: "Missing Values",
			records: [][]string{
				{"header1", "header2"},
				{"value1"},
				{"value3", "value4"},
			},
			expected: []map[string]string{
				{"header1": "value1", "header2": ""},
				{"header1": "value3", "header2": "value4"},
			},
		},
		{
			name: "Extra Values",
			records: [][]string{
				{"header1", "header2"},
				{"value1", "value2", "extra"},
			},
			expected: []map[string]string{
				{"header1": "value1", "header2": "value2"},
			},
		},
		{
			name: "Duplicate Headers",
			records: [][]string{
				{"name", "name"},
				{"a", "b"},
			},
			expected: []map[string]string{
				{"name": "a", "name_2": "b"},
			},
		},
		{
			name: "Blank Rows",
			records: [][]string{
				{"header1"},
				{""},
				{"value1"},
			},
			expected: []map[string]string{
				{"header1": "value1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseCSVToMap(tt.records)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestDetectColumn(t *testing.T) {
	tests := []struct {
		header string
		want   Column
	}{
		{"Email", ColumnEmail},
		{" name ", ColumnName},
		{"Full Name", ColumnUnknown},
		{"Event Name", ColumnEventName},
		{"Event Date", ColumnEventName},
		{"date_of_event", ColumnEventName},
		{"Date", ColumnDate},
		{"Category", ColumnCategory},
		{"TAGS", ColumnTags},
		{"Certificate URL", ColumnURL},
		{"attachment", ColumnURL},
		{"phone", ColumnUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectColumn(tt.header))
		})
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"vip", "day-1", "remote"}, ParseTags(" vip; day-1 |remote"))
	assert.Nil(t, ParseTags(" ; "))
	assert.Nil(t, ParseTags(""))
}

func TestParseParticipants(t *testing.T) {
	input := "Email,Name,Category,Tags\n" +
		"alice@x.com,Alice,Delegate,vip\n" +
		"\n" +
		"bob@x.com,Bob,Speaker\n" +
		",Carol,Delegate,\n"

	records, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	participants, err := ParseParticipants(records)
	require.NoError(t, err)

	assert.Equal(t, []Participant{
		{Email: "alice@x.com", Name: "Alice", Category: "Delegate", Tags: []string{"vip"}},
		{Email: "bob@x.com", Name: "Bob", Category: "Speaker"},
		{Email: "", Name: "Carol", Category: "Delegate"},
	}, participants)
}

func TestParseParticipantsRequiresColumns(t *testing.T) {
	_, err := ParseParticipants([][]string{{"email", "name"}})
	assert.Error(t, err)

	_, err = ParseParticipants(nil)
	assert.Error(t, err)
}

func TestParseCertificateRows(t *testing.T) {
	records := [][]string{
		{"email", "name", "Event Name", "Date", "category", "tags", "Certificate URL"},
		{" Alice@X.com ", "Alice", "Go Summit", "2024-05-01", "Delegate", "vip", "https://files/a.pdf"},
		{"bob@x.com", "Bob", "Go Summit", "2024-05-01", "Speaker", "", ""},
		{"carol@x.com", "Carol", "Go Summit", "", "", "", "https://files/c.pdf"},
	}

	rows, skipped, err := ParseCertificateRows(records)
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 2)
	assert.Equal(t, CertificateRow{
		Email:          "alice@x.com",
		Name:           "Alice",
		EventName:      "Go Summit",
		DateOfEvent:    "2024-05-01",
		Category:       "Delegate",
		Tags:           []string{"vip"},
		CertificateURL: "https://files/a.pdf",
	}, rows[0])
	assert.Equal(t, "carol@x.com", rows[1].Email)
}

func TestParseParticipantsDuplicateHeaders(t *testing.T) {
	records := [][]string{
		{"Name", "name", "Category", "Email", "Tags"},
		{"Alice", "Ally", "Delegate", "alice@x.com", "vip"},
		{"Bob", "", "Speaker"},
	}

	participants, err := ParseParticipants(records)
	require.NoError(t, err)

	assert.Equal(t, []Participant{
		{Email: "alice@x.com", Name: "Alice", Category: "Delegate", Tags: []string{"vip"}},
		{Name: "Bob", Category: "Speaker"},
	}, participants)
}

func TestParseCertificateRowsDuplicateHeaders(t *testing.T) {
	records := [][]string{
		{"email", "name", "Event Name", "event", "url", "URL"},
		{"a@x.com", "Alice", "Go Summit", "Ignored", "https://files/a.pdf", "https://files/other.pdf"},
	}

	rows, skipped, err := ParseCertificateRows(records)
	require.NoError(t, err)

	assert.Zero(t, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "Go Summit", rows[0].EventName)
	assert.Equal(t, "https://files/a.pdf", rows[0].CertificateURL)
}
