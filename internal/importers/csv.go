package importers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrParse marks a CSV file that could not be read at all.
var ErrParse = errors.New("error parsing CSV")

// CSVRow is one record of a game library export.
type CSVRow struct {
	URL     string
	Game    string
	Rating  string
	Status  string
	Created string
	Review  string
}

const utf8BOM = "\ufeff"

// ParseCSV reads a header-keyed game export. Header names are matched
// case-insensitively, unknown columns are ignored and blank lines are
// skipped. Any malformed record fails the whole file.
func ParseCSV(r io.Reader) ([]CSVRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []CSVRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrParse, err)
	}

	headerIndex := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		key := strings.ToLower(strings.TrimSpace(h))
		if _, exists := headerIndex[key]; !exists {
			headerIndex[key] = i
		}
	}

	rows := []CSVRow{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if isBlankRecord(record) {
			continue
		}

		rows = append(rows, CSVRow{
			URL:     getCSVValue(record, headerIndex, "url"),
			Game:    getCSVValue(record, headerIndex, "game"),
			Rating:  getCSVValue(record, headerIndex, "rating"),
			Status:  getCSVValue(record, headerIndex, "status"),
			Created: getCSVValue(record, headerIndex, "created"),
			Review:  getCSVValue(record, headerIndex, "review"),
		})
	}

	return rows, nil
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

// isBlankRecord reports lines made only of separators and whitespace.
func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
