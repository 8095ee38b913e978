package ingest

import (
	"bufio"
	"io"
	"strings"
)

// ReadLogisticsCSV reads the carrier export. The carrier system emits either
// comma- or semicolon-delimited files depending on the operator's locale, so
// the separator is sniffed from the header line.
func ReadLogisticsCSV(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	sep := DetectSeparator(lines[0])
	headers := SplitDelimited(lines[0], sep)

	rows := make([]Row, 0, len(lines)-1)
	n := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n++
		rows = append(rows, NewRow(headers, SplitDelimited(line, sep), n))
	}
	return rows, nil
}

// DetectSeparator picks ';' over ',' when the header carries more of them.
func DetectSeparator(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return ';'
	}
	return ','
}

// SplitDelimited splits one delimited line respecting double quotes; quotes
// around a cell are stripped and cells are trimmed.
func SplitDelimited(line string, sep rune) []string {
	var values []string
	var current strings.Builder
	inQuotes := false
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == sep && !inQuotes:
			values = append(values, cleanCell(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	values = append(values, cleanCell(current.String()))
	return values
}

func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}
