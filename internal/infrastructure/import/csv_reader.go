package fileimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

func (p *Parser) readCSV(data []byte) ([][]string, []int, error) {
	text, err := decodeText(data, p.fallback)
	if err != nil {
		return nil, nil, err
	}

	delimiter := p.delimiter
	if delimiter == 0 {
		delimiter = sniffDelimiter(text)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = p.lazy
	reader.FieldsPerRecord = -1 // rows need not be rectangular

	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, formatError(err)
		}
		// the reader skips empty lines and quoted fields may span several,
		// so the record count alone does not give the source line
		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	return records, lines, nil
}

// sniffDelimiter picks the candidate occurring most often, outside quotes,
// in the first line. Ties and lines without any candidate fall back to comma.
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}

	counts := make(map[rune]int, len(delimiterCandidates))
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', counts[',']
	for _, c := range delimiterCandidates[1:] {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}
