package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns data as a string, reading it as UTF-8 when valid and as
// ISO-8859-1 otherwise. Every byte sequence decodes under the latter.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(out), nil
}

// TextLoader handles plain text files.
type TextLoader struct{}

func (l *TextLoader) Format() Format { return FormatText }

func (l *TextLoader) Load(data []byte) (string, error) {
	return DecodeText(data)
}

// HTMLLoader passes markup through untouched; the engine parses it.
type HTMLLoader struct{}

func (l *HTMLLoader) Format() Format { return FormatHTML }

func (l *HTMLLoader) Load(data []byte) (string, error) {
	return DecodeText(data)
}

// CSVLoader re-emits records one per line with comma separators so the
// table synthesizer sees one cell per field. Quoting is dropped.
type CSVLoader struct{}

func (l *CSVLoader) Format() Format { return FormatCSV }

func (l *CSVLoader) Load(data []byte) (string, error) {
	text, err := DecodeText(data)
	if err != nil {
		return "", err
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		lines = append(lines, strings.Join(rec, ", "))
	}
	return strings.Join(lines, "\n"), nil
}
