// Package input reads keyword lists from uploaded spreadsheets and text files.
package input

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported keyword file format")
	ErrNoKeywords        = errors.New("keyword list is empty")
)

const utf8BOM = "\uFEFF"

// ReadFile reads keywords from path; the format follows the extension.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyword file: %w", err)
	}
	defer f.Close()
	return Read(filepath.Base(path), f)
}

// Read parses keywords from r. name selects the format: .xlsx takes the
// first column of the first sheet, .csv the first column, both skipping a
// header row; .txt takes one keyword per line. Keywords are NFC-normalized,
// trimmed and de-duplicated in first-seen order.
func Read(name string, r io.Reader) ([]string, error) {
	var (
		raw []string
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		raw, err = readXLSX(r)
	case ".csv":
		raw, err = readCSV(r)
	case ".txt", "":
		raw, err = readLines(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, err
	}

	keywords := Clean(raw)
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	return keywords, nil
}

// Clean normalizes, trims and de-duplicates keywords, dropping blanks.
func Clean(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.TrimSpace(norm.NFC.String(strings.TrimPrefix(kw, utf8BOM)))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func readXLSX(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoKeywords
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var out []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		out = append(out, row[0])
	}
	return out, nil
}

func readCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out []string
	for i := 0; ; i++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if i == 0 || len(record) == 0 {
			continue
		}
		out = append(out, record[0])
	}
	return out, nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out = append(out, string(bytes.TrimRight(scanner.Bytes(), "\r")))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return out, nil
}
