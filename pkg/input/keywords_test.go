package input

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestRead_TextFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{
			name:    "txt lines",
			file:    "keywords.txt",
			content: "\uFEFFshoes\r\nboots\n\n  sandals  \nshoes\n",
			want:    []string{"shoes", "boots", "sandals"},
		},
		{
			name:    "csv skips header",
			file:    "keywords.CSV",
			content: "Keyword,Note\nshoes,a\n\"running, trail\",b\nboots\n",
			want:    []string{"shoes", "running, trail", "boots"},
		},
		{
			name:    "nfc normalization merges duplicates",
			file:    "keywords.txt",
			content: "cafe\u0301\ncaf\u00e9\n",
			want:    []string{"caf\u00e9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(tt.file, strings.NewReader(tt.content))
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{{"Keywords"}, {"shoes"}, {nil}, {"boots"}, {12345}}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "list.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"shoes", "boots", "12345"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ReadFile = %q, want %q", got, want)
	}
}

func TestRead_Errors(t *testing.T) {
	if _, err := Read("list.pdf", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("pdf: %v", err)
	}
	if _, err := Read("list.txt", strings.NewReader("\n  \n")); !errors.Is(err, ErrNoKeywords) {
		t.Errorf("blank: %v", err)
	}
	if _, err := Read("list.csv", strings.NewReader("Keyword\n")); !errors.Is(err, ErrNoKeywords) {
		t.Errorf("header only: %v", err)
	}
	if _, err := Read("list.xlsx", bytes.NewReader([]byte("nope"))); err == nil {
		t.Error("expected error for invalid workbook")
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
