package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CellKind tags a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one spreadsheet value.
type Cell struct {
	Kind   CellKind
	Text   string
	Number int64
}

// Text makes a string cell.
func Text(s string) Cell { return Cell{Kind: CellText, Text: s} }

// Number makes an integer cell.
func Number(n int64) Cell { return Cell{Kind: CellNumber, Number: n} }

// VolumeCell makes a number cell, or an empty one for NoData.
func VolumeCell(v Volume) Cell {
	if n, ok := v.Value(); ok {
		return Number(n)
	}
	return Cell{}
}

// Volume reads the cell back as a volume. Empty cells are NoData.
func (c Cell) Volume() (Volume, error) {
	switch c.Kind {
	case CellEmpty:
		return NoData(), nil
	case CellNumber:
		return Count(c.Number), nil
	}
	s := strings.TrimSpace(c.Text)
	if s == "" {
		return NoData(), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NoData(), fmt.Errorf("invalid volume %q", c.Text)
	}
	return Count(n), nil
}

// String renders the cell as text.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatInt(c.Number, 10)
	}
	return ""
}

// Grid is a header plus rows of cells, the shape written to a sheet.
type Grid struct {
	Header []string
	Rows   [][]Cell
}

// Grid lays the table out in column order.
func (t *Table) Grid() Grid {
	g := Grid{Header: t.Header()}
	if t == nil {
		return g
	}
	g.Rows = make([][]Cell, 0, len(t.Rows))
	for _, r := range t.Rows {
		cells := make([]Cell, 0, len(g.Header))
		cells = append(cells,
			Text(r.Category), Text(r.Language), Text(r.Region), Text(r.Country), Text(r.Keyword),
			VolumeCell(r.Total),
		)
		for _, v := range r.Monthly {
			cells = append(cells, VolumeCell(v))
		}
		for _, v := range r.Quarterly {
			cells = append(cells, VolumeCell(v))
		}
		for _, v := range r.Rolling {
			cells = append(cells, VolumeCell(v))
		}
		g.Rows = append(g.Rows, cells)
	}
	return g
}

// FromGrid rebuilds a table from a grid written by Grid.
func FromGrid(g Grid) (*Table, error) {
	fixed := len(DescriptiveColumns) + 1
	if len(g.Header) < fixed {
		return nil, fmt.Errorf("header has %d columns, want at least %d", len(g.Header), fixed)
	}
	for i, name := range append(append([]string{}, DescriptiveColumns...), ColumnTotalVolume) {
		if g.Header[i] != name {
			return nil, fmt.Errorf("column %d is %q, want %q", i+1, g.Header[i], name)
		}
	}

	t := &Table{}
	for _, label := range g.Header[fixed:] {
		switch {
		case strings.HasPrefix(label, "12M to "):
			end, err := parseShortLabel(strings.TrimPrefix(label, "12M to "))
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", label, err)
			}
			t.Rolling = append(t.Rolling, RollingColumn{End: end})
		case strings.HasPrefix(label, "Q"):
			q, err := parseQuarterLabel(label)
			if err != nil {
				return nil, err
			}
			t.Quarters = append(t.Quarters, q)
		default:
			p, err := ParsePeriod(label)
			if err != nil {
				return nil, err
			}
			t.Months = append(t.Months, p)
		}
	}
	for i := range t.Rolling {
		for j, p := range t.Months {
			if p == t.Rolling[i].End {
				t.Rolling[i].Start = j - rollingWidth + 1
			}
		}
	}

	width := len(g.Header)
	for n, cells := range g.Rows {
		if len(cells) < width {
			cells = append(cells, make([]Cell, width-len(cells))...)
		}
		vols := make([]Volume, width-len(DescriptiveColumns))
		for i := range vols {
			v, err := cells[len(DescriptiveColumns)+i].Volume()
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
			vols[i] = v
		}
		months, quarters := len(t.Months), len(t.Quarters)
		t.Rows = append(t.Rows, Row{
			Descriptor: Descriptor{
				Category: cells[0].String(),
				Language: cells[1].String(),
				Region:   cells[2].String(),
				Country:  cells[3].String(),
			},
			Keyword:   cells[4].String(),
			Total:     vols[0],
			Monthly:   vols[1 : 1+months],
			Quarterly: vols[1+months : 1+months+quarters],
			Rolling:   vols[1+months+quarters:],
		})
	}
	return t, nil
}

func parseQuarterLabel(label string) (QuarterColumn, error) {
	var q, yy int
	if _, err := fmt.Sscanf(label, "Q%d %d", &q, &yy); err != nil || q < 1 || q > 4 {
		return QuarterColumn{}, fmt.Errorf("invalid quarter label %q", label)
	}
	return QuarterColumn{Year: 2000 + yy, Quarter: q}, nil
}

func parseShortLabel(s string) (Period, error) {
	t, err := time.Parse("Jan 06", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}
