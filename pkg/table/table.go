package table

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"searchabull-keyword-engine/pkg/api"
)

// ErrNoMonthlyData means no row carried any monthly volume, so there is
// nothing to aggregate.
var ErrNoMonthlyData = errors.New("no monthly data in results")

// Descriptive column names in output order.
const (
	ColumnCategory    = "Category"
	ColumnLanguage    = "Language"
	ColumnRegion      = "Region"
	ColumnCountry     = "Country"
	ColumnKeyword     = "Keyword"
	ColumnTotalVolume = "Total Volume"
)

// DescriptiveColumns precede the volume columns in every table.
var DescriptiveColumns = []string{ColumnCategory, ColumnLanguage, ColumnRegion, ColumnCountry, ColumnKeyword}

// Descriptor labels every row produced for one target.
type Descriptor struct {
	Category string
	Language string
	Region   string
	Country  string
}

// VolumeRow is one keyword's normalized result before assembly.
type VolumeRow struct {
	Descriptor
	Keyword string
	Total   Volume
	Monthly map[Period]Volume
}

// Normalize converts provider entries into rows. A repeated month keeps
// the last value reported. Total is NoData when no month was reported.
func Normalize(d Descriptor, entries []api.KeywordMetrics) []VolumeRow {
	rows := make([]VolumeRow, 0, len(entries))
	for _, e := range entries {
		row := VolumeRow{
			Descriptor: d,
			Keyword:    strings.TrimSpace(e.Keyword),
			Monthly:    make(map[Period]Volume, len(e.Monthly)),
		}
		for _, m := range e.Monthly {
			row.Monthly[Period{Year: m.Year, Month: m.Month}] = Count(m.Volume)
		}
		row.Total = NoData()
		for _, v := range row.Monthly {
			row.Total = row.Total.Add(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// Row is an assembled table row. Volume slices align with the table's
// column slices.
type Row struct {
	Descriptor
	Keyword   string
	Total     Volume
	Monthly   []Volume
	Quarterly []Volume
	Rolling   []Volume
}

// QuarterColumn is a calendar quarter aggregate, labelled "Q<n> <yy>".
type QuarterColumn struct {
	Year    int
	Quarter int
}

func (q QuarterColumn) Label() string {
	return fmt.Sprintf("Q%d %02d", q.Quarter, q.Year%100)
}

// RollingColumn is a twelve-month window ending at End, labelled
// "12M to <Mon> <yy>".
type RollingColumn struct {
	End Period
	// Start is the index of the window's first month column.
	Start int
}

func (r RollingColumn) Label() string {
	return "12M to " + r.End.shortLabel()
}

// Table is the assembled result: descriptive columns, Total Volume, then
// month, quarter and rolling columns.
type Table struct {
	Months   []Period
	Quarters []QuarterColumn
	Rolling  []RollingColumn
	Rows     []Row
}

// Assemble merges rows into a table with month columns ascending. Cells for
// months a row did not report are NoData. Rows are ordered by Total Volume
// descending with NoData last; ties keep input order.
func Assemble(rows []VolumeRow) *Table {
	seen := make(map[Period]struct{})
	for _, r := range rows {
		for p := range r.Monthly {
			seen[p] = struct{}{}
		}
	}
	months := make([]Period, 0, len(seen))
	for p := range seen {
		months = append(months, p)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	out := make([]Row, len(rows))
	for i, r := range rows {
		cells := make([]Volume, len(months))
		for j, p := range months {
			if v, ok := r.Monthly[p]; ok {
				cells[j] = v
			}
		}
		out[i] = Row{Descriptor: r.Descriptor, Keyword: r.Keyword, Total: r.Total, Monthly: cells}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.greater(out[j].Total) })

	return &Table{Months: months, Rows: out}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no month columns.
func (t *Table) Empty() bool {
	return t == nil || len(t.Months) == 0
}

// Header returns the column names in output order.
func (t *Table) Header() []string {
	header := append([]string{}, DescriptiveColumns...)
	header = append(header, ColumnTotalVolume)
	if t == nil {
		return header
	}
	for _, p := range t.Months {
		header = append(header, p.Label())
	}
	for _, q := range t.Quarters {
		header = append(header, q.Label())
	}
	for _, r := range t.Rolling {
		header = append(header, r.Label())
	}
	return header
}
