package table

const (
	rollingWidth   = 12
	rollingWindows = 4
)

// Aggregate adds quarterly and rolling twelve-month columns to t.
//
// Quarters group month columns by calendar quarter. Rolling windows are
// anchored at the latest month column: window k covers the twelve columns
// ending 12k columns before it. Only complete windows are kept, oldest
// first. Sums skip NoData cells and are NoData when every cell is.
func Aggregate(t *Table) error {
	if t.Empty() {
		return ErrNoMonthlyData
	}

	t.Quarters = quarterColumns(t.Months)
	t.Rolling = rollingColumns(t.Months)

	for i := range t.Rows {
		row := &t.Rows[i]

		row.Quarterly = make([]Volume, len(t.Quarters))
		qi := 0
		for j, p := range t.Months {
			for t.Quarters[qi] != (QuarterColumn{Year: p.Year, Quarter: p.Quarter()}) {
				qi++
			}
			row.Quarterly[qi] = row.Quarterly[qi].Add(row.Monthly[j])
		}

		row.Rolling = make([]Volume, len(t.Rolling))
		for k, w := range t.Rolling {
			row.Rolling[k] = Sum(row.Monthly[w.Start : w.Start+rollingWidth]...)
		}
	}
	return nil
}

func quarterColumns(months []Period) []QuarterColumn {
	var quarters []QuarterColumn
	for _, p := range months {
		q := QuarterColumn{Year: p.Year, Quarter: p.Quarter()}
		if len(quarters) == 0 || quarters[len(quarters)-1] != q {
			quarters = append(quarters, q)
		}
	}
	return quarters
}

func rollingColumns(months []Period) []RollingColumn {
	latest := len(months) - 1
	var windows []RollingColumn
	for k := rollingWindows - 1; k >= 0; k-- {
		end := latest - rollingWidth*k
		start := end - rollingWidth + 1
		if start < 0 {
			continue
		}
		windows = append(windows, RollingColumn{End: months[end], Start: start})
	}
	return windows
}
