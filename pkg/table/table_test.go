package table

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"searchabull-keyword-engine/pkg/api"
)

var uk = Descriptor{Category: "Footwear", Language: "English", Region: "Europe", Country: "United Kingdom"}

func monthly(year int, volumes map[time.Month]int64) []api.MonthlyVolume {
	var out []api.MonthlyVolume
	for m := time.January; m <= time.December; m++ {
		if v, ok := volumes[m]; ok {
			out = append(out, api.MonthlyVolume{Year: year, Month: m, Volume: v})
		}
	}
	return out
}

func TestVolume(t *testing.T) {
	tests := []struct {
		name string
		in   []Volume
		want Volume
	}{
		{"empty", nil, NoData()},
		{"only no data", []Volume{NoData(), NoData()}, NoData()},
		{"no data is identity", []Volume{NoData(), Count(5)}, Count(5)},
		{"zero is data", []Volume{NoData(), Count(0)}, Count(0)},
		{"sum", []Volume{Count(1), Count(2), NoData(), Count(3)}, Count(6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sum(tt.in...); got != tt.want {
				t.Errorf("Sum = %+v, want %+v", got, tt.want)
			}
		})
	}
	if Count(0).IsNoData() || !NoData().IsNoData() {
		t.Error("zero must stay distinct from NoData")
	}
}

func TestPeriod(t *testing.T) {
	p, err := ParsePeriod("03-2025")
	if err != nil {
		t.Fatal(err)
	}
	if p != (Period{Year: 2025, Month: time.March}) || p.Label() != "03-2025" || p.Quarter() != 1 {
		t.Errorf("period = %+v label %s quarter %d", p, p.Label(), p.Quarter())
	}
	if (Period{2024, time.December}).Quarter() != 4 || (Period{2024, time.July}).Quarter() != 3 {
		t.Error("unexpected quarter")
	}
	for _, bad := range []string{"3-2025", "13-2025", "00-2025", "03/2025", "Q1 25", "03-25"} {
		if _, err := ParsePeriod(bad); err == nil {
			t.Errorf("ParsePeriod(%q) should fail", bad)
		}
	}
}

func TestNormalize(t *testing.T) {
	entries := []api.KeywordMetrics{
		{Keyword: "shoes", Monthly: []api.MonthlyVolume{
			{Year: 2025, Month: time.January, Volume: 100},
			{Year: 2025, Month: time.February, Volume: 200},
		}},
		{Keyword: " boots "},
		{Keyword: "sandals", Monthly: []api.MonthlyVolume{{Year: 2025, Month: time.January, Volume: 0}}},
	}

	rows := Normalize(uk, entries)
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Total != Count(300) {
		t.Errorf("shoes total = %+v, want 300", rows[0].Total)
	}
	if rows[0].Monthly[Period{2025, time.January}] != Count(100) {
		t.Errorf("shoes January = %+v", rows[0].Monthly[Period{2025, time.January}])
	}
	if !rows[1].Total.IsNoData() || rows[1].Keyword != "boots" {
		t.Errorf("boots = %+v, want NoData total", rows[1])
	}
	if rows[2].Total != Count(0) {
		t.Errorf("sandals total = %+v, want reported zero", rows[2].Total)
	}
	if rows[0].Descriptor != uk {
		t.Errorf("descriptor = %+v", rows[0].Descriptor)
	}
}

func TestAssemble(t *testing.T) {
	rows := Normalize(uk, []api.KeywordMetrics{
		{Keyword: "boots"},
		{Keyword: "shoes", Monthly: []api.MonthlyVolume{
			{Year: 2025, Month: time.February, Volume: 200},
			{Year: 2025, Month: time.January, Volume: 100},
		}},
		{Keyword: "clogs", Monthly: []api.MonthlyVolume{{Year: 2024, Month: time.December, Volume: 400}}},
		{Keyword: "mules", Monthly: []api.MonthlyVolume{{Year: 2024, Month: time.December, Volume: 400}}},
		{Keyword: "sandals", Monthly: []api.MonthlyVolume{{Year: 2025, Month: time.January, Volume: 0}}},
	})

	tbl := Assemble(rows)

	wantHeader := []string{"Category", "Language", "Region", "Country", "Keyword", "Total Volume", "12-2024", "01-2025", "02-2025"}
	if got := tbl.Header(); !reflect.DeepEqual(got, wantHeader) {
		t.Errorf("Header = %v, want %v", got, wantHeader)
	}

	var order []string
	for _, r := range tbl.Rows {
		order = append(order, r.Keyword)
	}
	wantOrder := []string{"clogs", "mules", "shoes", "sandals", "boots"}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("row order = %v, want %v", order, wantOrder)
	}

	shoes := tbl.Rows[2]
	wantCells := []Volume{NoData(), Count(100), Count(200)}
	if !reflect.DeepEqual(shoes.Monthly, wantCells) {
		t.Errorf("shoes cells = %+v, want %+v", shoes.Monthly, wantCells)
	}
}

func TestAggregate_FullYear(t *testing.T) {
	volumes := map[time.Month]int64{}
	for m := time.January; m <= time.December; m++ {
		volumes[m] = int64(m) * 10
	}
	tbl := Assemble(Normalize(uk, []api.KeywordMetrics{{Keyword: "shoes", Monthly: monthly(2024, volumes)}}))

	if err := Aggregate(tbl); err != nil {
		t.Fatal(err)
	}

	var quarterLabels []string
	for _, q := range tbl.Quarters {
		quarterLabels = append(quarterLabels, q.Label())
	}
	if want := []string{"Q1 24", "Q2 24", "Q3 24", "Q4 24"}; !reflect.DeepEqual(quarterLabels, want) {
		t.Errorf("quarters = %v, want %v", quarterLabels, want)
	}
	if len(tbl.Rolling) != 1 || tbl.Rolling[0].Label() != "12M to Dec 24" {
		t.Fatalf("rolling = %+v", tbl.Rolling)
	}

	row := tbl.Rows[0]
	wantQuarters := []Volume{Count(60), Count(150), Count(240), Count(330)}
	if !reflect.DeepEqual(row.Quarterly, wantQuarters) {
		t.Errorf("quarterly = %+v, want %+v", row.Quarterly, wantQuarters)
	}
	if row.Rolling[0] != Count(780) || row.Rolling[0] != row.Total {
		t.Errorf("rolling = %+v, total = %+v", row.Rolling[0], row.Total)
	}

	header := tbl.Header()
	tail := header[len(header)-5:]
	if want := []string{"Q1 24", "Q2 24", "Q3 24", "Q4 24", "12M to Dec 24"}; !reflect.DeepEqual(tail, want) {
		t.Errorf("header tail = %v, want %v", tail, want)
	}
}

func TestAggregate_RollingWindows(t *testing.T) {
	tests := []struct {
		name       string
		months     int
		wantLabels []string
	}{
		{"eleven months", 11, nil},
		{"twelve months", 12, []string{"12M to May 25"}},
		{"twenty-three months", 23, []string{"12M to May 25"}},
		{"twenty-four months", 24, []string{"12M to May 24", "12M to May 25"}},
		{"four years", 48, []string{"12M to May 22", "12M to May 23", "12M to May 24", "12M to May 25"}},
		{"five years", 60, []string{"12M to May 22", "12M to May 23", "12M to May 24", "12M to May 25"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
			var mv []api.MonthlyVolume
			for i := tt.months - 1; i >= 0; i-- {
				d := end.AddDate(0, -i, 0)
				mv = append(mv, api.MonthlyVolume{Year: d.Year(), Month: d.Month(), Volume: 1})
			}
			tbl := Assemble(Normalize(uk, []api.KeywordMetrics{{Keyword: "shoes", Monthly: mv}}))
			if err := Aggregate(tbl); err != nil {
				t.Fatal(err)
			}

			var labels []string
			for _, r := range tbl.Rolling {
				labels = append(labels, r.Label())
			}
			if !reflect.DeepEqual(labels, tt.wantLabels) {
				t.Errorf("rolling = %v, want %v", labels, tt.wantLabels)
			}
			for k, v := range tbl.Rows[0].Rolling {
				if v != Count(12) {
					t.Errorf("window %d = %+v, want 12", k, v)
				}
			}
		})
	}
}

func TestAggregate_NoDataCells(t *testing.T) {
	tbl := Assemble(Normalize(uk, []api.KeywordMetrics{
		{Keyword: "shoes", Monthly: monthly(2024, map[time.Month]int64{time.January: 5, time.April: 7})},
		{Keyword: "boots", Monthly: monthly(2024, map[time.Month]int64{time.April: 3})},
	}))
	if err := Aggregate(tbl); err != nil {
		t.Fatal(err)
	}

	boots := tbl.Rows[1]
	if boots.Keyword != "boots" {
		t.Fatalf("unexpected order: %+v", tbl.Rows)
	}
	if !boots.Quarterly[0].IsNoData() {
		t.Errorf("boots Q1 = %+v, want NoData", boots.Quarterly[0])
	}
	if boots.Quarterly[1] != Count(3) {
		t.Errorf("boots Q2 = %+v, want 3", boots.Quarterly[1])
	}
}

func TestAggregate_NoMonthlyData(t *testing.T) {
	tbl := Assemble(Normalize(uk, []api.KeywordMetrics{{Keyword: "shoes"}}))
	if err := Aggregate(tbl); !errors.Is(err, ErrNoMonthlyData) {
		t.Errorf("Aggregate = %v, want ErrNoMonthlyData", err)
	}
	if !tbl.Empty() || tbl.Len() != 1 {
		t.Errorf("Empty = %v, Len = %d", tbl.Empty(), tbl.Len())
	}
}

func TestGridRoundTrip(t *testing.T) {
	volumes := map[time.Month]int64{}
	for m := time.January; m <= time.December; m++ {
		volumes[m] = 100
	}
	tbl := Assemble(Normalize(uk, []api.KeywordMetrics{
		{Keyword: "shoes", Monthly: monthly(2024, volumes)},
		{Keyword: "boots", Monthly: monthly(2024, map[time.Month]int64{time.March: 0})},
		{Keyword: "clogs"},
	}))
	if err := Aggregate(tbl); err != nil {
		t.Fatal(err)
	}

	g := tbl.Grid()
	if len(g.Rows) != 3 || len(g.Rows[0]) != len(g.Header) {
		t.Fatalf("grid shape = %d rows x %d cells, header %d", len(g.Rows), len(g.Rows[0]), len(g.Header))
	}
	if g.Rows[2][5].Kind != CellEmpty {
		t.Errorf("NoData total should be an empty cell, got %+v", g.Rows[2][5])
	}

	back, err := FromGrid(g)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back.Header(), tbl.Header()) {
		t.Errorf("header = %v, want %v", back.Header(), tbl.Header())
	}
	if !reflect.DeepEqual(back.Rows, tbl.Rows) {
		t.Errorf("rows differ:\n got %+v\nwant %+v", back.Rows, tbl.Rows)
	}
	if !reflect.DeepEqual(back.Rolling, tbl.Rolling) {
		t.Errorf("rolling = %+v, want %+v", back.Rolling, tbl.Rolling)
	}
}

func TestFromGrid_Invalid(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
	}{
		{"short header", Grid{Header: []string{"Category"}}},
		{"wrong column", Grid{Header: []string{"Category", "Language", "Region", "Country", "Term", "Total Volume"}}},
		{"bad month", Grid{Header: []string{"Category", "Language", "Region", "Country", "Keyword", "Total Volume", "Jan-2025"}}},
		{"bad volume", Grid{
			Header: []string{"Category", "Language", "Region", "Country", "Keyword", "Total Volume"},
			Rows:   [][]Cell{{Text("a"), Text("b"), Text("c"), Text("d"), Text("e"), Text("lots")}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromGrid(tt.grid); err == nil {
				t.Error("expected error")
			}
		})
	}
}
