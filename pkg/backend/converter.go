package backend

import (
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/pipeline"
)

// DataConverter converts run reports to backend submission format
type DataConverter struct {
	log *logger.Logger
}

// NewDataConverter creates a new data converter
func NewDataConverter() *DataConverter {
	return &DataConverter{
		log: logger.GetLogger().WithField("component", "data_converter"),
	}
}

// ConvertReport flattens the report table into one record per row.
func (dc *DataConverter) ConvertReport(report *pipeline.Report) []KeywordVolumeData {
	if report == nil || report.Table == nil {
		return nil
	}
	tbl := report.Table

	out := make([]KeywordVolumeData, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		rec := KeywordVolumeData{
			RunID:    report.RunID,
			Provider: report.Provider,
			Mode:     string(report.Mode),
			Category: row.Category,
			Language: row.Language,
			Region:   row.Region,
			Country:  row.Country,
			Keyword:  row.Keyword,
			Monthly:  make([]MonthlySearchData, 0, len(row.Monthly)),
		}
		if total, ok := row.Total.Value(); ok {
			rec.TotalVolume = &total
		}

		var missing []string
		for i, v := range row.Monthly {
			p := tbl.Months[i]
			n, ok := v.Value()
			if !ok {
				missing = append(missing, p.Label())
				continue
			}
			rec.Monthly = append(rec.Monthly, MonthlySearchData{Year: p.Year, Month: int(p.Month), Searches: n})
		}
		rec.DataQuality = dc.dataQuality(len(row.Monthly), missing)
		out = append(out, rec)
	}

	dc.log.WithField("total_rows", len(out)).Debug("Converted report to backend format")
	return out
}

func (dc *DataConverter) dataQuality(total int, missing []string) DataQualityInfo {
	available := total - len(missing)
	info := DataQualityInfo{
		Status:             "complete",
		Complete:           len(missing) == 0,
		TotalMonths:        total,
		AvailableMonths:    available,
		MissingMonthsCount: len(missing),
		MissingMonths:      missing,
		Warnings:           []string{},
	}
	if info.MissingMonths == nil {
		info.MissingMonths = []string{}
	}

	switch {
	case total > 0 && available == 0:
		info.Status = "no_data"
		info.Warnings = append(info.Warnings, "No month has search data")
	case len(missing) > 0:
		info.Status = "incomplete"
		info.Warnings = append(info.Warnings, "Some months have no search data")
	}
	return info
}
