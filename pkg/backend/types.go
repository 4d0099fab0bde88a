package backend

import "time"

// KeywordVolumeBatch is the body of one batch submission.
type KeywordVolumeBatch []KeywordVolumeData

// KeywordVolumeData is one table row as published to the backend.
type KeywordVolumeData struct {
	RunID       string              `json:"run_id"`
	Provider    string              `json:"provider"`
	Mode        string              `json:"mode"`
	Category    string              `json:"category"`
	Language    string              `json:"language"`
	Region      string              `json:"region"`
	Country     string              `json:"country"`
	Keyword     string              `json:"keyword"`
	TotalVolume *int64              `json:"total_volume"`
	Monthly     []MonthlySearchData `json:"monthly_searches"`
	DataQuality DataQualityInfo     `json:"data_quality"`
}

// MonthlySearchData is a reported month. Months without data are omitted.
type MonthlySearchData struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"`
	Searches int64 `json:"searches"`
}

// DataQualityInfo summarises gaps in a row's monthly series.
type DataQualityInfo struct {
	Status             string   `json:"status"`
	Complete           bool     `json:"complete"`
	TotalMonths        int      `json:"total_months"`
	AvailableMonths    int      `json:"available_months"`
	MissingMonthsCount int      `json:"missing_months_count"`
	MissingMonths      []string `json:"missing_months"`
	Warnings           []string `json:"warnings"`
}

// BackendResponse represents the API response from backend
type BackendResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// BackendConfig holds backend API configuration
type BackendConfig struct {
	BaseURL    string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	BatchSize  int           `mapstructure:"batch_size"`
	EnableGzip bool          `mapstructure:"enable_gzip"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// BackendClient submits volume rows.
type BackendClient interface {
	SubmitBatch(batch KeywordVolumeBatch) (*BackendResponse, error)
	SubmitBatches(data []KeywordVolumeData) error
}
