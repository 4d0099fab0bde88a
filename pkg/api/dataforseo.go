package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"searchabull-keyword-engine/pkg/batch"
)

const (
	DataForSEOSandboxURL = "https://sandbox.dataforseo.com"
	DataForSEOLiveURL    = "https://api.dataforseo.com"

	dataForSEOHistoricalPath = "/v3/keywords_data/google_ads/search_volume/live"
	dataForSEOIdeasPath      = "/v3/keywords_data/google_ads/keywords_for_keywords/live"
	dataForSEOUserDataPath   = "/v3/appendix/user_data"

	dataForSEOStatusOK = 20000
)

// DataForSEOConfig configures the DataForSEO adapter.
type DataForSEOConfig struct {
	Login        string        `mapstructure:"login"`
	Password     string        `mapstructure:"password"`
	Sandbox      bool          `mapstructure:"sandbox"`
	BaseURL      string        `mapstructure:"base_url"`
	SortBy       string        `mapstructure:"sort_by"`
	IncludeAdult bool          `mapstructure:"include_adult"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// DataForSEO adapts the keywords_data/google_ads endpoints.
type DataForSEO struct {
	config  DataForSEOConfig
	mode    Mode
	baseURL string
	auth    string
}

// NewDataForSEO validates credentials and builds the adapter.
func NewDataForSEO(config DataForSEOConfig, mode Mode) (*DataForSEO, error) {
	if config.Login == "" || config.Password == "" {
		return nil, errors.New("dataforseo: login and password are required")
	}
	if mode != ModeHistorical && mode != ModeIdeas {
		return nil, fmt.Errorf("dataforseo: unsupported mode %q", mode)
	}
	if config.SortBy == "" {
		config.SortBy = "search_volume"
	}
	if config.SortBy != "search_volume" && config.SortBy != "relevance" {
		return nil, fmt.Errorf("dataforseo: unsupported sort key %q", config.SortBy)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	base := config.BaseURL
	if base == "" {
		base = DataForSEOLiveURL
		if config.Sandbox {
			base = DataForSEOSandboxURL
		}
	}

	token := base64.StdEncoding.EncodeToString([]byte(config.Login + ":" + config.Password))
	return &DataForSEO{
		config:  config,
		mode:    mode,
		baseURL: strings.TrimRight(base, "/"),
		auth:    "Basic " + token,
	}, nil
}

func (d *DataForSEO) Name() string { return "dataforseo" }

// BatchSize is 1000 for historical volumes and 20 for keyword ideas.
func (d *DataForSEO) BatchSize() int {
	if d.mode == ModeIdeas {
		return 20
	}
	return 1000
}

type dataForSEOTask struct {
	DateFrom             string   `json:"date_from"`
	DateTo               string   `json:"date_to"`
	Keywords             []string `json:"keywords"`
	LocationCode         int      `json:"location_code"`
	LanguageCode         string   `json:"language_code"`
	SortBy               string   `json:"sort_by"`
	IncludeAdultKeywords bool     `json:"include_adult_keywords"`
}

func (d *DataForSEO) BuildRequest(ctx context.Context, b batch.Batch) (*Request, error) {
	path := dataForSEOHistoricalPath
	if d.mode == ModeIdeas {
		path = dataForSEOIdeasPath
	}

	payload := []dataForSEOTask{{
		DateFrom:             b.Dates.From.Format("2006-01-02"),
		DateTo:               b.Dates.To.Format("2006-01-02"),
		Keywords:             b.Keywords,
		LocationCode:         b.Target.LocationCode,
		LanguageCode:         b.Target.LanguageCode,
		SortBy:               d.config.SortBy,
		IncludeAdultKeywords: d.config.IncludeAdult,
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal dataforseo payload: %w", err)
	}

	return &Request{
		Method:      "POST",
		URL:         d.baseURL + path,
		ContentType: "application/json",
		Headers:     map[string]string{"Authorization": d.auth},
		Body:        body,
		Timeout:     d.config.Timeout,
	}, nil
}

type dataForSEOEnvelope struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int             `json:"status_code"`
		StatusMessage string          `json:"status_message"`
		Result        json.RawMessage `json:"result"`
	} `json:"tasks"`
}

type dataForSEOKeyword struct {
	Keyword         string `json:"keyword"`
	MonthlySearches []struct {
		Year         int     `json:"year"`
		Month        int     `json:"month"`
		SearchVolume flexInt `json:"search_volume"`
	} `json:"monthly_searches"`
}

// dataForSEOFatal reports whether a DataForSEO status code means
// authentication or payment failure (401xx, 402xx).
func dataForSEOFatal(code int) bool {
	return (code >= 40100 && code < 40200) || (code >= 40200 && code < 40300)
}

func (d *DataForSEO) envelope(body []byte) (*dataForSEOEnvelope, error) {
	var env dataForSEOEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode dataforseo response: %w", err)
	}
	if dataForSEOFatal(env.StatusCode) {
		return nil, &FatalError{Provider: d.Name(), Reason: fmt.Sprintf("status %d: %s", env.StatusCode, env.StatusMessage)}
	}
	if len(env.Tasks) == 0 {
		return nil, errors.New("response has no tasks")
	}
	task := env.Tasks[0]
	if dataForSEOFatal(task.StatusCode) {
		return nil, &FatalError{Provider: d.Name(), Reason: fmt.Sprintf("task status %d: %s", task.StatusCode, task.StatusMessage)}
	}
	if task.StatusCode != 0 && task.StatusCode != dataForSEOStatusOK {
		return nil, fmt.Errorf("task status %d: %s", task.StatusCode, task.StatusMessage)
	}
	return &env, nil
}

// Extract reads tasks[0].result. Months with a null volume are dropped so
// they stay distinguishable from a reported zero.
func (d *DataForSEO) Extract(b batch.Batch, body []byte) ([]KeywordMetrics, error) {
	env, err := d.envelope(body)
	if err != nil {
		return nil, err
	}

	var results []dataForSEOKeyword
	raw := env.Tasks[0].Result
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &results); err != nil {
			return nil, fmt.Errorf("decode dataforseo result: %w", err)
		}
	}
	if len(results) == 0 {
		return nil, errors.New("empty result from API")
	}

	entries := make([]KeywordMetrics, 0, len(results))
	for _, r := range results {
		km := KeywordMetrics{Keyword: r.Keyword}
		for _, m := range r.MonthlySearches {
			if !m.SearchVolume.Valid || m.Month < 1 || m.Month > 12 {
				continue
			}
			km.Monthly = append(km.Monthly, MonthlyVolume{
				Year:   m.Year,
				Month:  time.Month(m.Month),
				Volume: m.SearchVolume.Value,
			})
		}
		entries = append(entries, km)
	}
	return entries, nil
}

// Missing lists requested keywords absent from a historical response. Idea
// responses return different keywords, so nothing is reported missing.
func (d *DataForSEO) Missing(b batch.Batch, entries []KeywordMetrics) []string {
	if d.mode == ModeIdeas {
		return nil
	}
	returned := make([]string, len(entries))
	for i, e := range entries {
		returned[i] = e.Keyword
	}
	return missingTerms(b.Keywords, returned)
}

// ClassifyStatus inspects the JSON status code DataForSEO puts in error bodies.
func (d *DataForSEO) ClassifyStatus(status int, body []byte) (ErrorSeverity, bool) {
	var env dataForSEOEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ErrorSeverityRetryable, false
	}
	if dataForSEOFatal(env.StatusCode) {
		return ErrorSeverityFatal, true
	}
	for _, t := range env.Tasks {
		if dataForSEOFatal(t.StatusCode) {
			return ErrorSeverityFatal, true
		}
	}
	return ErrorSeverityRetryable, false
}

// Balance returns the account balance in USD from appendix/user_data.
func (d *DataForSEO) Balance(ctx context.Context, transport Doer) (float64, error) {
	resp, err := transport.Do(ctx, &Request{
		Method:  "GET",
		URL:     d.baseURL + dataForSEOUserDataPath,
		Headers: map[string]string{"Authorization": d.auth},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == 401 || resp.StatusCode == 403 {
			return 0, &FatalError{Provider: d.Name(), StatusCode: resp.StatusCode, Reason: "credentials rejected"}
		}
		return 0, &RetryableError{Provider: d.Name(), StatusCode: resp.StatusCode, Reason: "balance request failed"}
	}

	env, err := d.envelope(resp.Body)
	if err != nil {
		return 0, err
	}
	var result []struct {
		Money struct {
			Balance *float64 `json:"balance"`
		} `json:"money"`
	}
	if err := json.Unmarshal(env.Tasks[0].Result, &result); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	if len(result) == 0 || result[0].Money.Balance == nil {
		return 0, errors.New("balance missing from response")
	}
	return *result[0].Money.Balance, nil
}
