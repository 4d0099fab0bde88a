package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"searchabull-keyword-engine/pkg/batch"
)

const (
	GoogleAdsBaseURL    = "https://googleads.googleapis.com"
	GoogleAdsAPIVersion = "v20"
	GoogleOAuthTokenURL = "https://oauth2.googleapis.com/token"
	googleAdsScope      = "https://www.googleapis.com/auth/adwords"
)

// GoogleAdsConfig configures the Keyword Planner REST adapter.
type GoogleAdsConfig struct {
	DeveloperToken  string        `mapstructure:"developer_token"`
	CustomerID      string        `mapstructure:"customer_id"`
	LoginCustomerID string        `mapstructure:"login_customer_id"`
	ClientID        string        `mapstructure:"client_id"`
	ClientSecret    string        `mapstructure:"client_secret"`
	RefreshToken    string        `mapstructure:"refresh_token"`
	BaseURL         string        `mapstructure:"base_url"`
	TokenURL        string        `mapstructure:"token_url"`
	APIVersion      string        `mapstructure:"api_version"`
	IncludeAdult    bool          `mapstructure:"include_adult"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// NewOAuthTokenSource exchanges the configured refresh token for access
// tokens, caching them until expiry.
func NewOAuthTokenSource(ctx context.Context, config GoogleAdsConfig) oauth2.TokenSource {
	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = GoogleOAuthTokenURL
	}
	conf := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{googleAdsScope},
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: config.RefreshToken})
}

// GoogleAds adapts generateKeywordHistoricalMetrics and generateKeywordIdeas.
type GoogleAds struct {
	config     GoogleAdsConfig
	mode       Mode
	tokens     oauth2.TokenSource
	customerID string
	endpoint   string
}

// NewGoogleAds builds the adapter. tokens supplies bearer tokens; pass
// NewOAuthTokenSource in production.
func NewGoogleAds(config GoogleAdsConfig, mode Mode, tokens oauth2.TokenSource) (*GoogleAds, error) {
	if config.DeveloperToken == "" {
		return nil, errors.New("googleads: developer token is required")
	}
	customer := digitsOnly(config.CustomerID)
	if customer == "" {
		return nil, errors.New("googleads: customer id is required")
	}
	if tokens == nil {
		return nil, errors.New("googleads: token source is required")
	}
	if mode != ModeHistorical && mode != ModeIdeas {
		return nil, fmt.Errorf("googleads: unsupported mode %q", mode)
	}
	if config.BaseURL == "" {
		config.BaseURL = GoogleAdsBaseURL
	}
	if config.APIVersion == "" {
		config.APIVersion = GoogleAdsAPIVersion
	}
	if config.Timeout <= 0 {
		config.Timeout = 90 * time.Second
	}
	config.LoginCustomerID = digitsOnly(config.LoginCustomerID)

	method := "generateKeywordHistoricalMetrics"
	if mode == ModeIdeas {
		method = "generateKeywordIdeas"
	}
	endpoint := fmt.Sprintf("%s/%s/customers/%s:%s",
		strings.TrimRight(config.BaseURL, "/"), config.APIVersion, customer, method)

	return &GoogleAds{
		config:     config,
		mode:       mode,
		tokens:     tokens,
		customerID: customer,
		endpoint:   endpoint,
	}, nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func (g *GoogleAds) Name() string { return "googleads" }

// BatchSize is 10000 for historical metrics and 20 for idea seeds.
func (g *GoogleAds) BatchSize() int {
	if g.mode == ModeIdeas {
		return 20
	}
	return 10000
}

type googleAdsKeywordSeed struct {
	Keywords []string `json:"keywords"`
}

type googleAdsRequest struct {
	Keywords             []string              `json:"keywords,omitempty"`
	KeywordSeed          *googleAdsKeywordSeed `json:"keywordSeed,omitempty"`
	GeoTargetConstants   []string              `json:"geoTargetConstants"`
	Language             string                `json:"language"`
	KeywordPlanNetwork   string                `json:"keywordPlanNetwork"`
	IncludeAdultKeywords bool                  `json:"includeAdultKeywords"`
}

func (g *GoogleAds) BuildRequest(ctx context.Context, b batch.Batch) (*Request, error) {
	token, err := g.tokens.Token()
	if err != nil {
		return nil, g.tokenError(err)
	}

	payload := googleAdsRequest{
		GeoTargetConstants:   []string{"geoTargetConstants/" + strconv.Itoa(b.Target.LocationCode)},
		Language:             "languageConstants/" + strconv.Itoa(b.Target.LanguageID),
		KeywordPlanNetwork:   "GOOGLE_SEARCH",
		IncludeAdultKeywords: g.config.IncludeAdult,
	}
	if g.mode == ModeIdeas {
		payload.KeywordSeed = &googleAdsKeywordSeed{Keywords: b.Keywords}
	} else {
		payload.Keywords = b.Keywords
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal googleads payload: %w", err)
	}

	headers := map[string]string{
		"Authorization":   token.Type() + " " + token.AccessToken,
		"developer-token": g.config.DeveloperToken,
	}
	if g.config.LoginCustomerID != "" {
		headers["login-customer-id"] = g.config.LoginCustomerID
	}

	return &Request{
		Method:      "POST",
		URL:         g.endpoint,
		ContentType: "application/json",
		Headers:     headers,
		Body:        body,
		Timeout:     g.config.Timeout,
	}, nil
}

// tokenError treats a revoked or invalid refresh token as fatal.
func (g *GoogleAds) tokenError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		switch {
		case rerr.ErrorCode == "invalid_grant", rerr.ErrorCode == "invalid_client",
			rerr.ErrorCode == "unauthorized_client", status == 400, status == 401:
			return &FatalError{Provider: g.Name(), StatusCode: status, Reason: "oauth token refresh rejected", Err: err}
		}
	}
	return fmt.Errorf("refresh oauth token: %w", err)
}

type googleAdsMetrics struct {
	MonthlySearchVolumes []struct {
		Month           googleMonth `json:"month"`
		Year            flexInt     `json:"year"`
		MonthlySearches flexInt     `json:"monthlySearches"`
	} `json:"monthlySearchVolumes"`
}

type googleAdsResponse struct {
	Results []struct {
		Text               string            `json:"text"`
		KeywordMetrics     *googleAdsMetrics `json:"keywordMetrics"`
		KeywordIdeaMetrics *googleAdsMetrics `json:"keywordIdeaMetrics"`
	} `json:"results"`
}

// Extract converts monthlySearchVolumes to calendar months. An omitted
// monthlySearches is proto3's encoding of zero.
func (g *GoogleAds) Extract(b batch.Batch, body []byte) ([]KeywordMetrics, error) {
	var resp googleAdsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode googleads response: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, errors.New("empty results from API")
	}

	entries := make([]KeywordMetrics, 0, len(resp.Results))
	for _, r := range resp.Results {
		km := KeywordMetrics{Keyword: r.Text}
		m := r.KeywordMetrics
		if g.mode == ModeIdeas {
			m = r.KeywordIdeaMetrics
		}
		if m != nil {
			for _, v := range m.MonthlySearchVolumes {
				if !v.Year.Valid || v.Month.Month == 0 {
					continue
				}
				km.Monthly = append(km.Monthly, MonthlyVolume{
					Year:   int(v.Year.Value),
					Month:  v.Month.Month,
					Volume: v.MonthlySearches.Value,
				})
			}
		}
		entries = append(entries, km)
	}
	return entries, nil
}

func (g *GoogleAds) Missing(b batch.Batch, entries []KeywordMetrics) []string {
	if g.mode == ModeIdeas {
		return nil
	}
	returned := make([]string, len(entries))
	for i, e := range entries {
		returned[i] = e.Keyword
	}
	return missingTerms(b.Keywords, returned)
}

type googleAdsError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ClassifyStatus reads the google.rpc.Status in error bodies.
func (g *GoogleAds) ClassifyStatus(status int, body []byte) (ErrorSeverity, bool) {
	var e googleAdsError
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Status == "" {
		return ErrorSeverityRetryable, false
	}
	switch e.Error.Status {
	case "RESOURCE_EXHAUSTED", "PERMISSION_DENIED", "UNAUTHENTICATED":
		return ErrorSeverityFatal, true
	}
	return ErrorSeverityRetryable, false
}
