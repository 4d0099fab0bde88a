package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"

	"searchabull-keyword-engine/pkg/batch"
)

const (
	DeepLFreeURL = "https://api-free.deepl.com"
	DeepLProURL  = "https://api.deepl.com"
)

// DeepLConfig configures the translation adapter.
type DeepLConfig struct {
	AuthKey    string        `mapstructure:"auth_key"`
	BaseURL    string        `mapstructure:"base_url"`
	SourceLang string        `mapstructure:"source_lang"`
	TargetLang string        `mapstructure:"target_lang"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// DeepL adapts the /v2/translate endpoint. Entries are returned in input order.
type DeepL struct {
	config   DeepLConfig
	endpoint string
}

// NewDeepL validates the key and language codes. Free-plan keys end in ":fx"
// and are routed to the free host unless BaseURL is set.
func NewDeepL(config DeepLConfig) (*DeepL, error) {
	if config.AuthKey == "" {
		return nil, errors.New("deepl: auth key is required")
	}
	src, err := normalizeDeepLLang(config.SourceLang)
	if err != nil {
		return nil, fmt.Errorf("deepl: source language: %w", err)
	}
	tgt, err := normalizeDeepLLang(config.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("deepl: target language: %w", err)
	}
	config.SourceLang, config.TargetLang = src, tgt
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	base := config.BaseURL
	if base == "" {
		base = DeepLProURL
		if strings.HasSuffix(config.AuthKey, ":fx") {
			base = DeepLFreeURL
		}
	}
	return &DeepL{config: config, endpoint: strings.TrimRight(base, "/") + "/v2/translate"}, nil
}

// normalizeDeepLLang checks code is a BCP 47 tag and returns it upper-cased
// the way DeepL expects (EN, EN-GB, PT-BR).
func normalizeDeepLLang(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("language code is required")
	}
	if _, err := language.Parse(code); err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return strings.ToUpper(code), nil
}

func (d *DeepL) Name() string { return "deepl" }

func (d *DeepL) BatchSize() int { return 20 }

// SourceLang is the normalized source language code.
func (d *DeepL) SourceLang() string { return d.config.SourceLang }

// TargetLang is the normalized target language code.
func (d *DeepL) TargetLang() string { return d.config.TargetLang }

func (d *DeepL) BuildRequest(ctx context.Context, b batch.Batch) (*Request, error) {
	form := url.Values{}
	for _, text := range b.Keywords {
		form.Add("text", text)
	}
	form.Set("source_lang", d.config.SourceLang)
	form.Set("target_lang", d.config.TargetLang)

	return &Request{
		Method:      "POST",
		URL:         d.endpoint,
		ContentType: "application/x-www-form-urlencoded",
		Headers:     map[string]string{"Authorization": "DeepL-Auth-Key " + d.config.AuthKey},
		Body:        []byte(form.Encode()),
		Timeout:     d.config.Timeout,
	}, nil
}

// Extract pairs translations with their source texts. A count mismatch
// means the response cannot be aligned and is retried.
func (d *DeepL) Extract(b batch.Batch, body []byte) ([]Translation, error) {
	var resp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode deepl response: %w", err)
	}
	if len(resp.Translations) == 0 {
		return nil, errors.New("empty translations from API")
	}
	if len(resp.Translations) != len(b.Keywords) {
		return nil, fmt.Errorf("got %d translations for %d texts", len(resp.Translations), len(b.Keywords))
	}

	out := make([]Translation, len(resp.Translations))
	for i, t := range resp.Translations {
		out[i] = Translation{Source: b.Keywords[i], Text: t.Text}
	}
	return out, nil
}

func (d *DeepL) Missing(batch.Batch, []Translation) []string { return nil }
