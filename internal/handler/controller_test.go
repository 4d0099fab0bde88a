package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"searchabull-keyword-engine/internal/service"
	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/pipeline"
)

type fakeService struct {
	volumes    *service.VolumeResult
	volumesErr error
	lastVolume service.VolumeRequest

	translation    *service.TranslationResult
	translationErr error

	balance    float64
	balanceErr error
}

func (f *fakeService) RunVolumes(ctx context.Context, req service.VolumeRequest) (*service.VolumeResult, error) {
	f.lastVolume = req
	return f.volumes, f.volumesErr
}

func (f *fakeService) Translate(ctx context.Context, req service.TranslationRequest) (*service.TranslationResult, error) {
	return f.translation, f.translationErr
}

func (f *fakeService) Balance(ctx context.Context) (float64, error) {
	return f.balance, f.balanceErr
}

func newTestApp(svc service.KeywordService, reg *prometheus.Registry) *fiber.App {
	app := fiber.New()
	var metrics *MetricsHandler
	if reg != nil {
		metrics = NewMetricsHandler(reg)
	}
	NewController(svc, ControllerConfig{}).RegisterRoutes(app, metrics)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]string, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test(%s) error = %v", path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	headers := map[string]string{
		"Content-Type":        resp.Header.Get("Content-Type"),
		"Content-Disposition": resp.Header.Get("Content-Disposition"),
		"X-Run-ID":            resp.Header.Get("X-Run-ID"),
		"X-Failed-Terms":      resp.Header.Get("X-Failed-Terms"),
	}
	return resp.StatusCode, headers, data
}

func TestHealth(t *testing.T) {
	app := newTestApp(&fakeService{}, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != 200 || status.Status != "ok" {
		t.Errorf("health = %d %+v", resp.StatusCode, status)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "searchabull_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	app := newTestApp(&fakeService{}, reg)
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(body), "searchabull_test_total 1") {
		t.Errorf("metrics = %d %q", resp.StatusCode, body)
	}
}

func TestVolumes(t *testing.T) {
	svc := &fakeService{volumes: &service.VolumeResult{
		Report: &pipeline.Report{
			RunID:  "run-1",
			Failed: []pipeline.FailedTerm{{Keyword: "boots", Reason: pipeline.ReasonNotReturned}},
		},
		Workbook: &service.Workbook{Filename: "SEARCH VOLUMES - shoes.xlsx", Data: []byte("xlsx")},
	}}
	app := newTestApp(svc, nil)

	status, headers, body := postJSON(t, app, "/api/volumes",
		`{"provider":"dataforseo","category":"shoes","keywords":["shoes","boots"],
		  "targets":[{"region":"Europe","target_location":"Germany","target_language":"German"}]}`)

	if status != 200 {
		t.Fatalf("status = %d, body %s", status, body)
	}
	if headers["Content-Type"] != xlsxContentType {
		t.Errorf("Content-Type = %q", headers["Content-Type"])
	}
	if !strings.Contains(headers["Content-Disposition"], "SEARCH VOLUMES - shoes.xlsx") {
		t.Errorf("Content-Disposition = %q", headers["Content-Disposition"])
	}
	if headers["X-Run-ID"] != "run-1" || headers["X-Failed-Terms"] != "1" {
		t.Errorf("run headers = %v", headers)
	}
	if string(body) != "xlsx" {
		t.Errorf("body = %q", body)
	}
	if len(svc.lastVolume.Targets) != 1 || svc.lastVolume.Targets[0].Location != "Germany" {
		t.Errorf("request targets = %+v", svc.lastVolume.Targets)
	}
}

func TestVolumesErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad json", `{`, nil, 400, "invalid_request"},
		{"input", `{}`, &pipeline.InputError{Err: errors.New("keyword list is empty")}, 400, "invalid_input"},
		{"empty", `{}`, service.ErrEmptyResult, 422, "empty_result"},
		{"fatal", `{}`, &api.FatalError{Provider: "dataforseo", StatusCode: 402, Reason: "payment required"}, 502, "provider_error"},
		{"timeout", `{}`, context.DeadlineExceeded, 504, "timeout"},
		{"other", `{}`, errors.New("boom"), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeService{volumesErr: tt.err}, nil)
			status, _, body := postJSON(t, app, "/api/volumes", tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				t.Fatalf("decode %q: %v", body, err)
			}
			if resp.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestTranslations(t *testing.T) {
	svc := &fakeService{translation: &service.TranslationResult{
		Report:   &pipeline.TranslationReport{RunID: "run-2"},
		Workbook: &service.Workbook{Filename: "translated_file_EN_2025-06-01_10-00-00.xlsx", Data: []byte("xlsx")},
	}}
	app := newTestApp(svc, nil)

	status, headers, _ := postJSON(t, app, "/api/translations", `{"texts":["hello"]}`)
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(headers["Content-Disposition"], "translated_file_EN_") {
		t.Errorf("Content-Disposition = %q", headers["Content-Disposition"])
	}
}

func TestBalance(t *testing.T) {
	app := newTestApp(&fakeService{balance: 42.5}, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/balance", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	var got BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Balance != 42.5 || got.Currency != "USD" {
		t.Errorf("balance = %+v", got)
	}

	app = newTestApp(&fakeService{balanceErr: &api.FatalError{Provider: "dataforseo", StatusCode: 401, Reason: "credentials rejected"}}, nil)
	resp, err = app.Test(httptest.NewRequest("GET", "/api/balance", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != 502 {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}
