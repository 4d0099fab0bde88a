package api

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"searchabull-keyword-engine/pkg/logger"
)

// HTTPTransport sends adapter requests over a shared fasthttp client.
type HTTPTransport struct {
	client *fasthttp.Client
	config ConnectionConfig
	log    *logger.Logger
}

// NewHTTPTransport creates a transport with the given connection settings.
func NewHTTPTransport(config ConnectionConfig) *HTTPTransport {
	def := DefaultConnectionConfig()
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = def.RequestTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	return &HTTPTransport{
		client: newFastHTTPClient(config),
		config: config,
		log:    logger.GetLogger().WithField("component", "http_transport"),
	}
}

// Do executes req once. The per-request timeout is capped by the context
// deadline; fasthttp has no native context support.
func (t *HTTPTransport) Do(ctx context.Context, r *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = t.config.RequestTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	method := r.Method
	if method == "" {
		method = fasthttp.MethodPost
	}
	req.SetRequestURI(r.URL)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.config.UserAgent)
	if r.ContentType != "" {
		req.Header.SetContentType(r.ContentType)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if len(r.Body) > 0 {
		req.SetBody(r.Body)
	}

	start := time.Now()
	if err := t.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	t.log.WithFields(map[string]interface{}{
		"status":      resp.StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
		"bytes":       len(resp.Body()),
	}).Debug("Provider request completed")

	body := append([]byte(nil), resp.Body()...)
	return &Response{StatusCode: resp.StatusCode(), Body: body}, nil
}
