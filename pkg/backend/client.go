package backend

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"searchabull-keyword-engine/pkg/logger"
)

const submitPath = "/api/v1/keyword-volumes/batch"

type httpBackendClient struct {
	config BackendConfig
	client *fasthttp.Client
	pause  time.Duration
	log    *logger.Logger
}

// NewBackendClient creates a new backend API client
func NewBackendClient(config BackendConfig) (BackendClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("backend API key is required - set SEARCHABULL_BACKEND_API_KEY")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 300
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	client := &fasthttp.Client{
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxConnsPerHost:     4,
		MaxIdleConnDuration: 90 * time.Second,
	}

	return &httpBackendClient{
		config: config,
		client: client,
		pause:  100 * time.Millisecond,
		log:    logger.GetLogger().WithField("component", "backend_client"),
	}, nil
}

// SubmitBatch submits a single batch of rows, gzip-compressed when enabled.
func (c *httpBackendClient) SubmitBatch(batch KeywordVolumeBatch) (*BackendResponse, error) {
	c.log.WithField("batch_size", len(batch)).Debug("Submitting keyword volume batch")

	jsonData, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch data: %w", err)
	}

	requestBody := jsonData
	contentEncoding := ""
	if c.config.EnableGzip {
		var buf bytes.Buffer
		gzipWriter := gzip.NewWriter(&buf)
		if _, err := gzipWriter.Write(jsonData); err != nil {
			gzipWriter.Close()
			return nil, fmt.Errorf("failed to write to gzip: %w", err)
		}
		if err := gzipWriter.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}

		requestBody = buf.Bytes()
		contentEncoding = "gzip"
		c.log.WithFields(map[string]interface{}{
			"original_size":     len(jsonData),
			"compressed_size":   len(requestBody),
			"compression_ratio": fmt.Sprintf("%.2f%%", float64(len(requestBody))/float64(len(jsonData))*100),
		}).Debug("Data compressed with GZIP")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + submitPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-API-Key", c.config.APIKey)
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}
	req.SetBody(requestBody)

	if err := c.client.DoTimeout(req, resp, c.config.Timeout); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var backendResp BackendResponse
	if err := json.Unmarshal(resp.Body(), &backendResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.WithFields(map[string]interface{}{
		"response_code":    backendResp.Code,
		"response_message": backendResp.Message,
		"batch_size":       len(batch),
	}).Debug("Backend submission completed")

	return &backendResp, nil
}

// SubmitBatches splits data into batches and submits them sequentially.
// Failed batches are logged and counted; the rest are still sent.
func (c *httpBackendClient) SubmitBatches(data []KeywordVolumeData) error {
	if len(data) == 0 {
		c.log.Debug("No data to submit")
		return nil
	}

	totalBatches := (len(data) + c.config.BatchSize - 1) / c.config.BatchSize
	c.log.WithFields(map[string]interface{}{
		"total_rows":    len(data),
		"batch_size":    c.config.BatchSize,
		"total_batches": totalBatches,
	}).Info("Starting batch submission")

	successCount := 0
	failureCount := 0
	for i := 0; i < len(data); i += c.config.BatchSize {
		end := i + c.config.BatchSize
		if end > len(data) {
			end = len(data)
		}
		batchNum := i/c.config.BatchSize + 1

		resp, err := c.SubmitBatch(KeywordVolumeBatch(data[i:end]))
		if err != nil {
			c.log.WithError(err).WithField("batch_number", batchNum).Error("Batch submission failed")
			failureCount++
			continue
		}
		if resp.Code != 0 {
			c.log.WithFields(map[string]interface{}{
				"batch_number":     batchNum,
				"response_code":    resp.Code,
				"response_message": resp.Message,
			}).Error("Backend API returned error")
			failureCount++
			continue
		}

		successCount++
		if end < len(data) && c.pause > 0 {
			time.Sleep(c.pause)
		}
	}

	c.log.WithFields(map[string]interface{}{
		"total_batches":      totalBatches,
		"successful_batches": successCount,
		"failed_batches":     failureCount,
		"success_rate":       fmt.Sprintf("%.1f%%", float64(successCount)/float64(totalBatches)*100),
	}).Info("Batch submission completed")

	if failureCount > 0 {
		return fmt.Errorf("failed to submit %d out of %d batches", failureCount, totalBatches)
	}
	return nil
}
