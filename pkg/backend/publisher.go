package backend

import (
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/pipeline"
)

// Publisher sends finished reports to the backend. Publication is best
// effort: errors are logged and returned, and callers do not fail the run.
type Publisher struct {
	client    BackendClient
	converter *DataConverter
	log       *logger.Logger
}

// NewPublisher builds a publisher from config.
func NewPublisher(config BackendConfig) (*Publisher, error) {
	client, err := NewBackendClient(config)
	if err != nil {
		return nil, err
	}
	return NewPublisherWithClient(client), nil
}

// NewPublisherWithClient wraps an existing client.
func NewPublisherWithClient(client BackendClient) *Publisher {
	return &Publisher{
		client:    client,
		converter: NewDataConverter(),
		log:       logger.GetLogger().WithField("component", "backend_publisher"),
	}
}

// Publish submits every table row of report.
func (p *Publisher) Publish(report *pipeline.Report) error {
	if report.Empty() {
		p.log.Debug("Report has no volume data, nothing to publish")
		return nil
	}
	rows := p.converter.ConvertReport(report)
	if err := p.client.SubmitBatches(rows); err != nil {
		p.log.WithError(err).WithField("run_id", report.RunID).Warn("Backend publication incomplete")
		return err
	}
	p.log.WithFields(map[string]interface{}{
		"run_id": report.RunID,
		"rows":   len(rows),
	}).Info("Report published to backend")
	return nil
}
