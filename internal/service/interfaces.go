package service

import (
	"context"

	"searchabull-keyword-engine/pkg/geo"
	"searchabull-keyword-engine/pkg/pipeline"
)

// VolumeRequest selects a provider run. Empty Provider and Mode fall back
// to the configured pipeline defaults.
type VolumeRequest struct {
	Provider string       `json:"provider"`
	Mode     string       `json:"mode"`
	Category string       `json:"category"`
	Targets  []geo.Target `json:"targets"`
	Keywords []string     `json:"keywords"`
}

// TranslationRequest translates Texts. Empty languages use the configured
// DeepL pair.
type TranslationRequest struct {
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
	Texts      []string `json:"texts"`
}

// Workbook is a rendered xlsx file. Path is set once it is written to disk.
type Workbook struct {
	Filename string
	Data     []byte
	Path     string
}

type VolumeResult struct {
	Report   *pipeline.Report
	Workbook *Workbook
}

type TranslationResult struct {
	Report   *pipeline.TranslationReport
	Workbook *Workbook
}

type VolumeService interface {
	RunVolumes(ctx context.Context, req VolumeRequest) (*VolumeResult, error)
}

type TranslationService interface {
	Translate(ctx context.Context, req TranslationRequest) (*TranslationResult, error)
}

type BalanceService interface {
	Balance(ctx context.Context) (float64, error)
}

// KeywordService is everything the HTTP and CLI front ends need.
type KeywordService interface {
	VolumeService
	TranslationService
	BalanceService
}
