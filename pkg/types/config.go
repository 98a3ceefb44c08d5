package types

import "time"

// AIConfig holds shared settings for calls to the generative model API.
type AIConfig struct {
	// Model is the model identifier (e.g. "gemini-3-pro-preview").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxAttempts is the total number of attempts for rate-limited calls
	// (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// Timeout is the HTTP request timeout for one model call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SourceConfig holds settings for reading case inputs.
type SourceConfig struct {
	// MaxPDFPages caps how many pages of text are extracted from a PDF
	// (default 50).
	MaxPDFPages int `json:"max_pdf_pages" yaml:"max_pdf_pages"`

	// MinTextLength is the extracted-text threshold below which the raw
	// PDF bytes are sent to the boundary instead (default 500).
	MinTextLength int `json:"min_text_length" yaml:"min_text_length"`
}

// SchedulerConfig holds settings for the processing scheduler.
type SchedulerConfig struct {
	// Concurrency is the maximum number of in-flight extractions
	// (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// RatePerSecond paces extraction starts against the external service's
	// rate limit. Zero disables pacing.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`
}

// HistoryConfig holds settings for the session archive.
type HistoryConfig struct {
	// Path is the directory holding the session archive database
	// (default ".ace").
	Path string `json:"path" yaml:"path"`
}

// ExportConfig holds settings for XML export.
type ExportConfig struct {
	// OutputDir is where exported XML documents are written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// EngineConfig groups all stage configurations.
type EngineConfig struct {
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Source    SourceConfig    `json:"source" yaml:"source"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	History   HistoryConfig   `json:"history" yaml:"history"`
	Export    ExportConfig    `json:"export" yaml:"export"`
}
