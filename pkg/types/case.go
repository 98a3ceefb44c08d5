// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the ACE extraction engine:
// cases, extracted metadata, verification results, and stage configuration.
package types

import "time"

// CaseStatus tracks where a case sits in its processing lifecycle.
type CaseStatus string

const (
	CaseIdle       CaseStatus = "idle"
	CaseProcessing CaseStatus = "processing"
	CaseSuccess    CaseStatus = "success"
	CaseError      CaseStatus = "error"
)

// SourceKind tags one of the up to four inputs a case may carry.
type SourceKind string

const (
	SourcePDF    SourceKind = "pdf"
	SourceHTML   SourceKind = "html"
	SourceScrape SourceKind = "scrape"
	SourceAPI    SourceKind = "api"
)

// SourceSet holds the local file paths for a case's inputs. Paths are fixed
// when the case is created; replacing an input means creating a new case.
type SourceSet struct {
	// PDF is the path to the paper PDF. Required for extraction.
	PDF string `json:"pdf,omitempty" yaml:"pdf,omitempty"`

	// HTML is the path to the saved landing page, if any.
	HTML string `json:"html,omitempty" yaml:"html,omitempty"`

	// Scrape is the path to scraped metadata, if any.
	Scrape string `json:"scrape,omitempty" yaml:"scrape,omitempty"`

	// API is the path to API metadata, if any.
	API string `json:"api,omitempty" yaml:"api,omitempty"`
}

// Timing records the extraction and QC timestamps for a case. Zero values
// mean "not yet set". Durations are always derived from the timestamp pairs,
// never stored separately.
type Timing struct {
	// ExtractionStart is stamped when the case enters processing.
	ExtractionStart time.Time `json:"extraction_start,omitempty" yaml:"extraction_start,omitempty"`

	// ExtractionEnd is stamped when extraction finishes, success or not.
	ExtractionEnd time.Time `json:"extraction_end,omitempty" yaml:"extraction_end,omitempty"`

	// QCStart marks the beginning of human review. On success it equals
	// ExtractionEnd: review time begins the instant extraction finishes.
	QCStart time.Time `json:"qc_start,omitempty" yaml:"qc_start,omitempty"`

	// QCEnd is stamped when the operator finalizes QC.
	QCEnd time.Time `json:"qc_end,omitempty" yaml:"qc_end,omitempty"`
}

// ExtractionDuration returns how long extraction took, or zero if the case
// has not completed an extraction attempt.
func (t Timing) ExtractionDuration() time.Duration {
	if t.ExtractionStart.IsZero() || t.ExtractionEnd.IsZero() {
		return 0
	}
	return t.ExtractionEnd.Sub(t.ExtractionStart)
}

// QCDuration returns how long human review took, or zero if QC has not
// been finalized.
func (t Timing) QCDuration() time.Duration {
	if t.QCStart.IsZero() || t.QCEnd.IsZero() {
		return 0
	}
	return t.QCEnd.Sub(t.QCStart)
}

// OverrideRecord is the audit trail entry written when an operator decides
// to proceed despite a mismatched verification status.
type OverrideRecord struct {
	// Operator identifies who recorded the override.
	Operator string `json:"operator" yaml:"operator"`

	// Reason is the operator's stated justification.
	Reason string `json:"reason" yaml:"reason"`

	// At is when the override was recorded.
	At time.Time `json:"at" yaml:"at"`
}

// CaseRecord is one unit of work: one paper with its source files, lifecycle
// status, timing, and (after extraction) the verified metadata record.
type CaseRecord struct {
	// ID is derived from the parsed paper identifier, or a random token
	// when none could be parsed. Unique within a session.
	ID string `json:"id" yaml:"id"`

	// DisplayName is shown to the operator, usually the paper identifier.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Sources holds the input file paths, immutable once the case exists.
	Sources SourceSet `json:"sources" yaml:"sources"`

	// Status is the lifecycle state. Transitions go through cases.Manager only.
	Status CaseStatus `json:"status" yaml:"status"`

	// Extracted is the metadata record. Non-nil if and only if Status is
	// CaseSuccess: a failed re-run clears any record from an earlier run.
	Extracted *ExtractedMetadata `json:"extracted,omitempty" yaml:"extracted,omitempty"`

	// ErrorMessage is set only when Status is CaseError.
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`

	// Timing holds the extraction and QC timestamps.
	Timing Timing `json:"timing" yaml:"timing"`

	// IsEdited is true once the operator has saved a manual correction.
	IsEdited bool `json:"is_edited,omitempty" yaml:"is_edited,omitempty"`

	// ManualID is an optional operator-supplied identifier override passed
	// to the extraction boundary.
	ManualID string `json:"manual_id,omitempty" yaml:"manual_id,omitempty"`

	// Override records an operator's decision to finalize despite a
	// mismatched verification status. Nil when no override occurred.
	Override *OverrideRecord `json:"override,omitempty" yaml:"override,omitempty"`
}
