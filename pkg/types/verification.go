// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// VerificationStatus classifies the outcome of cross-checking a paper's
// identifier, title, and authors across the available sources.
type VerificationStatus string

const (
	// VerifySuccess: base IDs and versions agree across all sources that
	// report them.
	VerifySuccess VerificationStatus = "SUCCESS"

	// VerifyMatchByTitle: the PDF carries no identifier, but the HTML title
	// matches the PDF title, so the HTML identifier was adopted.
	VerifyMatchByTitle VerificationStatus = "MATCH_BY_TITLE"

	// VerifyVersionMismatched: sources agree on the base ID but disagree on
	// the version suffix.
	VerifyVersionMismatched VerificationStatus = "VERSION_MISMATCHED"

	// VerifySummaryMismatched: two or more sources disagree on the base ID
	// itself.
	VerifySummaryMismatched VerificationStatus = "SUMMARY_MISMATCHED"

	// VerifyAuthorMismatch and VerifyCheckRequired are finer-grained
	// statuses the boundary may report; the engine itself never produces
	// them but downstream handling accepts them.
	VerifyAuthorMismatch VerificationStatus = "AUTHOR_MISMATCH"
	VerifyCheckRequired  VerificationStatus = "CHECK_REQUIRED"
)

// TitleSource names which input supplied the authoritative title.
type TitleSource string

const (
	TitleFromHTML TitleSource = "HTML"
	TitleFromPDF  TitleSource = "PDF"
)

// IDComparison records the identifier and version each source reported.
// Empty strings mean the source did not report a value (or was absent).
type IDComparison struct {
	PDFID         string `json:"pdf_id,omitempty" yaml:"pdf_id,omitempty"`
	PDFVersion    string `json:"pdf_version,omitempty" yaml:"pdf_version,omitempty"`
	HTMLID        string `json:"html_id,omitempty" yaml:"html_id,omitempty"`
	HTMLVersion   string `json:"html_version,omitempty" yaml:"html_version,omitempty"`
	ScrapeID      string `json:"scrape_id,omitempty" yaml:"scrape_id,omitempty"`
	ScrapeVersion string `json:"scrape_version,omitempty" yaml:"scrape_version,omitempty"`
	APIID         string `json:"api_id,omitempty" yaml:"api_id,omitempty"`
	APIVersion    string `json:"api_version,omitempty" yaml:"api_version,omitempty"`

	// VersionsAgree is true when every base-agreeing source reports the
	// same version, a missing suffix counting as version 1.
	VersionsAgree bool `json:"versions_agree" yaml:"versions_agree"`
}

// TitleComparison records the title check between PDF and HTML.
type TitleComparison struct {
	PDFTitle  string `json:"pdf_title,omitempty" yaml:"pdf_title,omitempty"`
	HTMLTitle string `json:"html_title,omitempty" yaml:"html_title,omitempty"`

	// Match is true when the titles are equal after normalization.
	// Styling-only differences (math delimiters) still count as a match.
	Match bool `json:"match" yaml:"match"`

	// SourceUsed names the authoritative title source. HTML by default;
	// PDF when the HTML title differs only by math-styling delimiters.
	SourceUsed TitleSource `json:"source_used" yaml:"source_used"`
}

// AuthorComparison is the advisory author-list check. It never changes the
// verification status; it is surfaced to the reviewer.
type AuthorComparison struct {
	// Match is true when the PDF and API author counts agree.
	Match bool `json:"match" yaml:"match"`

	// Rationale explains a discrepancy
	// (e.g. "API lists fewer authors than PDF, possible lumped names").
	Rationale string `json:"rationale" yaml:"rationale"`

	PDFCount int `json:"pdf_count" yaml:"pdf_count"`
	APICount int `json:"api_count" yaml:"api_count"`
}

// VerificationResult is the engine's full finding for one case. Status is a
// pure function of the ID and title comparisons; it is never set
// independently of them.
type VerificationResult struct {
	Status VerificationStatus `json:"status" yaml:"status"`

	// Message is a brief human-readable reason for the status.
	Message string `json:"message" yaml:"message"`

	// AuthoritativeID is the identifier selected for downstream use.
	AuthoritativeID string `json:"authoritative_id" yaml:"authoritative_id"`

	IDComparison     IDComparison     `json:"id_comparison" yaml:"id_comparison"`
	TitleComparison  TitleComparison  `json:"title_comparison" yaml:"title_comparison"`
	AuthorComparison AuthorComparison `json:"author_comparison" yaml:"author_comparison"`
}

// RequiresReview reports whether the status soft-gates finalization:
// extraction succeeded, but an operator must look before the record can be
// finalized (or record an explicit override).
func (r VerificationResult) RequiresReview() bool {
	switch r.Status {
	case VerifyVersionMismatched, VerifySummaryMismatched, VerifyCheckRequired:
		return true
	default:
		return false
	}
}
