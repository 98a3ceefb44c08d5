// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import "github.com/apeiro/ace/pkg/types"

// Recompute re-derives a verification result from the per-source
// observations the boundary reported. The model's own status claim is
// discarded: status is a pure function of the ID and title comparisons, so
// running the decision chain locally is what makes the classification
// trustworthy and deterministic.
//
// The advisory author comparison keeps the reported counts and rationale
// (the boundary sees the actual name lists); only its match flag is
// re-derived from the counts.
func Recompute(reported types.VerificationResult) types.VerificationResult {
	in := Input{
		PDFID:      reported.IDComparison.PDFID,
		PDFVersion: reported.IDComparison.PDFVersion,

		HTMLID:      reported.IDComparison.HTMLID,
		HTMLVersion: reported.IDComparison.HTMLVersion,

		ScrapeID:      reported.IDComparison.ScrapeID,
		ScrapeVersion: reported.IDComparison.ScrapeVersion,

		APIID:      reported.IDComparison.APIID,
		APIVersion: reported.IDComparison.APIVersion,

		PDFTitle:  reported.TitleComparison.PDFTitle,
		HTMLTitle: reported.TitleComparison.HTMLTitle,
	}

	res := Verify(in)

	ac := reported.AuthorComparison
	ac.Match = ac.PDFCount == ac.APICount
	if ac.Rationale == "" && !ac.Match {
		ac.Rationale = "author counts differ between PDF and API"
	}
	res.AuthorComparison = ac

	return res
}
