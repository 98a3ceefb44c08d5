// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify cross-checks a paper's identifier, title, and author list
// across the available sources and classifies the result.
//
// The engine is a pure function of its inputs: no I/O, no randomness, no
// mutation of case state. Callers feed it the per-source findings and store
// the returned result on the extracted record.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apeiro/ace/internal/arxivid"
	"github.com/apeiro/ace/pkg/types"
)

// Input carries the per-source findings for one paper. Empty strings mean
// the source was absent or did not report a value.
type Input struct {
	PDFID      string
	PDFVersion string

	HTMLID      string
	HTMLVersion string

	ScrapeID      string
	ScrapeVersion string

	APIID      string
	APIVersion string

	PDFTitle  string
	HTMLTitle string

	PDFAuthors []string
	APIAuthors []string
}

// source is one parsed identifier reading.
type source struct {
	name    string
	base    string
	version string // explicit suffix, possibly empty
}

// versionNum treats a missing suffix as version 1.
func (s source) versionNum() int {
	return arxivid.VersionNum(s.version)
}

// canonical renders the source's identifier with an explicit version.
func (s source) canonical() string {
	return fmt.Sprintf("%sv%d", s.base, s.versionNum())
}

// Verify runs the ordered decision chain and returns the classification.
// The rule order is the tie-break and must be preserved: base-ID agreement,
// then the missing-PDF-ID title exception, then version agreement.
func Verify(in Input) types.VerificationResult {
	sources := parseSources(in)

	res := types.VerificationResult{
		IDComparison:     idComparison(in, sources),
		TitleComparison:  compareTitles(in.PDFTitle, in.HTMLTitle),
		AuthorComparison: compareAuthors(in.PDFAuthors, in.APIAuthors),
	}

	// Rule 1: every source that reports an ID must agree on the base.
	if bases := distinctBases(sources); len(bases) > 1 {
		res.Status = types.VerifySummaryMismatched
		res.Message = "Base ID mismatch across sources."
		res.IDComparison.VersionsAgree = false
		res.AuthoritativeID = firstCanonical(sources)
		return res
	}

	// Rule 2: no PDF ID, but the HTML title vouches for the HTML ID.
	if in.PDFID == "" {
		if html, ok := findSource(sources, "html"); ok && titlesEquivalent(in.PDFTitle, in.HTMLTitle) {
			res.Status = types.VerifyMatchByTitle
			res.Message = "PDF carries no ID; HTML ID adopted by title match."
			res.IDComparison.VersionsAgree = true
			res.AuthoritativeID = html.canonical()
			return res
		}
	}

	// Rule 3: bases agree; versions must too. A missing suffix is v1.
	if disagree := versionDisagreement(sources); len(disagree) > 0 {
		res.Status = types.VerifyVersionMismatched
		res.Message = "Version mismatch: " + strings.Join(disagree, ", ")
		res.IDComparison.VersionsAgree = false
		res.AuthoritativeID = latestVersionID(sources)
		return res
	}

	res.Status = types.VerifySuccess
	res.Message = "Identifiers agree across all reporting sources."
	res.IDComparison.VersionsAgree = true
	res.AuthoritativeID = firstCanonical(sources)
	return res
}

// parseSources normalizes the raw per-source strings. A version suffix
// embedded in the ID itself ("2405.12345v1") wins over an empty explicit
// version field.
func parseSources(in Input) []source {
	raw := []struct {
		name, id, version string
	}{
		{"pdf", in.PDFID, in.PDFVersion},
		{"html", in.HTMLID, in.HTMLVersion},
		{"scrape", in.ScrapeID, in.ScrapeVersion},
		{"api", in.APIID, in.APIVersion},
	}

	var sources []source
	for _, r := range raw {
		if strings.TrimSpace(r.id) == "" {
			continue
		}
		base, embedded := arxivid.Split(r.id)
		version := strings.TrimSpace(r.version)
		if version == "" {
			version = embedded
		}
		sources = append(sources, source{name: r.name, base: base, version: version})
	}
	return sources
}

func findSource(sources []source, name string) (source, bool) {
	for _, s := range sources {
		if s.name == name {
			return s, true
		}
	}
	return source{}, false
}

func distinctBases(sources []source) []string {
	seen := make(map[string]bool)
	var bases []string
	for _, s := range sources {
		if !seen[s.base] {
			seen[s.base] = true
			bases = append(bases, s.base)
		}
	}
	return bases
}

// versionDisagreement returns "name=vN" entries when the sources do not all
// share one version number, or nil when they agree.
func versionDisagreement(sources []source) []string {
	nums := make(map[int]bool)
	for _, s := range sources {
		nums[s.versionNum()] = true
	}
	if len(nums) <= 1 {
		return nil
	}
	entries := make([]string, len(sources))
	for i, s := range sources {
		entries[i] = fmt.Sprintf("%s=v%d", s.name, s.versionNum())
	}
	return entries
}

// latestVersionID selects the authoritative ID on a version mismatch: the
// latest version found among HTML and scrape, falling back to the latest
// across all sources when neither reported one.
func latestVersionID(sources []source) string {
	candidates := make([]source, 0, len(sources))
	for _, s := range sources {
		if s.name == "html" || s.name == "scrape" {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		candidates = sources
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].versionNum() > candidates[j].versionNum()
	})
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0].canonical()
}

// firstCanonical picks the identifier in source priority order
// (pdf, html, scrape, api) for statuses where the sources agree, and as a
// best-effort value when they do not.
func firstCanonical(sources []source) string {
	if len(sources) == 0 {
		return ""
	}
	return sources[0].canonical()
}

func idComparison(in Input, sources []source) types.IDComparison {
	cmp := types.IDComparison{
		PDFID:         in.PDFID,
		PDFVersion:    in.PDFVersion,
		HTMLID:        in.HTMLID,
		HTMLVersion:   in.HTMLVersion,
		ScrapeID:      in.ScrapeID,
		ScrapeVersion: in.ScrapeVersion,
		APIID:         in.APIID,
		APIVersion:    in.APIVersion,
	}
	// Fill version fields from suffixes embedded in the IDs so the reviewer
	// sees what was actually compared.
	for _, s := range sources {
		if s.version == "" {
			continue
		}
		switch s.name {
		case "pdf":
			if cmp.PDFVersion == "" {
				cmp.PDFVersion = s.version
			}
		case "html":
			if cmp.HTMLVersion == "" {
				cmp.HTMLVersion = s.version
			}
		case "scrape":
			if cmp.ScrapeVersion == "" {
				cmp.ScrapeVersion = s.version
			}
		case "api":
			if cmp.APIVersion == "" {
				cmp.APIVersion = s.version
			}
		}
	}
	return cmp
}

// compareAuthors checks list lengths only. The result is advisory: it never
// changes the verification status.
func compareAuthors(pdf, api []string) types.AuthorComparison {
	cmp := types.AuthorComparison{
		PDFCount: len(pdf),
		APICount: len(api),
	}
	switch {
	case len(pdf) == len(api):
		cmp.Match = true
		cmp.Rationale = fmt.Sprintf("PDF and API agree on %d author(s)", len(pdf))
	case len(api) == 0:
		cmp.Rationale = "API source reported no authors"
	case len(api) < len(pdf):
		cmp.Rationale = "API lists fewer authors than PDF (possible lumped names)"
	default:
		cmp.Rationale = "PDF lists fewer authors than API (possible garbled PDF author block)"
	}
	return cmp
}
