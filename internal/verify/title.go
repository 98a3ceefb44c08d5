// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"regexp"
	"strings"

	"github.com/apeiro/ace/pkg/types"
)

// Landing pages italicize or bold title fragments with inline math markup
// that the PDF renders as plain text. Those delimiters are styling noise:
// two titles that differ only by them are the same title, and in that one
// case the PDF rendering is preferred over the usual HTML authority.

// stylingCmdRe matches LaTeX styling commands whose braces wrap otherwise
// plain text, e.g. \textit{graded} or \mathrm{CO_2}.
var stylingCmdRe = regexp.MustCompile(`\\(?:textit|textbf|texttt|text|emph|mathrm|mathbf|mathit)\{([^{}]*)\}`)

// spaceRe collapses whitespace runs left behind by delimiter stripping.
var spaceRe = regexp.MustCompile(`\s+`)

// mathDelims are the tokens stripped by normalization.
var mathDelims = []string{"$", `\(`, `\)`, `\[`, `\]`, "{", "}"}

// normalizeTitle reduces a title to its comparison form: case-folded,
// trimmed, styling commands unwrapped, math delimiters stripped, \times
// mapped to its plain-text form, and whitespace collapsed.
func normalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = stylingCmdRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, `\times`, " x ")
	for _, d := range mathDelims {
		s = strings.ReplaceAll(s, d, " ")
	}
	// Delimiter stripping leaves stray spaces next to punctuation joins
	// like "$5 \times 5$-graded".
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, " -", "-")
	s = strings.ReplaceAll(s, "- ", "-")
	return strings.TrimSpace(s)
}

// hasMathStyling reports whether a title carries inline math markup.
func hasMathStyling(s string) bool {
	if strings.Contains(s, "$") || strings.Contains(s, `\(`) || strings.Contains(s, `\[`) {
		return true
	}
	return stylingCmdRe.MatchString(s)
}

// titlesEquivalent reports whether two titles are the same under
// normalization. Both must be non-empty.
func titlesEquivalent(pdfTitle, htmlTitle string) bool {
	if strings.TrimSpace(pdfTitle) == "" || strings.TrimSpace(htmlTitle) == "" {
		return false
	}
	return normalizeTitle(pdfTitle) == normalizeTitle(htmlTitle)
}

// compareTitles applies the title-authority sub-rule. HTML is authoritative
// for punctuation and spelling by default; when the HTML title differs from
// the PDF title only by math-styling delimiters, the PDF title is preferred
// and the match is still recorded as true, since the difference is cosmetic.
func compareTitles(pdfTitle, htmlTitle string) types.TitleComparison {
	cmp := types.TitleComparison{
		PDFTitle:   pdfTitle,
		HTMLTitle:  htmlTitle,
		SourceUsed: types.TitleFromHTML,
	}

	switch {
	case strings.TrimSpace(htmlTitle) == "":
		cmp.SourceUsed = types.TitleFromPDF
		return cmp
	case strings.TrimSpace(pdfTitle) == "":
		return cmp
	}

	cmp.Match = titlesEquivalent(pdfTitle, htmlTitle)
	if cmp.Match && pdfTitle != htmlTitle && hasMathStyling(htmlTitle) && !hasMathStyling(pdfTitle) {
		cmp.SourceUsed = types.TitleFromPDF
	}
	return cmp
}
