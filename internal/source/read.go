// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/apeiro/ace/internal/extract"
	"github.com/apeiro/ace/pkg/types"
)

// Reader loads a case's files from disk into an extraction request.
type Reader struct {
	// MaxPDFPages caps how many pages of text are extracted per PDF.
	MaxPDFPages int

	// MinTextLength is the threshold below which the extracted text is
	// considered unusable and the raw PDF bytes are sent instead. Scanned
	// papers typically yield almost no text.
	MinTextLength int
}

// NewReader returns a Reader with the default limits.
func NewReader(cfg types.SourceConfig) *Reader {
	r := &Reader{MaxPDFPages: cfg.MaxPDFPages, MinTextLength: cfg.MinTextLength}
	if r.MaxPDFPages <= 0 {
		r.MaxPDFPages = 50
	}
	if r.MinTextLength <= 0 {
		r.MinTextLength = 500
	}
	return r
}

// ReadCase loads every available source file for the case. A missing or
// unreadable PDF fails the case; auxiliary files are best effort and a
// missing one simply leaves its slot empty.
func (r *Reader) ReadCase(c *types.CaseRecord) (extract.Request, error) {
	req := extract.Request{ManualID: c.ManualID}

	if c.Sources.PDF == "" {
		return req, extract.ErrSourceUnavailable
	}

	text, err := r.extractPDFText(c.Sources.PDF)
	if err != nil {
		return req, fmt.Errorf("%w: %s: %v", extract.ErrSourceUnavailable, c.Sources.PDF, err)
	}
	if utf8.RuneCountInString(text) >= r.MinTextLength {
		req.PDFText = text
	} else {
		// Not enough extractable text. Send the document itself.
		data, err := os.ReadFile(c.Sources.PDF)
		if err != nil {
			return req, fmt.Errorf("%w: %s: %v", extract.ErrSourceUnavailable, c.Sources.PDF, err)
		}
		req.PDFData = data
	}

	req.HTMLContent = readOptional(c.Sources.HTML)
	req.APIContent = readOptional(c.Sources.API)
	req.ScrapeContent = readOptional(c.Sources.Scrape)
	return req, nil
}

// extractPDFText walks the document page by page, marking page boundaries
// so the model can reason about first-page metadata.
func (r *Reader) extractPDFText(path string) (string, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := doc.NumPage()
	if pages > r.MaxPDFPages {
		pages = r.MaxPDFPages
	}

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n", i)
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func readOptional(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
