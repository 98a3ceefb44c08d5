// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apeiro/ace/internal/httputil"
	"github.com/apeiro/ace/pkg/types"
)

// geminiAPIBase is the generative-language API endpoint prefix.
// Package-level var for test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// systemInstruction carries the extraction business rules. The response
// must be pure JSON matching the schema in schema.go.
const systemInstruction = `You are ACE (Apeiro Citation Extractor). Extract bibliographic metadata from academic papers and produce XML-ready JSON output. Adhere strictly to these rules.

1. ID & VERSION VERIFICATION:
   - Report the identifier and version suffix each source (PDF, HTML, scrape, API) shows, exactly as found, in idComparison.
   - If the PDF has no visible ID, compare the HTML title against the PDF title and report both in titleComparison.

2. TITLE:
   - HTML landing page is the authority for text content, punctuation, and hyphens.
   - If the HTML title uses LaTeX delimiters purely for bold/italic/math styling and the PDF title is the same content without them, the difference is a formatting artifact, not a content mismatch.
   - Remove 'Preprint', 'arXiv', and leading/trailing footnote symbols (*, †, ‡) that are not part of the meaning. Keep punctuation and chemical formulas. Replace complex equations with "(Formula presented)", figures with "(Figure presented)", tables with "(Table presented)".

3. ABSTRACT: capture from the PDF, including same-line continuations such as "Code available at...".

4. AUTHORS: when PDF and API author lists differ, prefer the more complete rendering; if the API lumps several names into one entry, split using the PDF. Map footnote symbols (†, ‡, §, ¶, ||, *, #) to affiliation indices. If an affiliation footnote contains an email belonging to an author, link that author to that affiliation. Scan footnotes, headers, and margins for ORCID identifiers (0000-XXXX-XXXX-XXXX).

5. EMAILS: capture as printed, removing angle brackets and trailing periods; reconstruct obfuscated forms ("name at gmail dot com"); one email per author.

6. CORRESPONDENCE: mark authors flagged by "Corresponding author", "All correspondence to", or symbols (*, envelope) as corresponding.

7. AFFILIATIONS: scan first-page footnotes, margins, and post-abstract blocks; split footnotes carrying several institutions into distinct entries; deconstruct each into organizations, address part, city, state, postal code, country, and a mandatory ISO 3-letter country code.

8. KEYWORDS: extract from "Keywords", "Key words", or "Index Terms" blocks, label stripped.

9. REFERENCES: capture every reference with both 'text' (as printed) and 'fullText' (resolved). Split lines carrying several citations; resolve "ibid." and underscore runs ("______,") against the previous entry in fullText while keeping the printed form in text; merge Roman/non-Roman doubles; strip superscript citation numbers; preserve diacritics.

Output pure JSON matching the response schema. No text outside the JSON object.`

// GeminiBackend calls the generative-language API for one extraction.
type GeminiBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobPart `json:"inlineData,omitempty"`
}

type geminiBlobPart struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Extract performs one extraction attempt. Failures are mapped onto the
// package error kinds so the Invoker can apply the retry policy.
func (g *GeminiBackend) Extract(ctx context.Context, req Request) (*types.ExtractedMetadata, error) {
	parts := buildParts(req)

	body := geminiRequest{
		Contents:          []geminiContent{{Role: "user", Parts: parts}},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		GenerationConfig: geminiGenConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.1,
		},
	}

	text, err := g.generate(ctx, body)
	if err != nil {
		return nil, err
	}

	return parseResponse([]byte(text), req.PDFText)
}

// buildParts assembles the request content exactly as the extraction
// contract expects: a supporting-data block first, then either the
// extracted PDF text inline or the raw PDF bytes as a second part.
func buildParts(req Request) []geminiPart {
	var prompt strings.Builder
	prompt.WriteString("Extract metadata from the following paper.\n\n")
	prompt.WriteString("--- SUPPORTING DATA ---\n")
	if req.ManualID != "" {
		fmt.Fprintf(&prompt, "MANUAL OVERRIDE ID: %s\n", req.ManualID)
	}
	if req.APIContent != "" {
		fmt.Fprintf(&prompt, "API METADATA (author name/sequence authority): %s\n", req.APIContent)
	}
	if req.HTMLContent != "" {
		fmt.Fprintf(&prompt, "HTML LANDING PAGE (title/abstract/ID authority): %s\n", req.HTMLContent)
	}
	if req.ScrapeContent != "" {
		fmt.Fprintf(&prompt, "SCRAPE DATA (critical ID/version source): %s\n", req.ScrapeContent)
	}
	prompt.WriteString("---------------------------------------------------\n\n")

	if req.PDFText != "" {
		prompt.WriteString("--- PRIMARY SOURCE (PDF TEXT EXTRACT) ---\n")
		prompt.WriteString(req.PDFText)
		return []geminiPart{{Text: prompt.String()}}
	}

	return []geminiPart{
		{Text: prompt.String()},
		{InlineData: &geminiBlobPart{
			MIMEType: "application/pdf",
			Data:     base64.StdEncoding.EncodeToString(req.PDFData),
		}},
	}
}

// generate posts one request and returns the first candidate's text.
func (g *GeminiBackend) generate(ctx context.Context, body geminiRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiAPIBase, g.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.APIKey)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, 0)
	if err != nil {
		return "", &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed geminiResponse
		if json.Unmarshal(data, &parsed) == nil {
			apiErr.Message = parsed.Error.Message
		}
		return "", apiErr
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: undecodable body", ErrEmptyResponse)
	}

	if parsed.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrSafetyRejected, parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	cand := parsed.Candidates[0]
	switch cand.FinishReason {
	case "SAFETY", "RECITATION":
		return "", fmt.Errorf("%w: finish reason %s", ErrSafetyRejected, cand.FinishReason)
	}

	var text strings.Builder
	for _, p := range cand.Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}
