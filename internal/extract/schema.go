// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/apeiro/ace/internal/verify"
	"github.com/apeiro/ace/pkg/types"
)

// The model's response is a dynamically shaped JSON document; this file is
// its strongly typed mirror. Anything that fails validation is rejected as
// a schema violation, never silently coerced.

var validate = validator.New()

// responsePayload is the wire shape of one extraction response.
type responsePayload struct {
	Verification verificationPayload `json:"verification" validate:"required"`

	ArxivID         string `json:"arxivId" validate:"required"`
	DocumentArxivID string `json:"documentArxivId"`
	DocumentText    string `json:"documentText"`

	Title      string   `json:"title" validate:"required"`
	Keywords   []string `json:"keywords"`
	Categories []string `json:"categories"`

	// The affiliations and references keys must be present even when
	// empty; required rejects only their absence (a nil slice).
	Authors      []authorPayload      `json:"authors" validate:"required,min=1,dive"`
	Affiliations []affiliationPayload `json:"affiliations" validate:"required,dive"`

	Abstract   string             `json:"abstract" validate:"required"`
	References []referencePayload `json:"references" validate:"required,dive"`
}

type verificationPayload struct {
	Status  string `json:"status" validate:"required,oneof=SUCCESS SUMMARY_MISMATCHED VERSION_MISMATCHED MATCH_BY_TITLE AUTHOR_MISMATCH CHECK_REQUIRED"`
	Message string `json:"message"`

	IDComparison struct {
		PDFID         string `json:"pdfId"`
		PDFVersion    string `json:"pdfVersion"`
		HTMLID        string `json:"htmlId"`
		HTMLVersion   string `json:"htmlVersion"`
		ScrapeID      string `json:"scrapeId"`
		ScrapeVersion string `json:"scrapeVersion"`
		APIID         string `json:"apiId"`
		APIVersion    string `json:"apiVersion"`
		VersionMatch  bool   `json:"versionMatch"`
	} `json:"idComparison"`

	TitleComparison struct {
		PDFTitle   string `json:"pdfTitle"`
		HTMLTitle  string `json:"htmlTitle"`
		Match      bool   `json:"match"`
		SourceUsed string `json:"sourceUsed" validate:"omitempty,oneof=HTML PDF"`
	} `json:"titleComparison"`

	AuthorComparison struct {
		Match    bool   `json:"match"`
		Details  string `json:"details"`
		PDFCount int    `json:"pdfCount"`
		APICount int    `json:"apiCount"`
	} `json:"authorComparison"`
}

type authorPayload struct {
	FirstName          string `json:"firstName" validate:"required"`
	Surname            string `json:"surname" validate:"required"`
	Initials           string `json:"initials" validate:"required"`
	Suffix             string `json:"suffix"`
	Degree             string `json:"degree"`
	Email              string `json:"email"`
	ORCID              string `json:"orcid"`
	IsCorresponding    bool   `json:"isCorresponding"`
	AffiliationIndices []int  `json:"affiliationIndices"`
	Role               string `json:"role"`
	Alias              string `json:"alias"`
}

type affiliationPayload struct {
	ID            int      `json:"id"`
	Text          string   `json:"text" validate:"required"`
	Organizations []string `json:"organizations" validate:"required,min=1"`
	AddressPart   string   `json:"addressPart"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PostalCode    string   `json:"postalCode"`
	Country       string   `json:"country"`
	CountryCode   string   `json:"countryCode"`
}

type referencePayload struct {
	Text     string `json:"text" validate:"required"`
	FullText string `json:"fullText" validate:"required"`
}

// parseResponse decodes and validates the model's JSON output, then
// converts it into the domain record. The verification status is
// re-derived locally from the reported comparisons; the model's own claim
// is not trusted.
func parseResponse(data []byte, pdfText string) (*types.ExtractedMetadata, error) {
	var p responsePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %v", ErrSchemaViolation, err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	meta := &types.ExtractedMetadata{
		PaperID:      p.ArxivID,
		DocumentID:   p.DocumentArxivID,
		Title:        p.Title,
		Abstract:     p.Abstract,
		Keywords:     p.Keywords,
		Categories:   p.Categories,
		DocumentText: p.DocumentText,
	}

	meta.Affiliations = make([]types.Affiliation, len(p.Affiliations))
	for i, a := range p.Affiliations {
		meta.Affiliations[i] = types.Affiliation{
			SourceText:    a.Text,
			Organizations: a.Organizations,
			AddressPart:   a.AddressPart,
			City:          a.City,
			State:         a.State,
			PostalCode:    a.PostalCode,
			Country:       a.Country,
			CountryCode:   a.CountryCode,
		}
	}

	meta.Authors = make([]types.Author, len(p.Authors))
	for i, a := range p.Authors {
		meta.Authors[i] = types.Author{
			FirstName:       a.FirstName,
			Surname:         a.Surname,
			Initials:        a.Initials,
			Suffix:          a.Suffix,
			Degree:          a.Degree,
			Email:           a.Email,
			ORCID:           a.ORCID,
			IsCorresponding: a.IsCorresponding,
			AffiliationRefs: a.AffiliationIndices,
			Role:            a.Role,
			Alias:           a.Alias,
		}
	}
	if err := meta.ValidateRefs(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	meta.References = make([]types.Reference, len(p.References))
	for i, r := range p.References {
		meta.References[i] = types.Reference{SourceText: r.Text, ResolvedText: r.FullText}
	}

	meta.Verification = verify.Recompute(reportedVerification(p.Verification))
	if id := meta.Verification.AuthoritativeID; id != "" {
		meta.PaperID = id
	}
	if meta.DocumentText == "" {
		meta.DocumentText = pdfText
	}

	return meta, nil
}

// reportedVerification maps the wire verification block into the domain
// shape so the engine can re-derive the classification from it.
func reportedVerification(v verificationPayload) types.VerificationResult {
	return types.VerificationResult{
		Status:  types.VerificationStatus(v.Status),
		Message: v.Message,
		IDComparison: types.IDComparison{
			PDFID:         v.IDComparison.PDFID,
			PDFVersion:    v.IDComparison.PDFVersion,
			HTMLID:        v.IDComparison.HTMLID,
			HTMLVersion:   v.IDComparison.HTMLVersion,
			ScrapeID:      v.IDComparison.ScrapeID,
			ScrapeVersion: v.IDComparison.ScrapeVersion,
			APIID:         v.IDComparison.APIID,
			APIVersion:    v.IDComparison.APIVersion,
			VersionsAgree: v.IDComparison.VersionMatch,
		},
		TitleComparison: types.TitleComparison{
			PDFTitle:   v.TitleComparison.PDFTitle,
			HTMLTitle:  v.TitleComparison.HTMLTitle,
			Match:      v.TitleComparison.Match,
			SourceUsed: types.TitleSource(v.TitleComparison.SourceUsed),
		},
		AuthorComparison: types.AuthorComparison{
			Match:     v.AuthorComparison.Match,
			Rationale: v.AuthorComparison.Details,
			PDFCount:  v.AuthorComparison.PDFCount,
			APICount:  v.AuthorComparison.APICount,
		},
	}
}
