// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Author is one entry in a paper's author list.
type Author struct {
	// FirstName is the author's given name.
	FirstName string `json:"first_name" yaml:"first_name"`

	// Surname is the author's family name.
	Surname string `json:"surname" yaml:"surname"`

	// Initials are the author's initials as printed (e.g. "J.R.").
	Initials string `json:"initials" yaml:"initials"`

	// Suffix is a generational suffix such as "Jr." or "III".
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`

	// Degree is an academic degree attached to the name (e.g. "PhD").
	Degree string `json:"degree,omitempty" yaml:"degree,omitempty"`

	// Email is the author's contact address, cleaned per extraction rules.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// ORCID is the author's ORCID identifier (0000-XXXX-XXXX-XXXX).
	ORCID string `json:"orcid,omitempty" yaml:"orcid,omitempty"`

	// IsCorresponding marks the corresponding author.
	IsCorresponding bool `json:"is_corresponding,omitempty" yaml:"is_corresponding,omitempty"`

	// AffiliationRefs holds zero-based indices into the affiliations list.
	// Index references, not pointers: affiliations are immutable once
	// extracted and the index is the serializable foreign key.
	AffiliationRefs []int `json:"affiliation_refs" yaml:"affiliation_refs"`

	// Role notes a collective role (e.g. "Collaboration").
	Role string `json:"role,omitempty" yaml:"role,omitempty"`

	// Alias is an alternate rendering of the name, when the sources differ.
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Affiliation is one institution block referenced by authors via index.
type Affiliation struct {
	// SourceText is the full affiliation text as it appears in the paper.
	SourceText string `json:"source_text" yaml:"source_text"`

	// Organizations lists the institutional units, outermost last
	// (e.g. ["Department of Physics", "University of Milan"]).
	Organizations []string `json:"organizations" yaml:"organizations"`

	// AddressPart is the street or building portion of the address.
	AddressPart string `json:"address_part,omitempty" yaml:"address_part,omitempty"`

	City       string `json:"city,omitempty" yaml:"city,omitempty"`
	State      string `json:"state,omitempty" yaml:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`

	// CountryCode is the ISO 3-letter country code.
	CountryCode string `json:"country_code,omitempty" yaml:"country_code,omitempty"`
}

// Reference is one bibliography entry, carrying both the text as printed
// and the resolved form (underscore runs and "ibid." expanded).
type Reference struct {
	// SourceText is the reference as it appears in the paper
	// (e.g. "______, et al.").
	SourceText string `json:"source_text" yaml:"source_text"`

	// ResolvedText is the fully resolved reference
	// (e.g. "Smith, J., et al.").
	ResolvedText string `json:"resolved_text" yaml:"resolved_text"`
}

// ExtractedMetadata is the verified bibliographic record for one paper,
// as returned by the extraction boundary and annotated by verification.
type ExtractedMetadata struct {
	// PaperID is the final validated identifier with version
	// (e.g. "2501.12345v1"), selected by the verification engine.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// DocumentID is the identifier found in the document text itself,
	// when one was located.
	DocumentID string `json:"document_id,omitempty" yaml:"document_id,omitempty"`

	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`

	// Keywords are the paper's author keywords, label stripped.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Categories are subject classifications (e.g. "cs.CV").
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	Authors      []Author      `json:"authors" yaml:"authors"`
	Affiliations []Affiliation `json:"affiliations" yaml:"affiliations"`
	References   []Reference   `json:"references" yaml:"references"`

	// Verification is always present once extraction succeeds.
	Verification VerificationResult `json:"verification" yaml:"verification"`

	// DocumentText is the raw text extracted from the PDF, retained as
	// context for the chat boundary.
	DocumentText string `json:"document_text,omitempty" yaml:"document_text,omitempty"`
}

// ValidateRefs checks that every author affiliation reference is in range.
// Out-of-range indices would corrupt the author-group linkage in export.
func (m *ExtractedMetadata) ValidateRefs() error {
	for i, a := range m.Authors {
		for _, ref := range a.AffiliationRefs {
			if ref < 0 || ref >= len(m.Affiliations) {
				return fmt.Errorf("author %d (%s %s): affiliation index %d out of range [0,%d)",
					i, a.FirstName, a.Surname, ref, len(m.Affiliations))
			}
		}
	}
	return nil
}

// OrphanAuthors returns the indices of authors with no affiliation
// references. Orphans are exported in a final unaffiliated author group.
func (m *ExtractedMetadata) OrphanAuthors() []int {
	var orphans []int
	for i, a := range m.Authors {
		if len(a.AffiliationRefs) == 0 {
			orphans = append(orphans, i)
		}
	}
	return orphans
}
