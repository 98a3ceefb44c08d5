// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders an extracted record as an Elsevier ANI-style XML
// document. The document is built textually because the schema relies on
// namespace-prefixed elements (ce:initials, ce:source-text) that
// encoding/xml cannot marshal as prefixes.
//
// Output is deterministic: the same record always renders to the same
// bytes, so re-exporting an unchanged case is a no-op for consumers.
package export

import (
	"fmt"
	"strings"

	"github.com/apeiro/ace/pkg/types"
)

const xmlHeader = `<?xml version='1.0' encoding='utf-8'?>`

// XML renders the record as one `<units>` document with a single ARTICLE
// unit. The affiliation references must be valid; an out-of-range index is
// an error rather than a silently dropped author.
func XML(meta *types.ExtractedMetadata) ([]byte, error) {
	if meta == nil {
		return nil, fmt.Errorf("export: nil record")
	}
	if err := meta.ValidateRefs(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var b strings.Builder
	b.WriteString(xmlHeader + "\n")
	b.WriteString(`<units xmlns="http://www.elsevier.com/xml/ani/ani" xmlns:ce="http://www.elsevier.com/xml/ani/common">` + "\n")
	b.WriteString("  <unit type=\"ARTICLE\">\n")
	writeUnitInfo(&b)
	b.WriteString("    <unit-content>\n")
	b.WriteString("      <bibrecord>\n")
	writeItemInfo(&b, meta)
	writeHead(&b, meta)
	writeTail(&b, meta)
	b.WriteString("      </bibrecord>\n")
	b.WriteString("    </unit-content>\n")
	b.WriteString("  </unit>\n")
	b.WriteString("</units>\n")
	return []byte(b.String()), nil
}

// writeUnitInfo emits the fixed delivery identifiers. No timestamp is
// included so the output stays byte-stable across exports.
func writeUnitInfo(b *strings.Builder) {
	b.WriteString("    <unit-info>\n")
	b.WriteString("      <unit-id>1</unit-id>\n")
	b.WriteString("      <order-id>unknown</order-id>\n")
	b.WriteString("      <parcel-id>none</parcel-id>\n")
	b.WriteString("      <supplier-id>4</supplier-id>\n")
	b.WriteString("    </unit-info>\n")
}

func writeItemInfo(b *strings.Builder, meta *types.ExtractedMetadata) {
	id := meta.PaperID
	if id == "" {
		id = "UNKNOWN"
	}
	b.WriteString("        <item-info>\n")
	b.WriteString("          <status state=\"new\"/>\n")
	b.WriteString("          <itemidlist>\n")
	fmt.Fprintf(b, "            <itemid idtype=\"ARXIV\">%s</itemid>\n", esc(id))
	b.WriteString("          </itemidlist>\n")
	b.WriteString("        </item-info>\n")
}

func writeHead(b *strings.Builder, meta *types.ExtractedMetadata) {
	b.WriteString("        <head>\n")

	b.WriteString("          <citation-info>\n")
	b.WriteString("            <citation-type code=\"ar\"/>\n")
	b.WriteString("            <citation-language xml:lang=\"ENG\"/>\n")
	b.WriteString("            <abstract-language xml:lang=\"ENG\"/>\n")
	if len(meta.Keywords) > 0 {
		b.WriteString("            <author-keywords>\n")
		for _, k := range meta.Keywords {
			fmt.Fprintf(b, "              <author-keyword>%s</author-keyword>\n", esc(k))
		}
		b.WriteString("            </author-keywords>\n")
	}
	b.WriteString("          </citation-info>\n")

	b.WriteString("          <citation-title>\n")
	fmt.Fprintf(b, "            <titletext xml:lang=\"ENG\" original=\"y\">%s</titletext>\n", esc(meta.Title))
	b.WriteString("          </citation-title>\n")

	writeAuthorGroups(b, meta)
	writeCorrespondence(b, meta)

	b.WriteString("          <abstracts>\n")
	b.WriteString("            <abstract original=\"y\" xml:lang=\"ENG\">\n")
	fmt.Fprintf(b, "              <ce:para>%s</ce:para>\n", esc(meta.Abstract))
	b.WriteString("            </abstract>\n")
	b.WriteString("          </abstracts>\n")
	b.WriteString("          <source srcid=\"???\"/>\n")

	b.WriteString("        </head>\n")
}

// writeAuthorGroups emits one author-group per affiliation carrying the
// authors linked to it. Author seq is the author's global position in the
// record, so the same author keeps the same seq in every group. Authors
// linked to no affiliation land in a trailing group without one.
func writeAuthorGroups(b *strings.Builder, meta *types.ExtractedMetadata) {
	groupSeq := 0
	for affIdx, aff := range meta.Affiliations {
		linked := linkedAuthors(meta.Authors, affIdx)
		if len(linked) == 0 {
			continue
		}
		groupSeq++
		fmt.Fprintf(b, "          <author-group seq=\"%d\">\n", groupSeq)
		for _, pos := range linked {
			writeAuthor(b, meta.Authors[pos], pos+1)
		}
		writeAffiliation(b, aff, true)
		b.WriteString("          </author-group>\n")
	}

	orphans := meta.OrphanAuthors()
	if len(orphans) > 0 {
		groupSeq++
		fmt.Fprintf(b, "          <author-group seq=\"%d\">\n", groupSeq)
		for _, pos := range orphans {
			writeAuthor(b, meta.Authors[pos], pos+1)
		}
		b.WriteString("          </author-group>\n")
	}
}

func linkedAuthors(authors []types.Author, affIdx int) []int {
	var linked []int
	for i, a := range authors {
		for _, ref := range a.AffiliationRefs {
			if ref == affIdx {
				linked = append(linked, i)
				break
			}
		}
	}
	return linked
}

func writeAuthor(b *strings.Builder, a types.Author, seq int) {
	attrs := fmt.Sprintf(" seq=\"%d\"", seq)
	if a.ORCID != "" {
		attrs += fmt.Sprintf(" orcid=\"%s\"", esc(a.ORCID))
	}
	if a.IsCorresponding {
		attrs += " type=\"corresp\""
	}
	fmt.Fprintf(b, "            <author%s>\n", attrs)
	writeOpt(b, "ce:initials", a.Initials, "              ")
	writeOpt(b, "ce:surname", a.Surname, "              ")
	writeOpt(b, "ce:given-name", a.FirstName, "              ")
	writeOpt(b, "ce:suffix", a.Suffix, "              ")
	writeOpt(b, "ce:degrees", a.Degree, "              ")
	writeOpt(b, "ce:e-address", a.Email, "              ")
	b.WriteString("            </author>\n")
}

// writeAffiliation renders the institution block. The source text is only
// carried inside author groups, not in correspondence.
func writeAffiliation(b *strings.Builder, aff types.Affiliation, withSource bool) {
	b.WriteString("            <affiliation>\n")
	if len(aff.Organizations) > 0 {
		for _, org := range aff.Organizations {
			fmt.Fprintf(b, "              <organization>%s</organization>\n", esc(org))
		}
	} else {
		// Fall back to the first comma-separated segment of the raw text.
		org, _, _ := strings.Cut(aff.SourceText, ",")
		fmt.Fprintf(b, "              <organization>%s</organization>\n", esc(strings.TrimSpace(org)))
	}
	writeOpt(b, "address-part", aff.AddressPart, "              ")
	writeOpt(b, "city", aff.City, "              ")
	writeOpt(b, "state", aff.State, "              ")
	writeOpt(b, "postal-code", aff.PostalCode, "              ")
	if aff.CountryCode != "" {
		fmt.Fprintf(b, "              <country iso-code=\"%s\"/>\n", esc(aff.CountryCode))
	} else {
		writeOpt(b, "country", aff.Country, "              ")
	}
	if withSource {
		writeOpt(b, "ce:source-text", aff.SourceText, "              ")
	}
	b.WriteString("            </affiliation>\n")
}

func writeCorrespondence(b *strings.Builder, meta *types.ExtractedMetadata) {
	for _, a := range meta.Authors {
		if !a.IsCorresponding {
			continue
		}
		b.WriteString("          <correspondence>\n")
		b.WriteString("            <person>\n")
		writeOpt(b, "ce:initials", a.Initials, "              ")
		writeOpt(b, "ce:surname", a.Surname, "              ")
		writeOpt(b, "ce:given-name", a.FirstName, "              ")
		writeOpt(b, "ce:suffix", a.Suffix, "              ")
		b.WriteString("            </person>\n")
		if len(a.AffiliationRefs) > 0 {
			writeAffiliation(b, meta.Affiliations[a.AffiliationRefs[0]], false)
		}
		writeOpt(b, "ce:e-address", a.Email, "            ")
		b.WriteString("          </correspondence>\n")
	}
}

func writeTail(b *strings.Builder, meta *types.ExtractedMetadata) {
	b.WriteString("        <tail>\n")
	fmt.Fprintf(b, "          <bibliography refcount=\"%d\">\n", len(meta.References))
	for i, ref := range meta.References {
		resolved := ref.ResolvedText
		if resolved == "" {
			resolved = ref.SourceText
		}
		fmt.Fprintf(b, "            <reference seq=\"%d\">\n", i+1)
		b.WriteString("              <ref-info/>\n")
		fmt.Fprintf(b, "              <ref-fulltext>%s</ref-fulltext>\n", esc(resolved))
		fmt.Fprintf(b, "              <ce:source-text>%s</ce:source-text>\n", esc(ref.SourceText))
		b.WriteString("            </reference>\n")
	}
	b.WriteString("          </bibliography>\n")
	b.WriteString("        </tail>\n")
}

func writeOpt(b *strings.Builder, tag, content, indent string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	fmt.Fprintf(b, "%s<%s>%s</%s>\n", indent, tag, esc(content), tag)
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func esc(s string) string {
	return escaper.Replace(s)
}
