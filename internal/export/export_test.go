// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apeiro/ace/pkg/types"
)

func sampleRecord() *types.ExtractedMetadata {
	return &types.ExtractedMetadata{
		PaperID:  "2405.12345v2",
		Title:    "Graphs & Matchings",
		Abstract: "We study matchings.",
		Keywords: []string{"graphs", "matchings"},
		Authors: []types.Author{
			{
				FirstName:       "Ada",
				Surname:         "Lovelace",
				Initials:        "A.",
				Email:           "ada@example.org",
				ORCID:           "0000-0001-2345-6789",
				IsCorresponding: true,
				AffiliationRefs: []int{0},
			},
			{
				FirstName:       "Kurt",
				Surname:         "Godel",
				Initials:        "K.",
				AffiliationRefs: []int{0, 1},
			},
			{
				FirstName: "Emmy",
				Surname:   "Noether",
				Initials:  "E.",
			},
		},
		Affiliations: []types.Affiliation{
			{
				SourceText:    "Dept. of Mathematics, Example University, London, UK",
				Organizations: []string{"Example University"},
				City:          "London",
				Country:       "United Kingdom",
				CountryCode:   "GBR",
			},
			{
				SourceText:    "Institute for Advanced Study, Princeton, NJ, USA",
				Organizations: []string{"Institute for Advanced Study"},
				City:          "Princeton",
				State:         "NJ",
				CountryCode:   "USA",
			},
		},
		References: []types.Reference{
			{SourceText: "[1] ibid.", ResolvedText: "A. Turing, Computing machinery and intelligence, Mind 59 (1950)."},
			{SourceText: "[2] E. Noether, Idealtheorie in Ringbereichen."},
		},
	}
}

func TestXMLDeterministic(t *testing.T) {
	meta := sampleRecord()
	first, err := XML(meta)
	if err != nil {
		t.Fatal(err)
	}
	second, err := XML(meta)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("same record must render byte-identical output")
	}
}

func TestXMLStructure(t *testing.T) {
	out, err := XML(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)

	for _, want := range []string{
		`<?xml version='1.0' encoding='utf-8'?>`,
		`<unit type="ARTICLE">`,
		`<itemid idtype="ARXIV">2405.12345v2</itemid>`,
		`<titletext xml:lang="ENG" original="y">Graphs &amp; Matchings</titletext>`,
		`<author-keyword>graphs</author-keyword>`,
		`<country iso-code="GBR"/>`,
		`<ce:e-address>ada@example.org</ce:e-address>`,
		`<bibliography refcount="2">`,
		`<ref-fulltext>A. Turing, Computing machinery and intelligence, Mind 59 (1950).</ref-fulltext>`,
		`<ce:source-text>[1] ibid.</ce:source-text>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("output missing %s", want)
		}
	}

	if !strings.Contains(doc, `orcid="0000-0001-2345-6789"`) {
		t.Error("orcid attribute missing")
	}
	if !strings.Contains(doc, `type="corresp"`) {
		t.Error("corresponding author marker missing")
	}
}

func TestXMLAuthorSequencing(t *testing.T) {
	out, err := XML(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)

	// Godel is author 2 globally and appears in both affiliation groups
	// with the same seq.
	if strings.Count(doc, `<author seq="2"`) != 2 {
		t.Errorf("author seq 2 should appear in two groups:\n%s", doc)
	}
	// Noether has no affiliation so she lands in a trailing group as seq 3.
	if !strings.Contains(doc, `<author seq="3"`) {
		t.Error("orphan author missing from output")
	}
	if !strings.Contains(doc, `<author-group seq="3">`) {
		t.Error("expected a third, unaffiliated author group")
	}
}

func TestXMLOrphanGroupOmittedWhenAllLinked(t *testing.T) {
	meta := sampleRecord()
	meta.Authors = meta.Authors[:2]
	out, err := XML(meta)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), `<author-group seq="3">`) {
		t.Error("no unaffiliated group expected when every author is linked")
	}
}

func TestXMLEmptyAffiliationFallsBackToSourceText(t *testing.T) {
	meta := sampleRecord()
	meta.Affiliations[0].Organizations = nil
	out, err := XML(meta)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `<organization>Dept. of Mathematics</organization>`) {
		t.Error("expected organization fallback from source text")
	}
}

func TestXMLUnknownID(t *testing.T) {
	meta := sampleRecord()
	meta.PaperID = ""
	out, err := XML(meta)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `<itemid idtype="ARXIV">UNKNOWN</itemid>`) {
		t.Error("missing ID should render as UNKNOWN")
	}
}

func TestXMLRejectsBrokenRefs(t *testing.T) {
	meta := sampleRecord()
	meta.Authors[0].AffiliationRefs = []int{9}
	if _, err := XML(meta); err == nil {
		t.Fatal("out-of-range affiliation reference must be rejected")
	}
}

func TestXMLNoTimestamp(t *testing.T) {
	out, err := XML(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "<timestamp>") {
		t.Error("output must not embed wall-clock time")
	}
}
