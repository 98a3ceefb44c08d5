// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source turns input files into cases: it groups related files by
// paper identifier and reads their content into one extraction request.
package source

import (
	"path/filepath"
	"strings"

	"github.com/apeiro/ace/internal/arxivid"
	"github.com/apeiro/ace/pkg/types"
)

// GroupFiles buckets the given file paths by the paper identifier embedded
// in their names and returns one idle case per paper. Version suffixes are
// ignored for grouping, so 2405.12345v1.pdf and 2405.12345v2.html land in
// the same case. PDFs whose names carry no identifier become single-file
// cases under a random token; any other unidentifiable file is dropped.
func GroupFiles(paths []string) []*types.CaseRecord {
	grouped := make(map[string]*types.SourceSet)
	order := make([]string, 0, len(paths))
	var orphans []string

	for _, path := range paths {
		name := filepath.Base(path)
		id, ok := arxivid.Parse(name)
		if !ok {
			orphans = append(orphans, path)
			continue
		}

		set, seen := grouped[id.Base]
		if !seen {
			set = &types.SourceSet{}
			grouped[id.Base] = set
			order = append(order, id.Base)
		}
		assign(set, path, name)
	}

	cases := make([]*types.CaseRecord, 0, len(order)+len(orphans))
	for _, base := range order {
		cases = append(cases, &types.CaseRecord{
			ID:          base,
			DisplayName: base,
			Sources:     *grouped[base],
			Status:      types.CaseIdle,
		})
	}

	for _, path := range orphans {
		name := filepath.Base(path)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		cases = append(cases, &types.CaseRecord{
			ID:          arxivid.RandomToken(),
			DisplayName: strings.TrimSuffix(name, filepath.Ext(name)),
			Sources:     types.SourceSet{PDF: path},
			Status:      types.CaseIdle,
		})
	}

	return cases
}

// assign slots one file into the case's source set. Priority when names
// are ambiguous: extension first, then explicit scrape/api markers, then
// generic JSON as API data, then anything else as scrape data.
func assign(set *types.SourceSet, path, name string) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		set.PDF = path
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		set.HTML = path
	case strings.Contains(lower, "scrape"), strings.Contains(lower, "scraping"), strings.Contains(lower, "scrapping"):
		set.Scrape = path
	case strings.Contains(lower, "api"):
		set.API = path
	case strings.HasSuffix(lower, ".json"):
		// Generic JSON defaults to API data; a second one is scrape data.
		if set.API != "" {
			set.Scrape = path
		} else {
			set.API = path
		}
	default:
		if set.Scrape == "" {
			set.Scrape = path
		}
	}
}
