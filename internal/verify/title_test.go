package verify

import (
	"testing"

	"github.com/apeiro/ace/pkg/types"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Fast Learning", "fast learning"},
		{"surrounding space", "  Fast Learning \n", "fast learning"},
		{"dollar delimiters", "$z > 6$ quasars", "z > 6 quasars"},
		{"times command", `$5 \times 5$-graded algebras`, "5 x 5-graded algebras"},
		{"styling command", `\textit{ab initio} methods`, "ab initio methods"},
		{"collapsed whitespace", "deep   reinforcement\tlearning", "deep reinforcement learning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeTitle(tt.in); got != tt.want {
				t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompareTitlesCosmeticDifference(t *testing.T) {
	cmp := compareTitles("5 x 5-graded algebras", `$5 \times 5$-graded algebras`)
	if !cmp.Match {
		t.Fatal("styling-only difference reported as mismatch")
	}
	if cmp.SourceUsed != types.TitleFromPDF {
		t.Errorf("SourceUsed = %s, want PDF", cmp.SourceUsed)
	}
}

func TestCompareTitlesHTMLAuthorityByDefault(t *testing.T) {
	cmp := compareTitles("Fast Learning", "Fast Learning")
	if !cmp.Match {
		t.Fatal("identical titles reported as mismatch")
	}
	if cmp.SourceUsed != types.TitleFromHTML {
		t.Errorf("SourceUsed = %s, want HTML", cmp.SourceUsed)
	}
}

func TestCompareTitlesSubstantiveDifference(t *testing.T) {
	cmp := compareTitles("Fast Learning", "Slow Forgetting")
	if cmp.Match {
		t.Fatal("different titles reported as match")
	}
	if cmp.SourceUsed != types.TitleFromHTML {
		t.Errorf("SourceUsed = %s, want HTML (authority on substance)", cmp.SourceUsed)
	}
}

func TestCompareTitlesMissingSide(t *testing.T) {
	onlyPDF := compareTitles("Fast Learning", "")
	if onlyPDF.SourceUsed != types.TitleFromPDF || onlyPDF.Match {
		t.Errorf("pdf-only: %+v", onlyPDF)
	}
	onlyHTML := compareTitles("", "Fast Learning")
	if onlyHTML.SourceUsed != types.TitleFromHTML || onlyHTML.Match {
		t.Errorf("html-only: %+v", onlyHTML)
	}
}

func TestTitlesEquivalentCaseAndSpace(t *testing.T) {
	if !titlesEquivalent("FAST learning", " fast Learning ") {
		t.Error("case/space variants should be equivalent")
	}
	if titlesEquivalent("", "") {
		t.Error("two empty titles are not equivalent")
	}
}
