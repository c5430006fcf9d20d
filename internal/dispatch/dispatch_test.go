package dispatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesurf/internal/domain"
)

// allVariants covers every member of the match union. Adding a variant to
// the union without extending this list (and Summarize) should be caught
// by TestSummarizeHandlesEveryVariant.
var allVariants = []domain.Match{
	domain.RepoMatch{Repository: "github.com/a/b"},
	domain.CommitMatch{Repository: "github.com/a/b", Message: "fix"},
	domain.PathMatch{Repository: "github.com/a/b", Path: "x.go"},
	domain.ContentMatch{Repository: "github.com/a/b", Path: "x.go",
		LineMatches: []domain.LineMatch{{Line: "l", LineNumber: 1}}},
	domain.SymbolMatch{Repository: "github.com/a/b", Path: "x.go",
		Symbols: []domain.SymbolOccurrence{{Name: "Foo"}}},
}

func TestSummarizeHandlesEveryVariant(t *testing.T) {
	for _, m := range allVariants {
		assert.NotPanics(t, func() {
			s := Summarize(m)
			assert.NotEmpty(t, s.Title)
		}, "variant %T", m)
	}
}

func TestSummarizeRepo(t *testing.T) {
	s := Summarize(domain.RepoMatch{
		Repository:  "github.com/a/b",
		Description: "a fine repo",
		Stars:       412,
	})
	assert.Equal(t, "github.com/a/b", s.Title)
	assert.Equal(t, "a fine repo", s.Subtitle)
	assert.Equal(t, "412", s.Accessory)
	assert.Equal(t, IconRepo, s.Icon)
}

func TestSummarizeRepoNoStars(t *testing.T) {
	s := Summarize(domain.RepoMatch{Repository: "github.com/a/b"})
	assert.Empty(t, s.Accessory)
	assert.Empty(t, s.Subtitle)
}

func TestRepoIconFacets(t *testing.T) {
	tests := []struct {
		name string
		m    domain.RepoMatch
		want Icon
	}{
		{"plain", domain.RepoMatch{}, IconRepo},
		{"fork", domain.RepoMatch{IsFork: true}, IconRepoFork},
		{"archived", domain.RepoMatch{IsArchived: true}, IconRepoArchived},
		{"private", domain.RepoMatch{IsPrivate: true}, IconRepoPrivate},
		// Archived wins over fork when both are set.
		{"archived fork", domain.RepoMatch{IsFork: true, IsArchived: true}, IconRepoArchived},
		{"private fork", domain.RepoMatch{IsFork: true, IsPrivate: true}, IconRepoFork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.m).Icon)
		})
	}
}

func TestSummarizeCommitKeepsRawDate(t *testing.T) {
	s := Summarize(domain.CommitMatch{
		Message:    "fix the thing",
		AuthorDate: "2024-05-01T10:00:00Z",
	})
	assert.Equal(t, "fix the thing", s.Title)
	assert.Equal(t, "2024-05-01T10:00:00Z", s.Subtitle)
}

func TestSummarizePath(t *testing.T) {
	s := Summarize(domain.PathMatch{Path: "internal/query/query.go"})
	assert.Equal(t, "internal/query/query.go", s.Title)
	assert.Empty(t, s.Subtitle)
}

func TestSummarizeContentJoinsTrimmedLines(t *testing.T) {
	s := Summarize(domain.ContentMatch{
		Path: "main.go",
		LineMatches: []domain.LineMatch{
			{Line: "  func main() {", LineNumber: 10},
			{Line: "\tfmt.Println()  ", LineNumber: 11},
		},
	})
	assert.Equal(t, "func main() { ... fmt.Println()", s.Title)
	assert.Equal(t, "main.go", s.Subtitle)
}

func TestSummarizeSymbolJoinsNames(t *testing.T) {
	s := Summarize(domain.SymbolMatch{
		Path: "x.go",
		Symbols: []domain.SymbolOccurrence{
			{Name: "Foo", ContainerName: "pkg"},
			{Name: "Bar"},
		},
	})
	assert.Equal(t, "Foo, Bar", s.Title)
	assert.Equal(t, "x.go", s.Subtitle)
}

func TestDetailKindOf(t *testing.T) {
	for _, m := range allVariants {
		kind := DetailKindOf(m)
		switch m.(type) {
		case domain.ContentMatch, domain.SymbolMatch:
			assert.Equal(t, KindMulti, kind, "%T", m)
		default:
			assert.Equal(t, KindMarkdown, kind, "%T", m)
		}
	}
}

func TestSubItemsContentLineAnchorSortsFirst(t *testing.T) {
	result := domain.SearchResult{
		URL: "https://sg.example.com/github.com/a/b/-/blob/x.go?rev=main&utm=z",
		Match: domain.ContentMatch{
			Path: "x.go",
			LineMatches: []domain.LineMatch{
				{Line: "  hit one ", LineNumber: 42},
				{Line: "hit two", LineNumber: 99},
			},
		},
	}
	items, err := SubItems(result)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "hit one", items[0].Title)
	u := items[0].URL
	// The anchor parameter must come before every other query parameter.
	idx := strings.Index(u, "?")
	require.Positive(t, idx)
	assert.True(t, strings.HasPrefix(u[idx+1:], "L42&"), "got %q", u)
	assert.Contains(t, u, "rev=main")
	assert.Contains(t, u, "utm=z")

	assert.Contains(t, items[1].URL, "?L99")
}

func TestSubItemsContentParentWithoutQuery(t *testing.T) {
	result := domain.SearchResult{
		URL: "https://sg.example.com/a/b/-/blob/x.go",
		Match: domain.ContentMatch{
			LineMatches: []domain.LineMatch{{Line: "l", LineNumber: 7}},
		},
	}
	items, err := SubItems(result)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, strings.HasSuffix(items[0].URL, "?L7"), "got %q", items[0].URL)
}

func TestSubItemsSymbolUsesPreResolvedURL(t *testing.T) {
	result := domain.SearchResult{
		URL: "https://sg.example.com/a/b/-/blob/x.go",
		Match: domain.SymbolMatch{
			Symbols: []domain.SymbolOccurrence{
				{Name: "Foo", ContainerName: "pkg", URL: "https://sg.example.com/sym/foo"},
			},
		},
	}
	items, err := SubItems(result)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Foo", items[0].Title)
	assert.Equal(t, "pkg", items[0].Subtitle)
	assert.Equal(t, "https://sg.example.com/sym/foo", items[0].URL)
}

func TestSubItemsSingleEntityMatches(t *testing.T) {
	items, err := SubItems(domain.SearchResult{
		URL:   "https://sg.example.com/a/b",
		Match: domain.RepoMatch{Repository: "a/b"},
	})
	require.NoError(t, err)
	assert.Nil(t, items)
}
