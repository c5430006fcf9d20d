package domain

// PatternType selects how the backend interprets the query text.
type PatternType string

const (
	PatternLiteral    PatternType = "literal"
	PatternRegexp     PatternType = "regexp"
	PatternStructural PatternType = "structural"
)

// Match is the closed union of search hit variants. Every variant carries
// only the fields meaningful to it; dispatch code must handle each variant
// explicitly.
type Match interface {
	isMatch()
}

// RepoMatch is a hit on a repository itself.
type RepoMatch struct {
	Repository  string
	Description string
	Stars       int
	IsFork      bool
	IsArchived  bool
	IsPrivate   bool
}

// CommitMatch is a hit on a commit message.
type CommitMatch struct {
	Repository string
	Message    string
	AuthorName string
	AuthorDate string
	OID        string
}

// PathMatch is a hit on a file path.
type PathMatch struct {
	Repository string
	Path       string
	Commit     string
}

// LineMatch is one matching line within a ContentMatch.
type LineMatch struct {
	Line       string
	LineNumber int
}

// ContentMatch is a hit on file contents, with the matching lines.
type ContentMatch struct {
	Repository  string
	Path        string
	LineMatches []LineMatch
}

// SymbolOccurrence is one symbol within a SymbolMatch. URL is pre-resolved
// by the backend.
type SymbolOccurrence struct {
	Name          string
	ContainerName string
	Kind          string
	URL           string
}

// SymbolMatch is a hit on code symbols in a file.
type SymbolMatch struct {
	Repository string
	Path       string
	Symbols    []SymbolOccurrence
}

func (RepoMatch) isMatch()    {}
func (CommitMatch) isMatch()  {}
func (PathMatch) isMatch()    {}
func (ContentMatch) isMatch() {}
func (SymbolMatch) isMatch()  {}

// SearchResult pairs a match with its canonical URL on the backend.
// Immutable once produced by the stream.
type SearchResult struct {
	URL   string
	Match Match
}

// Suggestion is a backend hint about the query. A suggestion with a
// non-empty Query is actionable (its query can be appended to the current
// text); one without is informational only.
type Suggestion struct {
	Title       string
	Description string
	Query       string
}

// Actionable reports whether selecting the suggestion yields a query change.
func (s Suggestion) Actionable() bool { return s.Query != "" }

// Progress describes the latest known totals for a running search,
// not a delta.
type Progress struct {
	MatchCount int
	DurationMs float64
}

// Alert is a backend-issued non-fatal warning about the query.
type Alert struct {
	Title       string
	Description string
}
