// Package query builds and escapes fragments of the backend's search
// query grammar.
package query

import (
	"net/url"
	"strings"
)

// metacharacters carry syntactic meaning in the query grammar. The path
// separator is deliberately absent: the grammar treats "/" as a literal,
// and escaping it breaks repo and file clauses.
const metacharacters = `-\^$*+?.()|[]{}`

// Escape backslash-escapes query grammar metacharacters in a free-form
// fragment so it can be embedded in a clause literally.
func Escape(fragment string) string {
	var b strings.Builder
	b.Grow(len(fragment))
	for _, r := range fragment {
		if strings.ContainsRune(metacharacters, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DrilldownOpts names the parts of a result a follow-up query narrows to.
type DrilldownOpts struct {
	Repo     string
	Revision string // only meaningful with Repo
	File     string
}

// DrilldownClauses emits space-joined query clauses narrowing a search to a
// specific repository, revision and file, in the fixed order repo-then-file.
// The repository clause is anchored (r:^...$) so sibling repos with a common
// prefix do not match. Revisions are appended verbatim: their format is
// already constrained by the backend.
func DrilldownClauses(opts DrilldownOpts) string {
	var clauses []string
	if opts.Repo != "" {
		clause := "r:^" + Escape(opts.Repo) + "$"
		if opts.Revision != "" {
			clause += "@" + opts.Revision
		}
		clauses = append(clauses, clause)
	}
	if opts.File != "" {
		clauses = append(clauses, "f:"+Escape(opts.File))
	}
	return strings.Join(clauses, " ")
}

// BrowserURL returns the backend's web search URL for a full query. The
// query text goes in as-is (URL-encoded only): it is a complete query,
// not a fragment, so grammar escaping must not be applied.
func BrowserURL(baseInstanceURL, queryText string) (string, error) {
	u, err := url.Parse(baseInstanceURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/search"
	q := url.Values{}
	q.Set("q", queryText)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
