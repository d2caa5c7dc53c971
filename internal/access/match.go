// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package access

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/repo-access/internal/oaipmh"
)

var (
	queryPunct   = regexp.MustCompile(`['"()]`)
	boolOperator = regexp.MustCompile(`(?i)\s+(?:AND|OR)\s+`)
)

// QueryTerms lowercases query, strips quotes and parentheses, splits on
// AND/OR and whitespace, and keeps tokens longer than two characters that
// do not start with "-". Operator precedence and nesting are ignored.
func QueryTerms(query string) []string {
	q := queryPunct.ReplaceAllString(strings.ToLower(query), "")
	var terms []string
	for _, clause := range boolOperator.Split(q, -1) {
		for _, tok := range strings.Fields(clause) {
			if utf8.RuneCountInString(tok) > 2 && !strings.HasPrefix(tok, "-") {
				terms = append(terms, tok)
			}
		}
	}
	return terms
}

// MatchesQuery reports whether any query term occurs in the record's
// titles, descriptions or subjects, case-insensitively. A query without
// usable terms matches nothing.
func MatchesQuery(rec oaipmh.Record, query string) bool {
	return matchesTerms(rec, QueryTerms(query))
}

func matchesTerms(rec oaipmh.Record, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	var parts []string
	parts = append(parts, rec.Metadata.Title...)
	parts = append(parts, rec.Metadata.Description...)
	parts = append(parts, rec.Metadata.Subject...)
	text := strings.ToLower(strings.Join(parts, " "))
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
