// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the repository access layer.
// Every access method (OAI-PMH, DSpace REST, HTML scraping, platform adapters)
// converges on SearchResult; every metadata lookup converges on DublinCore.
package types

// AccessMethod names the tier that produced a SearchResult.
type AccessMethod string

const (
	MethodOAIPMH      AccessMethod = "oai-pmh"
	MethodDSpaceREST  AccessMethod = "dspace-rest"
	MethodHTMLScraper AccessMethod = "html-scraper"
	MethodBDTD        AccessMethod = "bdtd-vufind"
	MethodSciELO      AccessMethod = "scielo-articlemeta"
	MethodUSP         AccessMethod = "usp-custom"
)

// SearchResult is the normalized record returned by every access method.
// It is created fresh per call and carries no persistent identity.
type SearchResult struct {
	// RepositoryID is the registry id of the repository that produced the record.
	RepositoryID string `json:"repository_id" yaml:"repository_id"`

	// RepositoryName is the human-readable repository name.
	RepositoryName string `json:"repository_name" yaml:"repository_name"`

	// Identifier is the source-native id (OAI identifier, DSpace UUID,
	// handle path, or platform record id).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the record title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Creators lists authors in source order.
	Creators []string `json:"creators" yaml:"creators"`

	// Description is the first abstract or description available.
	Description string `json:"description" yaml:"description"`

	// Date is the raw date string from the source (no normalization).
	Date string `json:"date" yaml:"date"`

	// Type is the document type (thesis, article, ...).
	Type string `json:"type" yaml:"type"`

	// URL is a landing page for the record.
	URL string `json:"url" yaml:"url"`

	DOI          string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	PDFURL       string   `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	DegreeType   string   `json:"degree_type,omitempty" yaml:"degree_type,omitempty"`
	Institution  string   `json:"institution,omitempty" yaml:"institution,omitempty"`
	State        string   `json:"state,omitempty" yaml:"state,omitempty"`
	Journal      string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	ISSN         string   `json:"issn,omitempty" yaml:"issn,omitempty"`
	SubjectAreas []string `json:"subject_areas,omitempty" yaml:"subject_areas,omitempty"`
	Language     string   `json:"language,omitempty" yaml:"language,omitempty"`

	// AccessMethod records which tier produced the record.
	AccessMethod AccessMethod `json:"access_method" yaml:"access_method"`
}

// SearchOptions narrows a search. Every field is optional; adapters use
// the fields their platform understands and ignore the rest.
type SearchOptions struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	DateFrom    string `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateUntil   string `json:"date_until,omitempty" yaml:"date_until,omitempty"`
	DegreeType  string `json:"degree_type,omitempty" yaml:"degree_type,omitempty"`
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`
	State       string `json:"state,omitempty" yaml:"state,omitempty"`
	SubjectArea string `json:"subject_area,omitempty" yaml:"subject_area,omitempty"`
	ISSN        string `json:"issn,omitempty" yaml:"issn,omitempty"`
	Set         string `json:"set,omitempty" yaml:"set,omitempty"`

	// MaxResults caps the number of results; zero means the caller's default.
	MaxResults int `json:"max_results,omitempty" yaml:"max_results,omitempty"`
}

// Limit returns MaxResults, or def when MaxResults is unset.
func (o SearchOptions) Limit(def int) int {
	if o.MaxResults > 0 {
		return o.MaxResults
	}
	return def
}

// DefaultMaxResults is the result cap when a caller sets none.
const DefaultMaxResults = 50
