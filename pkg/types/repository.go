// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// PlatformKind selects the adapter family used for a repository. It is
// resolved once when the registry is loaded and never re-derived from
// ids or hostnames at call time.
type PlatformKind string

const (
	// KindGeneric repositories go through the OAI-PMH / REST / scraper cascade.
	KindGeneric PlatformKind = "generic"

	// KindBDTD is the VuFind-based national theses aggregator.
	KindBDTD PlatformKind = "bdtd"

	// KindSciELO is the identifier-only ArticleMeta aggregator.
	KindSciELO PlatformKind = "scielo"

	// KindUSP is the legacy result.php institutional search.
	KindUSP PlatformKind = "usp"
)

// Institution describes the organisation that runs a repository.
type Institution struct {
	Name    string `json:"name" yaml:"name"`
	Acronym string `json:"acronym,omitempty" yaml:"acronym,omitempty"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
}

// OAIPMHAccess is the declared OAI-PMH capability of a repository.
type OAIPMHAccess struct {
	Available bool   `json:"available" yaml:"available"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Verified  bool   `json:"verified,omitempty" yaml:"verified,omitempty"`
}

// RESTAccess is the declared REST capability of a repository.
type RESTAccess struct {
	Available bool   `json:"available" yaml:"available"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Version   int    `json:"version,omitempty" yaml:"version,omitempty"`
}

// RepositoryEntry is the static descriptor of one repository. Entries are
// owned by the registry and never mutated by the access layer.
type RepositoryEntry struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	BaseURL     string       `json:"url" yaml:"url"`
	Platform    string       `json:"platform" yaml:"platform"`
	ContentType string       `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Institution Institution  `json:"institution" yaml:"institution"`
	OAIPMH      OAIPMHAccess `json:"oai_pmh" yaml:"oai_pmh"`
	REST        RESTAccess   `json:"rest_api" yaml:"rest_api"`
	Status      string       `json:"status,omitempty" yaml:"status,omitempty"`
	Layer       string       `json:"layer,omitempty" yaml:"layer,omitempty"`

	// Kind is resolved by the registry loader; an empty Kind behaves as KindGeneric.
	Kind PlatformKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// IsDSpace reports whether the declared platform is any DSpace version.
func (r RepositoryEntry) IsDSpace() bool {
	return strings.HasPrefix(strings.ToLower(r.Platform), "dspace")
}

// EffectiveKind returns Kind, defaulting to KindGeneric.
func (r RepositoryEntry) EffectiveKind() PlatformKind {
	if r.Kind == "" {
		return KindGeneric
	}
	return r.Kind
}
