// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry loads the static list of repositories the access layer
// is pointed at and answers simple queries over it. Platform kinds are
// resolved once, at load time.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/repo-access/internal/platform"
	"github.com/pdiddy/repo-access/pkg/types"
)

// StatusActive marks a repository that should be searched.
const StatusActive = "active"

// Registry is an immutable, ordered set of repository entries.
type Registry struct {
	entries []types.RepositoryEntry
	byID    map[string]int
}

// Stats summarizes a registry.
type Stats struct {
	Total        int            `json:"total" yaml:"total"`
	Active       int            `json:"active" yaml:"active"`
	ByState      map[string]int `json:"by_state" yaml:"by_state"`
	ByPlatform   map[string]int `json:"by_platform" yaml:"by_platform"`
	ByKind       map[string]int `json:"by_kind" yaml:"by_kind"`
	OAIAvailable int            `json:"oai_available" yaml:"oai_available"`
	OAIVerified  int            `json:"oai_verified" yaml:"oai_verified"`
}

// New builds a registry from entries, resolving each entry's platform
// kind. Entries without an id or base URL are rejected, as are
// duplicate ids.
func New(entries []types.RepositoryEntry) (*Registry, error) {
	r := &Registry{
		entries: make([]types.RepositoryEntry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d: missing id", i)
		}
		if e.BaseURL == "" {
			return nil, fmt.Errorf("entry %s: missing url", e.ID)
		}
		if _, dup := r.byID[e.ID]; dup {
			return nil, fmt.Errorf("entry %s: duplicate id", e.ID)
		}
		e.Kind = resolveKind(e)
		r.byID[e.ID] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// resolveKind keeps an explicit kind and otherwise classifies by id and host.
func resolveKind(e types.RepositoryEntry) types.PlatformKind {
	if e.Kind != "" {
		return e.Kind
	}
	return platform.KindFor(e.ID, e.BaseURL)
}

// Load reads a registry file. Files ending in .json are decoded as JSON,
// anything else as YAML.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	var entries []types.RepositoryEntry
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &entries)
	} else {
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	r, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return r, nil
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// All returns a copy of every entry in file order.
func (r *Registry) All() []types.RepositoryEntry {
	return slices.Clone(r.entries)
}

// ByID returns the entry with the given id.
func (r *Registry) ByID(id string) (types.RepositoryEntry, bool) {
	i, ok := r.byID[id]
	if !ok {
		return types.RepositoryEntry{}, false
	}
	return r.entries[i], true
}

// Active returns the entries whose status is active.
func (r *Registry) Active() []types.RepositoryEntry {
	return r.filter(func(e types.RepositoryEntry) bool { return e.Status == StatusActive })
}

// ByState returns the entries whose institution is in the given state (UF),
// compared case-insensitively.
func (r *Registry) ByState(uf string) []types.RepositoryEntry {
	return r.filter(func(e types.RepositoryEntry) bool { return strings.EqualFold(e.Institution.State, uf) })
}

// ByPlatform returns the entries declared on the given platform.
func (r *Registry) ByPlatform(name string) []types.RepositoryEntry {
	return r.filter(func(e types.RepositoryEntry) bool { return strings.EqualFold(e.Platform, name) })
}

// WithOAIPMH returns the entries that declare a usable OAI-PMH endpoint.
func (r *Registry) WithOAIPMH() []types.RepositoryEntry {
	return r.filter(func(e types.RepositoryEntry) bool { return e.OAIPMH.Available && e.OAIPMH.Endpoint != "" })
}

// Stats counts entries by state, platform and kind.
func (r *Registry) Stats() Stats {
	s := Stats{
		Total:      len(r.entries),
		ByState:    map[string]int{},
		ByPlatform: map[string]int{},
		ByKind:     map[string]int{},
	}
	for _, e := range r.entries {
		if e.Status == StatusActive {
			s.Active++
		}
		s.ByState[e.Institution.State]++
		s.ByPlatform[e.Platform]++
		s.ByKind[string(e.EffectiveKind())]++
		if e.OAIPMH.Available {
			s.OAIAvailable++
		}
		if e.OAIPMH.Verified {
			s.OAIVerified++
		}
	}
	return s
}

func (r *Registry) filter(keep func(types.RepositoryEntry) bool) []types.RepositoryEntry {
	var out []types.RepositoryEntry
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
