// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package access

import (
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/repo-access/internal/dspace"
	"github.com/pdiddy/repo-access/internal/oaipmh"
	"github.com/pdiddy/repo-access/pkg/types"
)

func oaiResult(rec oaipmh.Record, repo types.RepositoryEntry) types.SearchResult {
	md := rec.Metadata
	link := ""
	for _, id := range md.Identifier {
		if strings.HasPrefix(id, "http") {
			link = id
			break
		}
	}
	if link == "" {
		parts := strings.Split(rec.Identifier, ":")
		link = strings.TrimRight(repo.BaseURL, "/") + "/handle/" + parts[len(parts)-1]
	}
	creators := md.Creator
	if creators == nil {
		creators = []string{}
	}
	return types.SearchResult{
		RepositoryID:   repo.ID,
		RepositoryName: repo.Name,
		Identifier:     rec.Identifier,
		Title:          firstOf(md.Title),
		Creators:       creators,
		Description:    firstOf(md.Description),
		Date:           firstOf(md.Date),
		Type:           firstOf(md.Type),
		URL:            link,
		AccessMethod:   types.MethodOAIPMH,
	}
}

func dspaceResult(item dspace.Item, repo types.RepositoryEntry) types.SearchResult {
	base := strings.TrimRight(repo.BaseURL, "/")
	link := base
	if item.Handle != "" {
		link = base + "/handle/" + item.Handle
	}
	title := item.First("dc.title")
	if title == "" {
		title = item.Name
	}
	return types.SearchResult{
		RepositoryID:   repo.ID,
		RepositoryName: repo.Name,
		Identifier:     item.UUID,
		Title:          title,
		Creators:       item.Values("dc.contributor.author"),
		Description:    item.First("dc.description.abstract"),
		Date:           item.First("dc.date.issued"),
		Type:           item.First("dc.type"),
		URL:            link,
		AccessMethod:   types.MethodDSpaceREST,
	}
}

// dspaceDublinCore folds qualified dc.* fields onto their element;
// authors become creators and every other contributor stays a contributor.
func dspaceDublinCore(item dspace.Item) types.DublinCore {
	var dc types.DublinCore
	for _, key := range slices.Sorted(maps.Keys(item.Metadata)) {
		vals := item.Metadata[key]
		parts := strings.Split(key, ".")
		if len(parts) < 2 || parts[0] != "dc" {
			continue
		}
		element := parts[1]
		if element == "contributor" && len(parts) > 2 && parts[2] == "author" {
			element = "creator"
		}
		field := dc.Field(element)
		if field == nil {
			continue
		}
		for _, v := range vals {
			if v.Value != "" {
				*field = append(*field, v.Value)
			}
		}
	}
	if len(dc.Title) == 0 && item.Name != "" {
		dc.Title = []string{item.Name}
	}
	return dc
}

// itemURL turns a search identifier back into an item page URL: absolute
// URLs pass through, rooted paths resolve against the host, anything else
// is appended to the base URL.
func itemURL(repo types.RepositoryEntry, identifier string) string {
	if strings.HasPrefix(identifier, "http") {
		return identifier
	}
	base := strings.TrimRight(repo.BaseURL, "/")
	if strings.HasPrefix(identifier, "/") {
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			return u.Scheme + "://" + u.Host + identifier
		}
	}
	return base + "/" + identifier
}

// looksLikeUUID matches the canonical DSpace item id form.
func looksLikeUUID(identifier string) bool {
	if len(identifier) != 36 {
		return false
	}
	_, err := uuid.Parse(identifier)
	return err == nil
}

func firstOf(s []string) string {
	if len(s) > 0 {
		return s[0]
	}
	return ""
}
