// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dspace

import (
	"path"
	"strings"
)

// SearchOptions controls a discovery query.
type SearchOptions struct {
	Scope string
	Page  int
	Size  int
	Sort  string
}

// PageInfo is the HAL page block.
type PageInfo struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

// SearchPage is one page of discovery results.
type SearchPage struct {
	TotalElements int
	Page          PageInfo
	Items         []Item
}

// MetadataValue is a single value of a DSpace metadata field.
type MetadataValue struct {
	Value    string `json:"value"`
	Language string `json:"language"`
	Place    int    `json:"place"`
}

// Item is a DSpace item.
type Item struct {
	UUID     string                     `json:"uuid"`
	Name     string                     `json:"name"`
	Handle   string                     `json:"handle"`
	Type     string                     `json:"type"`
	Metadata map[string][]MetadataValue `json:"metadata"`
}

// Values returns the values of a metadata field such as "dc.title".
func (it Item) Values(field string) []string {
	vals := it.Metadata[field]
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v.Value != "" {
			out = append(out, v.Value)
		}
	}
	return out
}

// First returns the first value of a metadata field, or "".
func (it Item) First(field string) string {
	if vals := it.Values(field); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Bitstream is a file attached to an item.
type Bitstream struct {
	UUID         string
	Name         string
	SizeBytes    int64
	MimeType     string
	RetrieveLink string
}

// IsPDF reports whether the bitstream looks like a PDF by mime type or name.
func (b Bitstream) IsPDF() bool {
	return strings.EqualFold(b.MimeType, "application/pdf") ||
		strings.EqualFold(path.Ext(b.Name), ".pdf")
}

// PreferPDF returns the first PDF bitstream.
func PreferPDF(bs []Bitstream) (Bitstream, bool) {
	for _, b := range bs {
		if b.IsPDF() {
			return b, true
		}
	}
	return Bitstream{}, false
}
