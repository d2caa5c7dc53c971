// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DublinCore holds the fifteen Dublin Core elements. Every element is an
// ordered list, even when the source carries a single occurrence.
type DublinCore struct {
	Title       []string `json:"title,omitempty" yaml:"title,omitempty"`
	Creator     []string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Subject     []string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Description []string `json:"description,omitempty" yaml:"description,omitempty"`
	Date        []string `json:"date,omitempty" yaml:"date,omitempty"`
	Type        []string `json:"type,omitempty" yaml:"type,omitempty"`
	Format      []string `json:"format,omitempty" yaml:"format,omitempty"`
	Identifier  []string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Language    []string `json:"language,omitempty" yaml:"language,omitempty"`
	Rights      []string `json:"rights,omitempty" yaml:"rights,omitempty"`
	Publisher   []string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Source      []string `json:"source,omitempty" yaml:"source,omitempty"`
	Relation    []string `json:"relation,omitempty" yaml:"relation,omitempty"`
	Coverage    []string `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	Contributor []string `json:"contributor,omitempty" yaml:"contributor,omitempty"`
}

// IsEmpty reports whether no element carries a value.
func (dc DublinCore) IsEmpty() bool {
	for _, f := range dc.fields() {
		if len(*f) > 0 {
			return false
		}
	}
	return true
}

// Field returns a pointer to the element with the given lowercase name
// ("title", "creator", ...), or nil for an unknown name.
func (dc *DublinCore) Field(name string) *[]string {
	switch name {
	case "title":
		return &dc.Title
	case "creator":
		return &dc.Creator
	case "subject":
		return &dc.Subject
	case "description":
		return &dc.Description
	case "date":
		return &dc.Date
	case "type":
		return &dc.Type
	case "format":
		return &dc.Format
	case "identifier":
		return &dc.Identifier
	case "language":
		return &dc.Language
	case "rights":
		return &dc.Rights
	case "publisher":
		return &dc.Publisher
	case "source":
		return &dc.Source
	case "relation":
		return &dc.Relation
	case "coverage":
		return &dc.Coverage
	case "contributor":
		return &dc.Contributor
	}
	return nil
}

func (dc *DublinCore) fields() []*[]string {
	return []*[]string{
		&dc.Title, &dc.Creator, &dc.Subject, &dc.Description, &dc.Date,
		&dc.Type, &dc.Format, &dc.Identifier, &dc.Language, &dc.Rights,
		&dc.Publisher, &dc.Source, &dc.Relation, &dc.Coverage, &dc.Contributor,
	}
}
