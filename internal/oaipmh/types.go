// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oaipmh

import (
	"errors"
	"fmt"

	"github.com/pdiddy/repo-access/pkg/types"
)

// ErrDeletedRecord is returned by GetRecord when the header carries a
// deleted status.
var ErrDeletedRecord = errors.New("record is deleted")

// ProtocolError is an OAI-PMH <error> element. It classifies as
// types.ErrProtocol.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("OAI-PMH error [%s]: %s", e.Code, e.Message)
}

func (e *ProtocolError) Unwrap() error { return types.ErrProtocol }

// Identify describes a repository as reported by the Identify verb.
type Identify struct {
	RepositoryName    string   `json:"repository_name" yaml:"repository_name"`
	BaseURL           string   `json:"base_url" yaml:"base_url"`
	ProtocolVersion   string   `json:"protocol_version" yaml:"protocol_version"`
	EarliestDatestamp string   `json:"earliest_datestamp" yaml:"earliest_datestamp"`
	DeletedRecord     string   `json:"deleted_record" yaml:"deleted_record"`
	Granularity       string   `json:"granularity" yaml:"granularity"`
	AdminEmail        []string `json:"admin_email" yaml:"admin_email"`
}

// Header is the record header shared by ListRecords, ListIdentifiers and GetRecord.
type Header struct {
	Identifier string   `json:"identifier" yaml:"identifier"`
	Datestamp  string   `json:"datestamp" yaml:"datestamp"`
	Sets       []string `json:"sets" yaml:"sets"`
}

// Record is a harvested, non-deleted OAI-PMH record in oai_dc.
type Record struct {
	Header
	Metadata types.DublinCore `json:"metadata" yaml:"metadata"`
}

// RecordsPage is one ListRecords response.
type RecordsPage struct {
	Records         []Record
	ResumptionToken string
	// CompleteListSize is -1 when the repository did not report it.
	CompleteListSize int
}

// HeadersPage is one ListIdentifiers response.
type HeadersPage struct {
	Headers          []Header
	ResumptionToken  string
	CompleteListSize int
}

// Set is a ListSets entry.
type Set struct {
	Spec string `json:"spec" yaml:"spec"`
	Name string `json:"name" yaml:"name"`
}

// MetadataFormat is a ListMetadataFormats entry.
type MetadataFormat struct {
	Prefix    string `json:"prefix" yaml:"prefix"`
	Schema    string `json:"schema" yaml:"schema"`
	Namespace string `json:"namespace" yaml:"namespace"`
}
