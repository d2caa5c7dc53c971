// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oaipmh

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/pdiddy/repo-access/pkg/types"
)

// OAI-PMH envelope. Tags carry no namespace so both prefixed
// (<oai_dc:dc>, <dc:title>) and bare (<dc>, <title>) names match.
type envelope struct {
	XMLName             xml.Name                `xml:"OAI-PMH"`
	Error               *xmlError               `xml:"error"`
	Identify            *xmlIdentify            `xml:"Identify"`
	ListRecords         *xmlListRecords         `xml:"ListRecords"`
	ListIdentifiers     *xmlListIdentifiers     `xml:"ListIdentifiers"`
	GetRecord           *xmlGetRecord           `xml:"GetRecord"`
	ListSets            *xmlListSets            `xml:"ListSets"`
	ListMetadataFormats *xmlListMetadataFormats `xml:"ListMetadataFormats"`
}

type xmlError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type xmlIdentify struct {
	RepositoryName    string   `xml:"repositoryName"`
	BaseURL           string   `xml:"baseURL"`
	ProtocolVersion   string   `xml:"protocolVersion"`
	EarliestDatestamp string   `xml:"earliestDatestamp"`
	DeletedRecord     string   `xml:"deletedRecord"`
	Granularity       string   `xml:"granularity"`
	AdminEmail        []string `xml:"adminEmail"`
}

type xmlResumptionToken struct {
	Value            string `xml:",chardata"`
	CompleteListSize string `xml:"completeListSize,attr"`
	Cursor           string `xml:"cursor,attr"`
}

type xmlListRecords struct {
	Records []xmlRecord         `xml:"record"`
	Token   *xmlResumptionToken `xml:"resumptionToken"`
}

type xmlListIdentifiers struct {
	Headers []xmlHeader         `xml:"header"`
	Token   *xmlResumptionToken `xml:"resumptionToken"`
}

type xmlGetRecord struct {
	Record *xmlRecord `xml:"record"`
}

type xmlRecord struct {
	Header   *xmlHeader   `xml:"header"`
	Metadata *xmlMetadata `xml:"metadata"`
}

type xmlHeader struct {
	Status     string   `xml:"status,attr"`
	Identifier string   `xml:"identifier"`
	Datestamp  string   `xml:"datestamp"`
	SetSpec    []string `xml:"setSpec"`
}

// xmlMetadata accepts a <dc>/<oai_dc:dc> container or Dublin Core
// elements placed directly under <metadata>.
type xmlMetadata struct {
	DC *xmlDublinCore `xml:"dc"`
	xmlDublinCore
}

type xmlDublinCore struct {
	Title       []string `xml:"title"`
	Creator     []string `xml:"creator"`
	Subject     []string `xml:"subject"`
	Description []string `xml:"description"`
	Date        []string `xml:"date"`
	Type        []string `xml:"type"`
	Format      []string `xml:"format"`
	Identifier  []string `xml:"identifier"`
	Language    []string `xml:"language"`
	Rights      []string `xml:"rights"`
	Publisher   []string `xml:"publisher"`
	Source      []string `xml:"source"`
	Relation    []string `xml:"relation"`
	Coverage    []string `xml:"coverage"`
	Contributor []string `xml:"contributor"`
}

type xmlListSets struct {
	Sets []struct {
		Spec string `xml:"setSpec"`
		Name string `xml:"setName"`
	} `xml:"set"`
}

type xmlListMetadataFormats struct {
	Formats []struct {
		Prefix    string `xml:"metadataPrefix"`
		Schema    string `xml:"schema"`
		Namespace string `xml:"metadataNamespace"`
	} `xml:"metadataFormat"`
}

// decode parses an OAI-PMH document and surfaces a protocol <error>.
func decode(data []byte) (*envelope, error) {
	var env envelope
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding OAI-PMH response: %v", types.ErrParse, err)
	}
	if env.Error != nil {
		return nil, &ProtocolError{
			Code:    strings.TrimSpace(env.Error.Code),
			Message: strings.TrimSpace(env.Error.Message),
		}
	}
	return &env, nil
}

// ParseIdentify parses an Identify response.
func ParseIdentify(data []byte) (Identify, error) {
	env, err := decode(data)
	if err != nil {
		return Identify{}, err
	}
	if env.Identify == nil {
		return Identify{}, fmt.Errorf("%w: invalid OAI-PMH Identify response", types.ErrParse)
	}
	id := env.Identify
	return Identify{
		RepositoryName:    strings.TrimSpace(id.RepositoryName),
		BaseURL:           strings.TrimSpace(id.BaseURL),
		ProtocolVersion:   strings.TrimSpace(id.ProtocolVersion),
		EarliestDatestamp: strings.TrimSpace(id.EarliestDatestamp),
		DeletedRecord:     strings.TrimSpace(id.DeletedRecord),
		Granularity:       strings.TrimSpace(id.Granularity),
		AdminEmail:        trimAll(id.AdminEmail),
	}, nil
}

// ParseListRecords parses one ListRecords page. Deleted records are
// dropped. A response without a ListRecords element yields an empty page.
func ParseListRecords(data []byte) (RecordsPage, error) {
	env, err := decode(data)
	if err != nil {
		return RecordsPage{}, err
	}
	var page RecordsPage
	if env.ListRecords == nil {
		return page, nil
	}
	for _, r := range env.ListRecords.Records {
		if rec, ok := convertRecord(r); ok {
			page.Records = append(page.Records, rec)
		}
	}
	page.ResumptionToken, page.CompleteListSize = convertToken(env.ListRecords.Token)
	return page, nil
}

// ParseListIdentifiers parses one ListIdentifiers page, dropping deleted headers.
func ParseListIdentifiers(data []byte) (HeadersPage, error) {
	env, err := decode(data)
	if err != nil {
		return HeadersPage{}, err
	}
	var page HeadersPage
	if env.ListIdentifiers == nil {
		return page, nil
	}
	for _, h := range env.ListIdentifiers.Headers {
		if isDeleted(&h) {
			continue
		}
		page.Headers = append(page.Headers, convertHeader(&h))
	}
	page.ResumptionToken, page.CompleteListSize = convertToken(env.ListIdentifiers.Token)
	return page, nil
}

// ParseGetRecord parses a GetRecord response. A deleted record is an error.
func ParseGetRecord(data []byte) (Record, error) {
	env, err := decode(data)
	if err != nil {
		return Record{}, err
	}
	if env.GetRecord == nil || env.GetRecord.Record == nil {
		return Record{}, fmt.Errorf("%w: no record found in GetRecord response", types.ErrParse)
	}
	rec, ok := convertRecord(*env.GetRecord.Record)
	if !ok {
		return Record{}, ErrDeletedRecord
	}
	return rec, nil
}

// ParseListSets parses a ListSets response.
func ParseListSets(data []byte) ([]Set, error) {
	env, err := decode(data)
	if err != nil {
		return nil, err
	}
	if env.ListSets == nil {
		return nil, nil
	}
	sets := make([]Set, 0, len(env.ListSets.Sets))
	for _, s := range env.ListSets.Sets {
		sets = append(sets, Set{
			Spec: strings.TrimSpace(s.Spec),
			Name: strings.TrimSpace(s.Name),
		})
	}
	return sets, nil
}

// ParseListMetadataFormats parses a ListMetadataFormats response.
func ParseListMetadataFormats(data []byte) ([]MetadataFormat, error) {
	env, err := decode(data)
	if err != nil {
		return nil, err
	}
	if env.ListMetadataFormats == nil {
		return nil, nil
	}
	formats := make([]MetadataFormat, 0, len(env.ListMetadataFormats.Formats))
	for _, f := range env.ListMetadataFormats.Formats {
		formats = append(formats, MetadataFormat{
			Prefix:    strings.TrimSpace(f.Prefix),
			Schema:    strings.TrimSpace(f.Schema),
			Namespace: strings.TrimSpace(f.Namespace),
		})
	}
	return formats, nil
}

func isDeleted(h *xmlHeader) bool {
	return strings.EqualFold(strings.TrimSpace(h.Status), "deleted")
}

// convertRecord returns false for records without a header or marked deleted.
func convertRecord(r xmlRecord) (Record, bool) {
	if r.Header == nil || isDeleted(r.Header) {
		return Record{}, false
	}
	rec := Record{Header: convertHeader(r.Header)}
	if r.Metadata != nil {
		src := &r.Metadata.xmlDublinCore
		if r.Metadata.DC != nil {
			src = r.Metadata.DC
		}
		rec.Metadata = convertDublinCore(src)
	} else {
		rec.Metadata = convertDublinCore(&xmlDublinCore{})
	}
	return rec, true
}

func convertHeader(h *xmlHeader) Header {
	return Header{
		Identifier: strings.TrimSpace(h.Identifier),
		Datestamp:  strings.TrimSpace(h.Datestamp),
		Sets:       trimAll(h.SetSpec),
	}
}

// convertDublinCore copies every element as an ordered, non-nil list.
func convertDublinCore(x *xmlDublinCore) types.DublinCore {
	return types.DublinCore{
		Title:       trimAll(x.Title),
		Creator:     trimAll(x.Creator),
		Subject:     trimAll(x.Subject),
		Description: trimAll(x.Description),
		Date:        trimAll(x.Date),
		Type:        trimAll(x.Type),
		Format:      trimAll(x.Format),
		Identifier:  trimAll(x.Identifier),
		Language:    trimAll(x.Language),
		Rights:      trimAll(x.Rights),
		Publisher:   trimAll(x.Publisher),
		Source:      trimAll(x.Source),
		Relation:    trimAll(x.Relation),
		Coverage:    trimAll(x.Coverage),
		Contributor: trimAll(x.Contributor),
	}
}

func convertToken(t *xmlResumptionToken) (token string, size int) {
	if t == nil {
		return "", -1
	}
	size = -1
	if n, err := strconv.Atoi(strings.TrimSpace(t.CompleteListSize)); err == nil {
		size = n
	}
	return strings.TrimSpace(t.Value), size
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
