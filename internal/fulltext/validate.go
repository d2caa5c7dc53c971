// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"bytes"
	"errors"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when a downloaded body is not a PDF document.
var ErrNotPDF = errors.New("not a PDF")

const sniffLen = 512

// Validation describes a downloaded body.
type Validation struct {
	Valid    bool
	MimeType string
	// Pages is the page count, or 0 when the document structure could not
	// be read even though the header is a PDF header.
	Pages  int
	Reason string
}

// Validate checks that data is a PDF. The %PDF header decides validity;
// HTML served under a .pdf URL (login walls, paywalls, error pages) is
// reported as masked HTML.
func Validate(data []byte) Validation {
	if len(data) == 0 {
		return Validation{MimeType: "empty", Reason: "empty body"}
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return Validation{Valid: true, MimeType: "application/pdf", Pages: pageCount(data)}
	}

	head := bytes.ToLower(data[:min(len(data), sniffLen)])
	if bytes.Contains(head, []byte("<!doctype html")) || bytes.Contains(head, []byte("<html")) {
		return Validation{MimeType: "text/html", Reason: "masked HTML (redirect or paywall)"}
	}
	return Validation{MimeType: "unknown", Reason: "invalid file header"}
}

func pageCount(data []byte) (n int) {
	defer func() {
		// The reader panics on some malformed cross-reference tables.
		if recover() != nil {
			n = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
