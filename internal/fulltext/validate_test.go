// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// minimalPDF builds a structurally valid PDF with the given number of
// empty pages, computing the cross-reference offsets.
func minimalPDF(pages int) []byte {
	var b bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for range pages {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return b.Bytes()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantValid bool
		wantMime  string
		wantPages int
	}{
		{"pdf", minimalPDF(2), true, "application/pdf", 2},
		{"pdf header only", []byte("%PDF-1.7\ntruncated"), true, "application/pdf", 0},
		{"masked html", []byte("<!DOCTYPE html><html><body>Login</body></html>"), false, "text/html", 0},
		{"html after whitespace", []byte("\n\n  <HTML><head></head></HTML>"), false, "text/html", 0},
		{"empty", nil, false, "empty", 0},
		{"binary", []byte{0x89, 'P', 'N', 'G'}, false, "unknown", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.data)
			assert.Equal(t, tt.wantValid, v.Valid)
			assert.Equal(t, tt.wantMime, v.MimeType)
			assert.Equal(t, tt.wantPages, v.Pages)
			if !tt.wantValid {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}
