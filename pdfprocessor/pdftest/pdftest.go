// Package pdftest builds small text PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Build returns a PDF with one page per entry of pages. Each page's text is
// split on newlines and drawn as separate lines in Helvetica. An empty entry
// yields a page with no text.
func Build(pages ...string) []byte {
	// Object layout: 1 catalog, 2 page tree, 3 font, then a page and its
	// content stream for every page.
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		contentID := 5 + 2*i
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentID))
		stream := contentStream(text)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func contentStream(text string) string {
	var sb strings.Builder
	sb.WriteString("BT /F1 12 Tf 14 TL 72 720 Td")
	if text != "" {
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				sb.WriteString(" T*")
			}
			fmt.Fprintf(&sb, " (%s) Tj", escape(line))
		}
	}
	sb.WriteString(" ET")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
