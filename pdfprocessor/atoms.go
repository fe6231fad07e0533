// Package pdfprocessor extracts plain text from discharge-summary PDFs.
package pdfprocessor

import (
	"bytes"
	"path/filepath"
	"strings"
)

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// EstimateTokenCount approximates the prompt cost of text at four bytes per
// token.
//
// Example:
//
//	tokens := EstimateTokenCount("Hello, world!") // Returns 3
func EstimateTokenCount(text string) int {
	return len(text) / 4
}

// IsPDFFilename reports whether name carries a .pdf extension, in any case.
func IsPDFFilename(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// HasPDFHeader reports whether data begins with the PDF magic bytes.
func HasPDFHeader(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// SanitizeFilename strips directory components and control characters from
// an uploaded filename so it can be logged safely.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
