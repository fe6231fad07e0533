package docrender

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXRenderer fills {{ key }} placeholders in a Word template. Only the
// document body, headers and footers are rewritten; every other part is
// copied unchanged.
type DOCXRenderer struct {
	template []byte
}

// NewDOCXRenderer validates that template is a Word package.
func NewDOCXRenderer(template []byte) (*DOCXRenderer, error) {
	zr, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, fmt.Errorf("template is not a docx file: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return &DOCXRenderer{template: template}, nil
		}
	}
	return nil, fmt.Errorf("template is not a docx file: word/document.xml not found")
}

// Extension implements Renderer.
func (r *DOCXRenderer) Extension() string { return ".docx" }

// MimeType implements Renderer.
func (r *DOCXRenderer) MimeType() string { return MimeDOCX }

// Render implements Renderer.
func (r *DOCXRenderer) Render(w io.Writer, values Context) error {
	zr, err := zip.NewReader(bytes.NewReader(r.template), int64(len(r.template)))
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, f := range zr.File {
		if !isTextPart(f.Name) {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}

		content, err := readPart(f)
		if err != nil {
			return err
		}
		out, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", f.Name, err)
		}
		if _, err := io.WriteString(out, replacePlaceholders(content, values, escapeWordText)); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

// Placeholders implements Renderer.
func (r *DOCXRenderer) Placeholders() ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(r.template), int64(len(r.template)))
	if err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	for _, f := range zr.File {
		if !isTextPart(f.Name) {
			continue
		}
		content, err := readPart(f)
		if err != nil {
			return nil, err
		}
		findPlaceholders(content, keys)
	}
	return sortedKeys(keys), nil
}

// isTextPart reports whether a package part can hold placeholders.
func isTextPart(name string) bool {
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimSuffix(strings.TrimPrefix(name, "word/"), ".xml")
	return base == "document" || strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func readPart(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	return string(data), nil
}

// escapeWordText escapes s for a <w:t> element. Newlines become line breaks
// within the same run.
func escapeWordText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		var buf bytes.Buffer
		xml.EscapeText(&buf, []byte(line))
		lines[i] = buf.String()
	}
	return strings.Join(lines, `</w:t><w:br/><w:t xml:space="preserve">`)
}
