package docrender

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"discharge_backend/core"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Name: {{ name }}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Ward: {{ wa</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>rd }}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>{{Diagnosis}}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>{{ unknown_key }}</w:t></w:r></w:p>` +
	`</w:body></w:document>`

const testHeaderXML = `<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:p><w:r><w:t>UMR {{ umr }}</w:t></w:r></w:p></w:hdr>`

const testStylesXML = `<w:styles>{{ name }}</w:styles>`

func buildDOCX(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"word/document.xml", testDocumentXML},
		{"word/header1.xml", testHeaderXML},
		{"word/styles.xml", testStylesXML},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(w, p.body)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			content, err := readPart(f)
			if err != nil {
				t.Fatal(err)
			}
			return content
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestDOCXRenderer_Render(t *testing.T) {
	r, err := NewDOCXRenderer(buildDOCX(t))
	if err != nil {
		t.Fatalf("NewDOCXRenderer() error = %v", err)
	}

	var out bytes.Buffer
	err = r.Render(&out, Context{
		"name":      "Ravi <Kumar> & Sons",
		"ward":      "ICU",
		"Diagnosis": "Fever\nADVICE: MEDICAL MANAGEMENT",
		"umr":       "UMR-55",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	doc := readZipPart(t, out.Bytes(), "word/document.xml")
	checks := []string{
		"Name: Ravi &lt;Kumar&gt; &amp; Sons",
		"Ward: ICU",
		`Fever</w:t><w:br/><w:t xml:space="preserve">ADVICE: MEDICAL MANAGEMENT`,
	}
	for _, want := range checks {
		if !strings.Contains(doc, want) {
			t.Errorf("document.xml missing %q:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "{{") {
		t.Errorf("document.xml still has placeholders:\n%s", doc)
	}

	if header := readZipPart(t, out.Bytes(), "word/header1.xml"); !strings.Contains(header, "UMR UMR-55") {
		t.Errorf("header1.xml = %s", header)
	}
	if styles := readZipPart(t, out.Bytes(), "word/styles.xml"); styles != testStylesXML {
		t.Errorf("styles.xml was modified: %s", styles)
	}
}

func TestDOCXRenderer_Placeholders(t *testing.T) {
	r, err := NewDOCXRenderer(buildDOCX(t))
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.Placeholders()
	if err != nil {
		t.Fatalf("Placeholders() error = %v", err)
	}
	want := []string{"Diagnosis", "name", "umr", "unknown_key", "ward"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
}

func TestNewDOCXRenderer_Invalid(t *testing.T) {
	if _, err := NewDOCXRenderer([]byte("not a zip")); err == nil {
		t.Error("expected error for non-zip data")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.Create("other.xml")
	zw.Close()
	if _, err := NewDOCXRenderer(buf.Bytes()); err == nil {
		t.Error("expected error for zip without word/document.xml")
	}
}

func buildXLSX(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Patient")
	f.SetCellValue("Sheet1", "B1", "{{ name }}")
	f.SetCellValue("Sheet1", "B2", "Ward {{ward}} / {{ missing }}!")
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestXLSXRenderer(t *testing.T) {
	r, err := NewXLSXRenderer(buildXLSX(t))
	if err != nil {
		t.Fatalf("NewXLSXRenderer() error = %v", err)
	}

	keys, err := r.Placeholders()
	if err != nil {
		t.Fatalf("Placeholders() error = %v", err)
	}
	if want := []string{"missing", "name", "ward"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Placeholders() = %v, want %v", keys, want)
	}

	var out bytes.Buffer
	if err := r.Render(&out, Context{"name": "John Smith", "ward": "ICU"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	f, err := excelize.OpenReader(&out)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	cells := map[string]string{"A1": "Patient", "B1": "John Smith", "B2": "Ward ICU / !"}
	for cell, want := range cells {
		got, err := f.GetCellValue("Sheet1", cell)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestNewRenderer(t *testing.T) {
	dir := t.TempDir()
	docxPath := filepath.Join(dir, "template.docx")
	xlsxPath := filepath.Join(dir, "template.xlsx")
	txtPath := filepath.Join(dir, "template.txt")
	os.WriteFile(docxPath, buildDOCX(t), 0644)
	os.WriteFile(xlsxPath, buildXLSX(t), 0644)
	os.WriteFile(txtPath, []byte("{{ name }}"), 0644)

	r, err := NewRenderer(docxPath)
	if err != nil || r.MimeType() != MimeDOCX || r.Extension() != ".docx" {
		t.Errorf("NewRenderer(docx) = %v, %v", r, err)
	}
	r, err = NewRenderer(xlsxPath)
	if err != nil || r.MimeType() != MimeXLSX || r.Extension() != ".xlsx" {
		t.Errorf("NewRenderer(xlsx) = %v, %v", r, err)
	}
	if _, err := NewRenderer(txtPath); !errors.Is(err, ErrUnsupportedTemplate) {
		t.Errorf("NewRenderer(txt) error = %v, want ErrUnsupportedTemplate", err)
	}

	_, err = NewRenderer(filepath.Join(dir, "missing.docx"))
	if code := core.GetErrorCode(err); code != core.ErrCodeTemplateMissing {
		t.Errorf("missing template code = %q, want %q", code, core.ErrCodeTemplateMissing)
	}
}

func TestOutputFilename(t *testing.T) {
	got := OutputFilename("John Smith", ".docx", fixedTime)
	if want := "Discharge_John_Smith_20240110_150405.docx"; got != want {
		t.Errorf("OutputFilename() = %q, want %q", got, want)
	}
}

func TestMissingKeys(t *testing.T) {
	got := MissingKeys([]string{"b", "name", "a", "b"}, Context{"name": "x"})
	if want := []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("MissingKeys() = %v, want %v", got, want)
	}
	if got := MissingKeys([]string{"name"}, Context{"name": ""}); len(got) != 0 {
		t.Errorf("MissingKeys() = %v, want none", got)
	}
}

func TestEngine_Render(t *testing.T) {
	r, err := NewDOCXRenderer(buildDOCX(t))
	if err != nil {
		t.Fatal(err)
	}
	obsCore, logs := observer.New(zap.DebugLevel)
	engine := NewEngine(r, zap.New(obsCore)).WithClock(fixedClock)

	doc, err := engine.Render(Context{"name": "John Smith", "ward": "ICU", "umr": "1", "Diagnosis": "x"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if doc.Filename != "Discharge_John_Smith_20240110_150405.docx" {
		t.Errorf("Filename = %q", doc.Filename)
	}
	if doc.MimeType != MimeDOCX {
		t.Errorf("MimeType = %q", doc.MimeType)
	}
	if len(doc.Data) == 0 {
		t.Error("Data is empty")
	}

	entries := logs.FilterMessage("template variables without a value").All()
	if len(entries) != 1 {
		t.Fatalf("missing-variable log entries = %d, want 1", len(entries))
	}
	missing, _ := entries[0].ContextMap()["missing"].([]interface{})
	if len(missing) != 1 || missing[0] != "unknown_key" {
		t.Errorf("missing = %v, want [unknown_key]", entries[0].ContextMap()["missing"])
	}
}
