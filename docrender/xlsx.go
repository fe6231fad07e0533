package docrender

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXRenderer fills {{ key }} placeholders in the cells of a spreadsheet
// template.
type XLSXRenderer struct {
	template []byte
}

// NewXLSXRenderer validates that template opens as a workbook.
func NewXLSXRenderer(template []byte) (*XLSXRenderer, error) {
	f, err := excelize.OpenReader(bytes.NewReader(template))
	if err != nil {
		return nil, fmt.Errorf("template is not an xlsx file: %w", err)
	}
	f.Close()
	return &XLSXRenderer{template: template}, nil
}

// Extension implements Renderer.
func (r *XLSXRenderer) Extension() string { return ".xlsx" }

// MimeType implements Renderer.
func (r *XLSXRenderer) MimeType() string { return MimeXLSX }

// Render implements Renderer.
func (r *XLSXRenderer) Render(w io.Writer, values Context) error {
	f, err := excelize.OpenReader(bytes.NewReader(r.template))
	if err != nil {
		return err
	}
	defer f.Close()

	err = r.eachPlaceholderCell(f, func(sheet, cell, text string) error {
		return f.SetCellValue(sheet, cell, replacePlaceholders(text, values, identity))
	})
	if err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// Placeholders implements Renderer.
func (r *XLSXRenderer) Placeholders() ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(r.template))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	keys := make(map[string]struct{})
	err = r.eachPlaceholderCell(f, func(_, _, text string) error {
		findPlaceholders(text, keys)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedKeys(keys), nil
}

func (r *XLSXRenderer) eachPlaceholderCell(f *excelize.File, fn func(sheet, cell, text string) error) error {
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for y, row := range rows {
			for x, text := range row {
				if !strings.Contains(text, "{{") {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(x+1, y+1)
				if err != nil {
					return err
				}
				if err := fn(sheet, cell, text); err != nil {
					return fmt.Errorf("cell %s!%s: %w", sheet, cell, err)
				}
			}
		}
	}
	return nil
}

func identity(s string) string { return s }
