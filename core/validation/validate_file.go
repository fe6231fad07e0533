package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileExistsError indicates a file does not exist with a descriptive message
type FileExistsError struct {
	Path    string
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// CheckFileExists returns nil if path names a regular file, or a
// *FileExistsError describing why it does not.
func CheckFileExists(path string) error {
	if path == "" {
		return &FileExistsError{Path: path, Message: "file path cannot be empty"}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileExistsError{Path: path, Message: fmt.Sprintf("file not found: %s", path)}
		}
		return &FileExistsError{Path: path, Message: fmt.Sprintf("error checking file %s: %v", path, err)}
	}
	if info.IsDir() {
		return &FileExistsError{Path: path, Message: fmt.Sprintf("path is a directory, not a file: %s", path)}
	}
	return nil
}

// templateExtensions lists the document formats the renderers understand.
var templateExtensions = map[string]bool{
	".docx": true,
	".xlsx": true,
}

// CheckTemplateFile verifies the template exists and has a renderable extension.
func CheckTemplateFile(path string) error {
	if err := CheckFileExists(path); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !templateExtensions[ext] {
		return &FileExistsError{
			Path:    path,
			Message: fmt.Sprintf("unsupported template type %q (want .docx or .xlsx)", ext),
		}
	}
	return nil
}
