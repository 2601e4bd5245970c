// Package extract turns uploaded or scanned files into plain document text.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docqa/internal/apperrors"
)

// Document formats recognized by extension.
const (
	FormatPDF      = "pdf"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

var formats = map[string]string{
	".pdf":      FormatPDF,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".txt":      FormatText,
}

// Format returns the document format for a file name. Unknown extensions
// are treated as plain text.
func Format(name string) string {
	if f, ok := formats[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	return FormatText
}

// Supported reports whether the file name has a recognized extension.
func Supported(name string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extract returns the plain text of a file.
func Extract(name string, data []byte) (string, error) {
	switch Format(name) {
	case FormatPDF:
		text, err := PDFText(data)
		if err != nil {
			return "", &apperrors.ValidationError{
				Field:   "files",
				Message: fmt.Sprintf("%s is not a readable PDF", name),
			}
		}
		return text, nil
	case FormatMarkdown:
		return MarkdownText(data), nil
	default:
		if !utf8.Valid(data) {
			return "", &apperrors.ValidationError{
				Field:   "files",
				Message: fmt.Sprintf("%s is not a text document", name),
			}
		}
		return string(data), nil
	}
}
