// Package source provides access to the documentation tree that traceability
// checks and specification extraction read from.
package source

import "strings"

// DefaultPattern selects the documents scanned under a documentation root.
const DefaultPattern = "*.md"

// Document is one documentation file read from disk.
type Document struct {
	// Path is the file path as joined from the documentation root.
	Path string `json:"path"`

	// Filename is the base name of the file.
	Filename string `json:"filename"`

	// Content is the raw document text.
	Content string `json:"content"`
}

// Lines splits the content on newlines. A trailing newline does not
// produce an extra empty line.
func (d *Document) Lines() []string {
	if d.Content == "" {
		return nil
	}
	content := strings.ReplaceAll(d.Content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
