// Package vault reads a directory of markdown notes and projects their
// frontmatter into RDF triples.
package vault

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var frontmatterDelimiter = []byte("---")

// Document is one markdown note: its vault-relative path, the parsed YAML
// frontmatter, and the body below it.
type Document struct {
	Path        string
	Frontmatter map[string]any
	Body        string
}

// Name returns the note's name: the base filename without extension
func (d *Document) Name() string {
	base := filepath.Base(d.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseDocument splits a note into frontmatter and body. A note without a
// frontmatter block is valid and has a nil Frontmatter. A malformed YAML
// block is an error; the caller decides whether to skip the note.
func ParseDocument(path string, content []byte) (*Document, error) {
	doc := &Document{Path: filepath.ToSlash(path)}

	fm, body, ok := splitFrontmatter(content)
	if !ok {
		doc.Body = string(content)
		return doc, nil
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(fm, &parsed); err != nil {
		return nil, fmt.Errorf("parse frontmatter of %s: %w", path, err)
	}
	doc.Frontmatter = parsed
	doc.Body = string(body)
	return doc, nil
}

// splitFrontmatter separates the leading YAML block, delimited by "---"
// lines, from the rest of the note.
func splitFrontmatter(content []byte) (frontmatter, body []byte, ok bool) {
	trimmed := bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF}) // strip BOM

	if !bytes.HasPrefix(trimmed, frontmatterDelimiter) {
		return nil, content, false
	}
	rest := trimmed[len(frontmatterDelimiter):]
	if len(rest) == 0 || (rest[0] != '\n' && !bytes.HasPrefix(rest, []byte("\r\n"))) {
		return nil, content, false
	}
	rest = bytes.TrimPrefix(rest, []byte("\r"))
	rest = rest[1:]

	for _, delim := range [][]byte{[]byte("\n---\n"), []byte("\n---\r\n")} {
		if idx := bytes.Index(rest, delim); idx >= 0 {
			return rest[:idx], rest[idx+len(delim):], true
		}
	}
	// Frontmatter block runs to EOF
	if idx := bytes.LastIndex(rest, []byte("\n---")); idx >= 0 && len(bytes.TrimSpace(rest[idx+4:])) == 0 {
		return rest[:idx], nil, true
	}
	return nil, content, false
}
