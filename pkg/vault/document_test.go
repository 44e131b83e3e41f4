package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentWithFrontmatter(t *testing.T) {
	content := []byte(`---
title: Weekly Review
tags:
  - work
  - planning
priority: 3
done: false
---
# Weekly Review

Some body text.
`)

	doc, err := ParseDocument("journal/weekly.md", content)
	require.NoError(t, err)

	assert.Equal(t, "journal/weekly.md", doc.Path)
	assert.Equal(t, "weekly", doc.Name())
	assert.Equal(t, "Weekly Review", doc.Frontmatter["title"])
	assert.Equal(t, []any{"work", "planning"}, doc.Frontmatter["tags"])
	assert.Equal(t, 3, doc.Frontmatter["priority"])
	assert.Equal(t, false, doc.Frontmatter["done"])
	assert.Contains(t, doc.Body, "# Weekly Review")
	assert.NotContains(t, doc.Body, "title:")
}

func TestParseDocumentWithoutFrontmatter(t *testing.T) {
	content := []byte("# Just a note\n\nNo metadata here.\n")

	doc, err := ParseDocument("note.md", content)
	require.NoError(t, err)
	assert.Nil(t, doc.Frontmatter)
	assert.Equal(t, string(content), doc.Body)
}

func TestParseDocumentHorizontalRuleIsNotFrontmatter(t *testing.T) {
	// A "---" that does not open the file is a horizontal rule
	content := []byte("intro\n---\nkey: value\n---\n")

	doc, err := ParseDocument("note.md", content)
	require.NoError(t, err)
	assert.Nil(t, doc.Frontmatter)
}

func TestParseDocumentMalformedYAML(t *testing.T) {
	content := []byte("---\ntitle: [unclosed\n---\nbody\n")

	_, err := ParseDocument("bad.md", content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.md")
}

func TestParseDocumentCRLF(t *testing.T) {
	content := []byte("---\r\ntitle: Windows Note\r\n---\r\nbody\r\n")

	doc, err := ParseDocument("win.md", content)
	require.NoError(t, err)
	assert.Equal(t, "Windows Note", doc.Frontmatter["title"])
}

func TestParseDocumentFrontmatterOnly(t *testing.T) {
	content := []byte("---\ntitle: Stub\n---")

	doc, err := ParseDocument("stub.md", content)
	require.NoError(t, err)
	assert.Equal(t, "Stub", doc.Frontmatter["title"])
	assert.Empty(t, doc.Body)
}

func TestParseDocumentEmpty(t *testing.T) {
	doc, err := ParseDocument("empty.md", nil)
	require.NoError(t, err)
	assert.Nil(t, doc.Frontmatter)
	assert.Empty(t, doc.Body)
}
