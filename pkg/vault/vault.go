package vault

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Vault is a directory of markdown notes
type Vault struct {
	root     string
	includes []string
	excludes []string
	logger   *slog.Logger
}

// VaultOption configures a Vault
type VaultOption func(*Vault)

// WithIncludes replaces the default "**/*.md" include globs
func WithIncludes(globs ...string) VaultOption {
	return func(v *Vault) {
		v.includes = globs
	}
}

// WithExcludes sets glob patterns for paths to skip
func WithExcludes(globs ...string) VaultOption {
	return func(v *Vault) {
		v.excludes = globs
	}
}

// WithVaultLogger sets the vault's logger
func WithVaultLogger(logger *slog.Logger) VaultOption {
	return func(v *Vault) {
		v.logger = logger
	}
}

// Open validates the root directory and returns a Vault over it
func Open(root string, opts ...VaultOption) (*Vault, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", root)
	}

	v := &Vault{
		root:     root,
		includes: []string{"**/*.md"},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Root returns the vault's root directory
func (v *Vault) Root() string {
	return v.root
}

// Documents walks the vault and parses every matching note. Notes with
// malformed frontmatter are logged and skipped rather than failing the
// whole scan.
func (v *Vault) Documents() ([]*Document, error) {
	var docs []*Document

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !v.matches(rel) {
			return nil
		}

		content, err := os.ReadFile(path) // #nosec G304 - paths come from walking the configured root
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}

		doc, err := ParseDocument(rel, content)
		if err != nil {
			v.logger.Warn("skipping note", "path", rel, "error", err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan vault: %w", err)
	}
	return docs, nil
}

// Load scans the vault and indexes every document
func (v *Vault) Load(ix *Indexer) error {
	docs, err := v.Documents()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := ix.Index(doc); err != nil {
			return err
		}
	}
	v.logger.Info("vault loaded", "root", v.root, "documents", len(docs))
	return nil
}

// matches applies include then exclude globs to a vault-relative path
func (v *Vault) matches(rel string) bool {
	included := false
	for _, glob := range v.includes {
		if ok, _ := doublestar.Match(glob, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, glob := range v.excludes {
		if ok, _ := doublestar.Match(glob, rel); ok {
			return false
		}
	}
	return true
}
