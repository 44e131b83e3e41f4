package vault

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/store"
)

const (
	// NoteBase prefixes document IRIs, PropBase prefixes predicate IRIs,
	// NodeBase prefixes the synthetic subjects minted for nested maps.
	NoteBase = "vault://notes/"
	PropBase = "vault://prop/"
	NodeBase = "vault://node/"

	// PathProp and NameProp are emitted for every indexed document
	PathProp = PropBase + "path"
	NameProp = PropBase + "name"
)

// Indexer projects documents into the triple store and keeps enough state
// to reindex or remove a document without touching triples owned by other
// documents.
type Indexer struct {
	store *store.TripleStore

	mu     sync.Mutex
	byPath map[string][]*rdf.Triple
}

// NewIndexer creates an indexer over the given store
func NewIndexer(s *store.TripleStore) *Indexer {
	return &Indexer{
		store:  s,
		byPath: make(map[string][]*rdf.Triple),
	}
}

// DocumentIRI returns the IRI identifying a note, derived from its
// vault-relative path without the markdown extension.
func DocumentIRI(path string) *rdf.NamedNode {
	return rdf.NewNamedNode(NoteBase + strings.TrimSuffix(path, ".md"))
}

// PropertyIRI returns the predicate IRI for a frontmatter key
func PropertyIRI(key string) *rdf.NamedNode {
	return rdf.NewNamedNode(PropBase + key)
}

// Index projects a document's frontmatter into triples and swaps them in
// for whatever the document contributed before. Indexing the same document
// twice is idempotent.
func (ix *Indexer) Index(doc *Document) error {
	triples := documentTriples(doc)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if previous, ok := ix.byPath[doc.Path]; ok {
		if err := ix.store.RemoveAll(previous); err != nil {
			return fmt.Errorf("reindex %s: %w", doc.Path, err)
		}
	}
	if err := ix.store.AddAll(triples); err != nil {
		return fmt.Errorf("index %s: %w", doc.Path, err)
	}
	ix.byPath[doc.Path] = triples
	return nil
}

// Remove deletes every triple a document contributed
func (ix *Indexer) Remove(path string) error {
	path = strings.ReplaceAll(path, "\\", "/")

	ix.mu.Lock()
	defer ix.mu.Unlock()

	previous, ok := ix.byPath[path]
	if !ok {
		return nil
	}
	if err := ix.store.RemoveAll(previous); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	delete(ix.byPath, path)
	return nil
}

// Paths returns the indexed document paths, sorted
func (ix *Indexer) Paths() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	paths := make([]string, 0, len(ix.byPath))
	for p := range ix.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// documentTriples flattens a document into triples. Every document gets
// path and name triples; each frontmatter entry becomes one or more
// triples under its property IRI.
func documentTriples(doc *Document) []*rdf.Triple {
	subject := DocumentIRI(doc.Path)

	triples := []*rdf.Triple{
		rdf.NewTriple(subject, rdf.NewNamedNode(PathProp), rdf.NewLiteral(doc.Path)),
		rdf.NewTriple(subject, rdf.NewNamedNode(NameProp), rdf.NewLiteral(doc.Name())),
	}

	keys := make([]string, 0, len(doc.Frontmatter))
	for k := range doc.Frontmatter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		triples = append(triples, valueTriples(subject, PropertyIRI(key), doc.Frontmatter[key])...)
	}
	return triples
}

// valueTriples converts one frontmatter value. Lists fan out into one
// triple per element; nested maps get a synthetic subject linked from the
// parent.
func valueTriples(subject *rdf.NamedNode, predicate *rdf.NamedNode, value any) []*rdf.Triple {
	switch v := value.(type) {
	case nil:
		return nil

	case []any:
		var out []*rdf.Triple
		for _, item := range v {
			out = append(out, valueTriples(subject, predicate, item)...)
		}
		return out

	case map[string]any:
		node := rdf.NewNamedNode(NodeBase + uuid.NewString())
		out := []*rdf.Triple{rdf.NewTriple(subject, predicate, node)}

		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			out = append(out, valueTriples(node, PropertyIRI(key), v[key])...)
		}
		return out

	default:
		return []*rdf.Triple{rdf.NewTriple(subject, predicate, literalFor(value))}
	}
}

// literalFor maps a YAML scalar onto a typed literal
func literalFor(value any) *rdf.Literal {
	switch v := value.(type) {
	case string:
		return rdf.NewLiteral(v)
	case bool:
		return rdf.NewBooleanLiteral(v)
	case int:
		return rdf.NewIntegerLiteral(int64(v))
	case int64:
		return rdf.NewIntegerLiteral(v)
	case float64:
		return rdf.NewDoubleLiteral(v)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return rdf.NewDateLiteral(v)
		}
		return rdf.NewDateTimeLiteral(v)
	default:
		return rdf.NewLiteral(fmt.Sprintf("%v", v))
	}
}
