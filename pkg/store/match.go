package store

import (
	"fmt"

	"github.com/notegraph/notegraph/internal/encoding"
	"github.com/notegraph/notegraph/internal/storage"
	"github.com/notegraph/notegraph/pkg/rdf"
)

// Pattern represents a triple pattern where each position holds either an
// rdf.Term (bound) or a *Variable / nil (wildcard).
type Pattern struct {
	Subject   any
	Predicate any
	Object    any
}

// Variable represents an unbound pattern position
type Variable struct {
	Name string
}

// NewVariable creates a new variable
func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) String() string {
	return "?" + v.Name
}

// TripleIterator iterates over triples matching a pattern
type TripleIterator interface {
	Next() bool
	Triple() (*rdf.Triple, error)
	Close() error
}

// Match executes a pattern lookup and returns a lazy iterator over the
// matching triples. Match never mutates the store; the iteration order is
// the index scan order and is stable within one evaluation (the iterator
// holds a read transaction with a snapshot view).
func (s *TripleStore) Match(pattern *Pattern) (TripleIterator, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}

	// Select the best index based on bound positions
	table, keyPattern := selectIndex(pattern)

	prefix, err := s.buildScanPrefix(pattern, keyPattern)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - rollback error less important than original error
		return nil, err
	}

	it, err := txn.Scan(table, prefix)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - rollback error less important than original error
		return nil, err
	}

	return &tripleIterator{
		store:      s,
		txn:        txn,
		it:         it,
		keyPattern: keyPattern,
	}, nil
}

// selectIndex chooses the best index based on which positions are bound.
// The key pattern maps key position -> SPO position (S=0, P=1, O=2).
func selectIndex(pattern *Pattern) (storage.Table, []int) {
	sBound := isBound(pattern.Subject)
	pBound := isBound(pattern.Predicate)
	oBound := isBound(pattern.Object)

	switch {
	case sBound && pBound:
		return storage.TableSPO, []int{0, 1, 2} // Key order: S, P, O
	case pBound && oBound:
		return storage.TablePOS, []int{1, 2, 0} // Key order: P, O, S
	case oBound && sBound:
		return storage.TableOSP, []int{2, 0, 1} // Key order: O, S, P
	case sBound:
		return storage.TableSPO, []int{0, 1, 2}
	case pBound:
		return storage.TablePOS, []int{1, 2, 0}
	case oBound:
		return storage.TableOSP, []int{2, 0, 1}
	default:
		return storage.TableSPO, []int{0, 1, 2}
	}
}

// buildScanPrefix builds a key prefix for scanning based on bound positions
func (s *TripleStore) buildScanPrefix(pattern *Pattern, keyPattern []int) ([]byte, error) {
	positions := [3]any{pattern.Subject, pattern.Predicate, pattern.Object}

	var prefix []byte
	for _, idx := range keyPattern {
		term, ok := positions[idx].(rdf.Term)
		if !ok {
			// Stop at first wildcard
			break
		}

		encoded, _, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return nil, err
		}
		prefix = append(prefix, encoded[:]...)
	}

	return prefix, nil
}

// isBound checks if a pattern position holds a concrete term
func isBound(v any) bool {
	_, ok := v.(rdf.Term)
	return ok
}

// tripleIterator implements TripleIterator over an index scan
type tripleIterator struct {
	store      *TripleStore
	txn        storage.Transaction
	it         storage.Iterator
	keyPattern []int
	closed     bool
}

func (ti *tripleIterator) Next() bool {
	if ti.closed {
		return false
	}
	return ti.it.Next()
}

func (ti *tripleIterator) Triple() (*rdf.Triple, error) {
	if ti.closed {
		return nil, fmt.Errorf("iterator closed")
	}

	key := ti.it.Key()
	if key == nil {
		return nil, fmt.Errorf("no current key")
	}

	if len(key) < len(ti.keyPattern)*encoding.EncodedTermSize {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}

	// Extract encoded terms and map back to S, P, O positions
	var positions [3]encoding.EncodedTerm
	for i, idx := range ti.keyPattern {
		offset := i * encoding.EncodedTermSize
		copy(positions[idx][:], key[offset:offset+encoding.EncodedTermSize])
	}

	subject, err := ti.store.decodeTerm(ti.txn, positions[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode subject: %w", err)
	}
	subjectNode, ok := subject.(*rdf.NamedNode)
	if !ok {
		return nil, fmt.Errorf("subject is not an IRI: %s", subject)
	}

	predicate, err := ti.store.decodeTerm(ti.txn, positions[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode predicate: %w", err)
	}
	predicateNode, ok := predicate.(*rdf.NamedNode)
	if !ok {
		return nil, fmt.Errorf("predicate is not an IRI: %s", predicate)
	}

	object, err := ti.store.decodeTerm(ti.txn, positions[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode object: %w", err)
	}

	return &rdf.Triple{
		Subject:   subjectNode,
		Predicate: predicateNode,
		Object:    object,
	}, nil
}

func (ti *tripleIterator) Close() error {
	if ti.closed {
		return nil
	}
	ti.closed = true
	_ = ti.it.Close() // #nosec G104 - iterator close error less critical than transaction rollback error
	return ti.txn.Rollback()
}
