// Package store implements the in-memory triple store: an append-oriented
// collection of triples with SPO/POS/OSP indexes supporting pattern lookup
// where any position may be bound or a wildcard.
package store

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"github.com/notegraph/notegraph/internal/encoding"
	"github.com/notegraph/notegraph/internal/storage"
	"github.com/notegraph/notegraph/pkg/rdf"
)

// TripleStore manages the triple store with 3 index permutations
type TripleStore struct {
	storage storage.Storage
	encoder *encoding.Encoder
	decoder *encoding.Decoder

	size atomic.Int64
	gen  atomic.Uint64
}

// NewTripleStore creates a new triple store over the given storage
func NewTripleStore(st storage.Storage) *TripleStore {
	return &TripleStore{
		storage: st,
		encoder: encoding.NewEncoder(),
		decoder: encoding.NewDecoder(),
	}
}

// Close closes the triple store
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// Len returns the number of distinct triples in the store
func (s *TripleStore) Len() int {
	return int(s.size.Load())
}

// Generation returns a counter that increases whenever the store content
// changes. Callers use it to invalidate derived state such as cached
// query plans.
func (s *TripleStore) Generation() uint64 {
	return s.gen.Load()
}

// Add inserts a triple. Duplicates are idempotent: inserting the same
// triple twice has no observable effect.
func (s *TripleStore) Add(triple *rdf.Triple) error {
	return s.AddAll([]*rdf.Triple{triple})
}

// AddAll inserts a batch of triples in a single transaction. The indexer
// uses this for bulk rebuilds.
func (s *TripleStore) AddAll(triples []*rdf.Triple) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	inserted := 0
	for _, triple := range triples {
		ok, err := s.insertInTxn(txn, triple)
		if err != nil {
			return err
		}
		if ok {
			inserted++
		}
	}

	if err := txn.Commit(); err != nil {
		return err
	}

	if inserted > 0 {
		s.size.Add(int64(inserted))
		s.gen.Add(1)
	}
	return nil
}

// Remove deletes a triple if present; removing an absent triple is a no-op.
func (s *TripleStore) Remove(triple *rdf.Triple) error {
	return s.RemoveAll([]*rdf.Triple{triple})
}

// RemoveAll deletes a batch of triples in a single transaction.
func (s *TripleStore) RemoveAll(triples []*rdf.Triple) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	removed := 0
	for _, triple := range triples {
		ok, err := s.deleteInTxn(txn, triple)
		if err != nil {
			return err
		}
		if ok {
			removed++
		}
	}

	if err := txn.Commit(); err != nil {
		return err
	}

	if removed > 0 {
		s.size.Add(int64(-removed))
		s.gen.Add(1)
	}
	return nil
}

// Contains checks if a triple exists in the store
func (s *TripleStore) Contains(triple *rdf.Triple) (bool, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	subjEnc, predEnc, objEnc, err := s.encodeTriple(triple)
	if err != nil {
		return false, err
	}

	key := s.encoder.EncodeTripleKey(subjEnc, predEnc, objEnc)
	_, err = txn.Get(storage.TableSPO, key)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *TripleStore) encodeTriple(triple *rdf.Triple) (subj, pred, obj encoding.EncodedTerm, err error) {
	subj, _, err = s.encoder.EncodeTerm(triple.Subject)
	if err != nil {
		return subj, pred, obj, fmt.Errorf("failed to encode subject: %w", err)
	}
	pred, _, err = s.encoder.EncodeTerm(triple.Predicate)
	if err != nil {
		return subj, pred, obj, fmt.Errorf("failed to encode predicate: %w", err)
	}
	obj, _, err = s.encoder.EncodeTerm(triple.Object)
	if err != nil {
		return subj, pred, obj, fmt.Errorf("failed to encode object: %w", err)
	}
	return subj, pred, obj, nil
}

// insertInTxn inserts a triple within an existing transaction. Returns
// whether the triple was newly inserted.
func (s *TripleStore) insertInTxn(txn storage.Transaction, triple *rdf.Triple) (bool, error) {
	subjEnc, subjStr, err := s.encoder.EncodeTerm(triple.Subject)
	if err != nil {
		return false, fmt.Errorf("failed to encode subject: %w", err)
	}
	predEnc, predStr, err := s.encoder.EncodeTerm(triple.Predicate)
	if err != nil {
		return false, fmt.Errorf("failed to encode predicate: %w", err)
	}
	objEnc, objStr, err := s.encoder.EncodeTerm(triple.Object)
	if err != nil {
		return false, fmt.Errorf("failed to encode object: %w", err)
	}

	spoKey := s.encoder.EncodeTripleKey(subjEnc, predEnc, objEnc)
	if _, err := txn.Get(storage.TableSPO, spoKey); err == nil {
		// Already present, set semantics
		return false, nil
	} else if err != storage.ErrNotFound {
		return false, err
	}

	// Intern strings in the id2str table
	if err := s.storeString(txn, subjEnc, subjStr); err != nil {
		return false, err
	}
	if err := s.storeString(txn, predEnc, predStr); err != nil {
		return false, err
	}
	if err := s.storeString(txn, objEnc, objStr); err != nil {
		return false, err
	}

	emptyValue := []byte{}

	if err := txn.Set(storage.TableSPO, spoKey, emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(storage.TablePOS, s.encoder.EncodeTripleKey(predEnc, objEnc, subjEnc), emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(storage.TableOSP, s.encoder.EncodeTripleKey(objEnc, subjEnc, predEnc), emptyValue); err != nil {
		return false, err
	}

	return true, nil
}

// deleteInTxn deletes a triple within an existing transaction. Returns
// whether the triple was present.
func (s *TripleStore) deleteInTxn(txn storage.Transaction, triple *rdf.Triple) (bool, error) {
	subjEnc, predEnc, objEnc, err := s.encodeTriple(triple)
	if err != nil {
		return false, err
	}

	spoKey := s.encoder.EncodeTripleKey(subjEnc, predEnc, objEnc)
	if _, err := txn.Get(storage.TableSPO, spoKey); err == storage.ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}

	if err := txn.Delete(storage.TableSPO, spoKey); err != nil {
		return false, err
	}
	if err := txn.Delete(storage.TablePOS, s.encoder.EncodeTripleKey(predEnc, objEnc, subjEnc)); err != nil {
		return false, err
	}
	if err := txn.Delete(storage.TableOSP, s.encoder.EncodeTripleKey(objEnc, subjEnc, predEnc)); err != nil {
		return false, err
	}

	// id2str entries are kept: they may be referenced by other triples
	// (no dictionary garbage collection)

	return true, nil
}

// storeString interns a string in the id2str table if provided
func (s *TripleStore) storeString(txn storage.Transaction, encoded encoding.EncodedTerm, str *string) error {
	if str == nil {
		return nil
	}

	// The hash/data portion of the encoded term is the dictionary key
	key := encoded[1:]
	value := []byte(*str)

	existing, err := txn.Get(storage.TableID2Str, key)
	if err == nil && bytes.Equal(existing, value) {
		return nil
	}
	if err != nil && err != storage.ErrNotFound {
		return err
	}

	return txn.Set(storage.TableID2Str, key, value)
}

// decodeTerm decodes an encoded term back to an rdf.Term, looking up
// interned strings as needed.
func (s *TripleStore) decodeTerm(txn storage.Transaction, encoded encoding.EncodedTerm) (rdf.Term, error) {
	termType := encoded.TermType()

	var stringValue *string
	if termType == rdf.TermTypeNamedNode || termType == rdf.TermTypeBlankNode ||
		termType == rdf.TermTypeStringLiteral || termType == rdf.TermTypeLangStringLiteral {

		str, err := txn.Get(storage.TableID2Str, encoded[1:])
		if err == nil {
			strVal := string(str)
			stringValue = &strVal
		}
	}

	return s.decoder.DecodeTerm(encoded, stringValue)
}
