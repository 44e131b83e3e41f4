package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *BadgerStorage {
	t.Helper()
	s, err := NewMemoryStorage()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := newStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(TableSPO, []byte("key1"), []byte("value1")))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	got, err := txn.Get(TableSPO, []byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), got)
	require.NoError(t, txn.Rollback())

	txn, err = s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Delete(TableSPO, []byte("key1")))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	_, err = txn.Get(TableSPO, []byte("key1"))
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, txn.Rollback())
}

func TestGetMissingKey(t *testing.T) {
	s := newStorage(t)

	txn, err := s.Begin(false)
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	_, err = txn.Get(TableSPO, []byte("nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadOnlyTransactionRejectsWrites(t *testing.T) {
	s := newStorage(t)

	txn, err := s.Begin(false)
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	assert.ErrorIs(t, txn.Set(TableSPO, []byte("k"), []byte("v")), ErrTransactionRO)
	assert.ErrorIs(t, txn.Delete(TableSPO, []byte("k")), ErrTransactionRO)
}

func TestTablesAreIsolated(t *testing.T) {
	s := newStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(TableSPO, []byte("shared"), []byte("spo")))
	require.NoError(t, txn.Set(TablePOS, []byte("shared"), []byte("pos")))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	spo, err := txn.Get(TableSPO, []byte("shared"))
	require.NoError(t, err)
	assert.Equal(t, []byte("spo"), spo)

	pos, err := txn.Get(TablePOS, []byte("shared"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pos"), pos)

	_, err = txn.Get(TableOSP, []byte("shared"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScanPrefix(t *testing.T) {
	s := newStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(TableSPO, []byte("aa1"), nil))
	require.NoError(t, txn.Set(TableSPO, []byte("aa2"), nil))
	require.NoError(t, txn.Set(TableSPO, []byte("ab1"), nil))
	require.NoError(t, txn.Set(TablePOS, []byte("aa9"), nil))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	it, err := txn.Scan(TableSPO, []byte("aa"))
	require.NoError(t, err)
	defer func() { _ = it.Close() }()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	// Ordered scan, restricted to the prefix and the table
	assert.Equal(t, []string{"aa1", "aa2"}, keys)
}

func TestScanWholeTable(t *testing.T) {
	s := newStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(TableID2Str, []byte("b"), []byte("2")))
	require.NoError(t, txn.Set(TableID2Str, []byte("a"), []byte("1")))
	require.NoError(t, txn.Commit())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	it, err := txn.Scan(TableID2Str, nil)
	require.NoError(t, err)
	defer func() { _ = it.Close() }()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))

		val, err := it.Value()
		require.NoError(t, err)
		assert.NotEmpty(t, val)
	}
	assert.Equal(t, []string{"a", "b"}, keys, "scan yields keys in lexicographic order")
}

func TestSnapshotIsolation(t *testing.T) {
	s := newStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(TableSPO, []byte("k"), []byte("old")))
	require.NoError(t, txn.Commit())

	// A reader opened before a write keeps seeing the old state
	reader, err := s.Begin(false)
	require.NoError(t, err)
	defer func() { _ = reader.Rollback() }()

	writer, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, writer.Set(TableSPO, []byte("k"), []byte("new")))
	require.NoError(t, writer.Commit())

	got, err := reader.Get(TableSPO, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), got)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := newStorage(t)

	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(TableSPO, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())

	txn, err = s.Begin(false)
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	_, err = txn.Get(TableSPO, []byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)
}
