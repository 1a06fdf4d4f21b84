package testing

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// BadgerTestHelper provides round-cache-oriented assertions over a
// BadgerContainer's database.
type BadgerTestHelper struct {
	container *BadgerContainer
}

// NewBadgerTestHelper wraps a container for assertion helpers.
func NewBadgerTestHelper(container *BadgerContainer) *BadgerTestHelper {
	return &BadgerTestHelper{container: container}
}

// AssertKeyExists fails the test if key is absent.
func (h *BadgerTestHelper) AssertKeyExists(t require.TestingT, key string) {
	err := h.container.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	require.NoError(t, err, "key %s should exist", key)
}

// AssertKeyNotExists fails the test if key is present.
func (h *BadgerTestHelper) AssertKeyNotExists(t require.TestingT, key string) {
	err := h.container.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	require.ErrorIs(t, err, badger.ErrKeyNotFound)
}

// CountKeysWithPrefix returns how many keys carry the given prefix.
func (h *BadgerTestHelper) CountKeysWithPrefix(prefix string) (int, error) {
	count := 0
	err := h.container.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed counting keys with prefix %s: %w", prefix, err)
	}
	return count, nil
}

// AssertKeyCountWithPrefix fails the test if the prefix's key count
// doesn't match expected.
func (h *BadgerTestHelper) AssertKeyCountWithPrefix(t require.TestingT, prefix string, expected int) {
	got, err := h.CountKeysWithPrefix(prefix)
	require.NoError(t, err)
	require.Equal(t, expected, got, "key count with prefix %s", prefix)
}
