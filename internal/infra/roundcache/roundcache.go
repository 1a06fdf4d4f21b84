// Package roundcache is an operational convenience, not a correctness
// dependency: a local BadgerDB-backed history of published rounds keyed
// by (distributor address, block number), adapted from the teacher's
// internal/infra/storage/badger_client.go epoch-snapshot store. Fast
// `proof --list` and round audits read from here; the chain and blob
// store remain authoritative, and this cache is fully rebuildable by
// replaying published CIDs.
package roundcache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-pkgz/lgr"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

// Entry is one cached round.
type Entry struct {
	DistributorAddr string    `json:"distributorAddr"`
	BlockNumber     uint64    `json:"blockNumber"`
	CID             string    `json:"cid"`
	Root            string    `json:"root"`
	Blob            *round.Blob `json:"blob"`
}

// Cache wraps an embedded BadgerDB instance.
type Cache struct {
	db     *badger.DB
	logger lgr.L
}

// Open opens (creating if absent) the BadgerDB store at dbPath.
func Open(logger lgr.L, dbPath string) (*Cache, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = newBadgerLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open round-history cache: %w", err)
	}
	return &Cache{db: db, logger: logger}, nil
}

// OpenWithDB wraps an already-open BadgerDB instance, letting callers
// (notably integration tests) control the instance's lifecycle
// themselves.
func OpenWithDB(logger lgr.L, db *badger.DB) *Cache {
	return &Cache{db: db, logger: logger}
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save records a round, overwriting the latest-round pointer.
func (c *Cache) Save(distributorAddr common.Address, entry Entry) error {
	entry.DistributorAddr = strings.ToLower(distributorAddr.Hex())

	key := c.roundKey(distributorAddr, entry.BlockNumber)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal round cache entry: %w", err)
	}

	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}); err != nil {
		return fmt.Errorf("failed to save round to cache: %w", err)
	}

	latestKey := c.latestKey(distributorAddr)
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(latestKey), []byte(fmt.Sprintf("%020d", entry.BlockNumber)))
	}); err != nil {
		c.logger.Logf("WARN failed to update latest-round pointer: %v", err)
	}

	c.logger.Logf("INFO cached round for distributor %s at block %d (cid=%s)",
		distributorAddr, entry.BlockNumber, entry.CID)
	return nil
}

// Get reads a single cached round.
func (c *Cache) Get(distributorAddr common.Address, blockNumber uint64) (*Entry, error) {
	key := c.roundKey(distributorAddr, blockNumber)

	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, fmt.Errorf("no cached round for distributor %s at block %d", distributorAddr, blockNumber)
		}
		return nil, fmt.Errorf("failed to read round cache: %w", err)
	}
	return &entry, nil
}

// Latest returns the most recently cached round for a distributor.
func (c *Cache) Latest(distributorAddr common.Address) (*Entry, error) {
	latestKey := c.latestKey(distributorAddr)

	var blockStr string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			blockStr = string(val)
			return nil
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, fmt.Errorf("no cached rounds for distributor %s", distributorAddr)
		}
		return nil, fmt.Errorf("failed to read latest-round pointer: %w", err)
	}

	var blockNumber uint64
	if _, err := fmt.Sscanf(blockStr, "%d", &blockNumber); err != nil {
		return nil, fmt.Errorf("invalid latest-round pointer %q: %w", blockStr, err)
	}
	return c.Get(distributorAddr, blockNumber)
}

// List returns every cached round for a distributor, most recent first.
func (c *Cache) List(distributorAddr common.Address, limit int) ([]Entry, error) {
	prefix := c.prefix(distributorAddr)

	var entries []Entry
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		seekFrom := append([]byte(prefix), 0xff)
		for it.Seek(seekFrom); it.ValidForPrefix([]byte(prefix)) && (limit == 0 || len(entries) < limit); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				var entry Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					c.logger.Logf("WARN failed to unmarshal cached round: %v", err)
					return nil
				}
				entries = append(entries, entry)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cached rounds: %w", err)
	}
	return entries, nil
}

func (c *Cache) roundKey(distributorAddr common.Address, blockNumber uint64) string {
	return fmt.Sprintf("%sblock:%020d", c.prefix(distributorAddr), blockNumber)
}

func (c *Cache) latestKey(distributorAddr common.Address) string {
	return fmt.Sprintf("latest:distributor:%s", strings.ToLower(distributorAddr.Hex()))
}

func (c *Cache) prefix(distributorAddr common.Address) string {
	return fmt.Sprintf("round:distributor:%s:", strings.ToLower(distributorAddr.Hex()))
}

// badgerLogger adapts lgr.L to badger's Logger interface.
type badgerLogger struct {
	lgr lgr.L
}

func newBadgerLogger(l lgr.L) *badgerLogger {
	return &badgerLogger{lgr: l}
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.lgr.Logf("ERROR "+format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.lgr.Logf("WARN "+format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.lgr.Logf("INFO "+format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.lgr.Logf("DEBUG "+format, args...) }
