package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// diskTier persists stage-2 results across runs. Badger handles TTL
// eviction itself; we only set it on write.
type diskTier struct {
	db  *badger.DB
	ttl time.Duration
}

func openDiskTier(dir string, inMemory bool, ttl time.Duration) (*diskTier, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	return &diskTier{db: db, ttl: ttl}, nil
}

func (d *diskTier) get(key string) (Entry, bool, error) {
	var e Entry
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (d *diskTier) put(key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		en := badger.NewEntry([]byte(key), data).WithTTL(d.ttl)
		return txn.SetEntry(en)
	})
}

func (d *diskTier) clear() error {
	return d.db.DropAll()
}

func (d *diskTier) close() error {
	return d.db.Close()
}
