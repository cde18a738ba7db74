// Package fixtures provides test doubles for the stf package's capability
// interfaces. BoltStorage backs the Storage capability with a real
// go.etcd.io/bbolt database that persists every committed root, as an
// alternative to a bare in-memory map. The stf package's own tests use an
// in-memory fake instead.
package fixtures

import (
	"crypto/sha256"
	"fmt"

	"github.com/bitrollup/stf/stf"
	bolt "go.etcd.io/bbolt"
)

var rootsBucket = []byte("roots")

// BoltStorage is a minimal Storage implementation: each committed state
// update is recorded as sha256(prevRoot || cacheLog-bytes), persisted to a
// bbolt bucket keyed by a monotonic sequence number so tests can inspect
// commit history.
type BoltStorage struct {
	db *bolt.DB
}

// OpenBoltStorage opens (creating if absent) a bbolt database at path and
// ensures the roots bucket exists.
func OpenBoltStorage(path string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt storage: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("initializing roots bucket: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

// Close releases the underlying bbolt database.
func (s *BoltStorage) Close() error {
	return s.db.Close()
}

// CacheLogBytes is the concrete CacheLog type BoltStorage expects: the raw
// bytes of whatever the working set accumulated over a block.
type CacheLogBytes []byte

// ComputeStateUpdate hashes prevRoot (decoded from witness) with the cache
// log bytes to derive the next root. The "update" returned is the new root
// bytes themselves, reused directly by Commit.
func (s *BoltStorage) ComputeStateUpdate(cacheLog stf.CacheLog, witness *stf.Witness) ([]byte, stf.StateUpdate, stf.StateDiff, error) {
	var prevRoot []byte
	if witness != nil {
		if seed, ok := (*witness).([]byte); ok {
			prevRoot = seed
		}
	}

	data, _ := cacheLog.(CacheLogBytes)
	h := sha256.New()
	h.Write(prevRoot)
	h.Write(data)
	newRoot := h.Sum(nil)

	diff := stf.StateDiff{"root": newRoot}
	return newRoot, newRoot, diff, nil
}

// Commit persists the new root (the update value itself) to the roots
// bucket under a monotonically increasing sequence key.
func (s *BoltStorage) Commit(update stf.StateUpdate, _ stf.AccessoryLog) error {
	root, ok := update.([]byte)
	if !ok {
		return fmt.Errorf("unexpected update type %T", update)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), root)
	})
}

// NewWitness returns seed unchanged; BoltStorage's "witness" is just the
// previous root bytes.
func (s *BoltStorage) NewWitness(seed stf.Witness) stf.Witness {
	return seed
}

// Roots returns every committed root in commit order, for test assertions.
func (s *BoltStorage) Roots() ([][]byte, error) {
	var out [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootsBucket)
		return b.ForEach(func(_, v []byte) error {
			out = append(out, append([]byte(nil), v...))
			return nil
		})
	})
	return out, err
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
