package kb

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"ruleminer/core/atom"
)

// BadgerKB is a disk-backed KB, adapted from the same transaction-shaped
// wrapper this codebase uses for its other badger-backed store: one key
// prefix per concern, db.View for reads, db.Update for writes. Keys here
// are 12 bytes, the big-endian relation id followed by a big-endian
// per-relation sequence number, so
// TriplesForRelation is a prefix scan rather than a full-table scan, and a
// maintained in-memory relation-size counter avoids re-scanning on every
// RelationSize call.
type BadgerKB struct {
	db *badger.DB

	mu    sync.RWMutex
	sizes map[uint32]int
}

// OpenBadgerKB opens (creating if absent) a badger database rooted at
// dataDir/badger.
func OpenBadgerKB(dataDir string) (*BadgerKB, error) {
	dbPath := filepath.Join(dataDir, "badger")
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("kb: open badger at %s: %w", dbPath, err)
	}
	b := &BadgerKB{db: db, sizes: make(map[uint32]int)}
	if err := b.reindexSizes(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func relationKey(relation uint32, seq uint64) []byte {
	key := make([]byte, 4+8)
	binary.BigEndian.PutUint32(key[:4], relation)
	binary.BigEndian.PutUint64(key[4:], seq)
	return key
}

func tripleValue(t atom.Triple) []byte {
	val := make([]byte, 8)
	binary.BigEndian.PutUint32(val[:4], t[0])
	binary.BigEndian.PutUint32(val[4:], t[2])
	return val
}

func decodeTriple(relation uint32, val []byte) atom.Triple {
	return atom.Triple{binary.BigEndian.Uint32(val[:4]), relation, binary.BigEndian.Uint32(val[4:])}
}

func (b *BadgerKB) reindexSizes() error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if len(key) != 12 {
				continue
			}
			relation := binary.BigEndian.Uint32(key[:4])
			b.sizes[relation]++
		}
		return nil
	})
}

// Load writes triples into the KB, assigning each a sequence number within
// its relation's key prefix.
func (b *BadgerKB) Load(triples []atom.Triple) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	seqByRelation := make(map[uint32]uint64)
	for r, n := range b.sizes {
		seqByRelation[r] = uint64(n)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for _, t := range triples {
			relation := t[1]
			seq := seqByRelation[relation]
			if err := txn.Set(relationKey(relation, seq), tripleValue(t)); err != nil {
				return fmt.Errorf("kb: set triple: %w", err)
			}
			seqByRelation[relation] = seq + 1
			b.sizes[relation]++
		}
		return nil
	})
}

func (b *BadgerKB) TriplesForRelation(relation uint32) []atom.Triple {
	var out []atom.Triple
	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, relation)
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			_ = item.Value(func(val []byte) error {
				out = append(out, decodeTriple(relation, val))
				return nil
			})
		}
		return nil
	})
	return out
}

func (b *BadgerKB) RelationSize(relation uint32) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sizes[relation]
}

func (b *BadgerKB) Relations() []uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]uint32, 0, len(b.sizes))
	for r := range b.sizes {
		out = append(out, r)
	}
	return out
}

func (b *BadgerKB) Close() error {
	return b.db.Close()
}
