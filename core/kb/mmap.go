package kb

import (
	"encoding/binary"
	"fmt"
	"os"
	"syscall"

	"ruleminer/core/atom"
)

// tripleRecordSize is the on-disk width of one triple: three uint32
// positions, big-endian.
const tripleRecordSize = 12

// IndexEntry locates one relation's contiguous run of triple records
// within a mmap'd block file.
type IndexEntry struct {
	Relation uint32
	Offset   int64
	Count    int64
}

// TripleIndex memory-maps a flat triple-block file for bulk read-only
// corpora, trading load time for a zero-copy read path: large KBs that
// don't fit comfortably through badger's LSM tree can be served directly
// from the page cache.
type TripleIndex struct {
	file  *os.File
	data  []byte
	index []IndexEntry
}

// OpenTripleIndex mmaps path (a flat sequence of 12-byte triple records)
// and associates it with a prebuilt index table describing which byte
// range belongs to which relation.
func OpenTripleIndex(path string, index []IndexEntry) (*TripleIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("kb: open triple block %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("kb: stat triple block: %w", err)
	}
	data, err := mmapSlice(f, 0, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("kb: mmap triple block: %w", err)
	}
	return &TripleIndex{file: f, data: data, index: index}, nil
}

func mmapSlice(f *os.File, off int64, size int64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	return syscall.Mmap(int(f.Fd()), off, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
}

func (t *TripleIndex) TriplesForRelation(relation uint32) []atom.Triple {
	for _, e := range t.index {
		if e.Relation != relation {
			continue
		}
		out := make([]atom.Triple, 0, e.Count)
		for i := int64(0); i < e.Count; i++ {
			start := e.Offset + i*tripleRecordSize
			rec := t.data[start : start+tripleRecordSize]
			out = append(out, atom.Triple{
				binary.BigEndian.Uint32(rec[0:4]),
				binary.BigEndian.Uint32(rec[4:8]),
				binary.BigEndian.Uint32(rec[8:12]),
			})
		}
		return out
	}
	return nil
}

func (t *TripleIndex) RelationSize(relation uint32) int {
	for _, e := range t.index {
		if e.Relation == relation {
			return int(e.Count)
		}
	}
	return 0
}

func (t *TripleIndex) Relations() []uint32 {
	out := make([]uint32, len(t.index))
	for i, e := range t.index {
		out[i] = e.Relation
	}
	return out
}

func (t *TripleIndex) Close() error {
	if t.data != nil {
		if err := syscall.Munmap(t.data); err != nil {
			return err
		}
	}
	return t.file.Close()
}
