package storage

import (
	"encoding/binary"
	"log"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/dustin/go-humanize"
)

// HashStore is a disk-backed warm-start cache for the transposition
// table. Deep search results are mirrored here so a fresh engine
// process can skip re-searching positions it has already solved to a
// useful depth; it never substitutes for the in-memory TT, which
// stays authoritative for anything reachable during a running search.
type HashStore struct {
	db    *badger.DB
	cache *ristretto.Cache[uint64, Entry]
}

// Entry is the persisted record for one position.
type Entry struct {
	Depth    int8
	Score    int16
	Eval     int16
	Bound    uint8
	BestMove uint32
	StoredAt time.Time
}

const entrySize = 1 + 2 + 2 + 1 + 4 + 8 // Depth, Score, Eval, Bound, BestMove, StoredAt unix seconds

// Open opens (or creates) a hash store at dir. A non-nil error should
// be treated as non-fatal by callers: the persistent store only warms
// up the in-memory TT, it is never required for correct search.
func Open(dir string) (*HashStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, Entry]{
		NumCounters: 1_000_000,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &HashStore{db: db, cache: cache}, nil
}

// Close releases the underlying database and cache.
func (hs *HashStore) Close() error {
	hs.cache.Close()
	return hs.db.Close()
}

// key turns a Zobrist position hash into the store's byte key via
// xxhash, keeping the on-disk key independent of the engine's own
// Zobrist construction.
func key(posHash uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], posHash)
	h := xxhash.Sum64(buf[:])
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h)
	return out[:]
}

// Get looks up a previously stored entry, checking the in-process
// cache before falling back to Badger.
func (hs *HashStore) Get(posHash uint64) (Entry, bool) {
	if e, found := hs.cache.Get(posHash); found {
		return e, true
	}

	var e Entry
	var found bool
	err := hs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(posHash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			e = decodeEntry(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return Entry{}, false
	}
	if found {
		hs.cache.Set(posHash, e, entrySize)
	}
	return e, found
}

// Put mirrors a deep search result to disk. The engine calls this
// only for stores above a depth floor, so shallow or noisy results
// never reach the disk path.
func (hs *HashStore) Put(posHash uint64, e Entry) error {
	e.StoredAt = time.Now()
	hs.cache.Set(posHash, e, entrySize)
	return hs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(posHash), encodeEntry(e))
	})
}

func encodeEntry(e Entry) []byte {
	buf := make([]byte, entrySize)
	buf[0] = byte(e.Depth)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(e.Score))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(e.Eval))
	buf[5] = e.Bound
	binary.LittleEndian.PutUint32(buf[6:10], e.BestMove)
	binary.LittleEndian.PutUint64(buf[10:18], uint64(e.StoredAt.Unix()))
	return buf
}

func decodeEntry(buf []byte) Entry {
	if len(buf) < entrySize {
		return Entry{}
	}
	return Entry{
		Depth:    int8(buf[0]),
		Score:    int16(binary.LittleEndian.Uint16(buf[1:3])),
		Eval:     int16(binary.LittleEndian.Uint16(buf[3:5])),
		Bound:    buf[5],
		BestMove: binary.LittleEndian.Uint32(buf[6:10]),
		StoredAt: time.Unix(int64(binary.LittleEndian.Uint64(buf[10:18])), 0),
	}
}

// Size reports the on-disk size of the store as a human-readable
// string, for the diagnostic line LogSizeOnLoad writes when a store is
// opened.
func (hs *HashStore) Size() string {
	lsm, vlog := hs.db.Size()
	return humanize.Bytes(uint64(lsm + vlog))
}

// LogSizeOnLoad writes a one-line diagnostic about the loaded store.
// Not UCI protocol output, so it goes through the standard logger
// rather than stdout.
func (hs *HashStore) LogSizeOnLoad(logger *log.Logger) {
	logger.Printf("persistent hash store loaded (%s)", hs.Size())
}
