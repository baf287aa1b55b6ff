// Package bolt implements the ability to read and write pool checkpoints
// to an embedded bbolt database file. Headers are kept per sequence for
// audit reads while the latest snapshot is rewritten in full on every save.
package bolt

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/liquidstake/foundation/staking/store"
	"go.etcd.io/bbolt"
)

var (
	bucketHeaders = []byte("checkpoint_headers")
	bucketLatest  = []byte("latest")
)

var keyLatest = []byte("snapshot")

// Compile-time interface check.
var _ store.Store = (*Bolt)(nil)

// Bolt represents the storage implementation for reading and storing
// checkpoints in a bbolt database. This implements the store.Store
// interface.
type Bolt struct {
	db *bbolt.DB
}

// New opens or creates the bbolt database at dbPath. The parent directory
// is created if it does not exist.
func New(dbPath string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketHeaders, bucketLatest} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Save writes the checkpoint header and replaces the latest snapshot in a
// single transaction.
func (b *Bolt) Save(snap store.Snapshot) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		hb := tx.Bucket(bucketHeaders)

		expected := uint64(hb.Stats().KeyN) + 1
		if snap.Header.Sequence != expected {
			return fmt.Errorf("checkpoint out of order, got %d, exp %d", snap.Header.Sequence, expected)
		}

		header, err := encodeGob(snap.Header)
		if err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
		if err := hb.Put(sequenceKey(snap.Header.Sequence), header); err != nil {
			return fmt.Errorf("put header: %w", err)
		}

		data, err := encodeGob(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if err := tx.Bucket(bucketLatest).Put(keyLatest, data); err != nil {
			return fmt.Errorf("put snapshot: %w", err)
		}

		return nil
	})
}

// Latest returns the most recent snapshot. The bool reports whether any
// checkpoint has been written yet.
func (b *Bolt) Latest() (store.Snapshot, bool, error) {
	var snap store.Snapshot
	var exists bool

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketLatest).Get(keyLatest)
		if data == nil {
			return nil
		}

		if err := decodeGob(data, &snap); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		exists = true

		return nil
	})
	if err != nil {
		return store.Snapshot{}, false, err
	}

	return snap, exists, nil
}

// Header returns the checkpoint header for the specified sequence.
func (b *Bolt) Header(sequence uint64) (store.CheckpointHeader, error) {
	var header store.CheckpointHeader

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketHeaders).Get(sequenceKey(sequence))
		if data == nil {
			return fmt.Errorf("checkpoint %d does not exist", sequence)
		}

		return decodeGob(data, &header)
	})
	if err != nil {
		return store.CheckpointHeader{}, err
	}

	return header, nil
}

// Count returns the number of checkpoints written.
func (b *Bolt) Count() (uint64, error) {
	var count uint64

	err := b.db.View(func(tx *bbolt.Tx) error {
		count = uint64(tx.Bucket(bucketHeaders).Stats().KeyN)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Reset will clear out all the checkpoints.
func (b *Bolt) Reset() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketHeaders, bucketLatest} {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("delete bucket %q: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("recreate bucket %q: %w", name, err)
			}
		}
		return nil
	})
}

// =============================================================================

// sequenceKey encodes a checkpoint sequence as an 8-byte big-endian key for
// sorted storage.
func sequenceKey(sequence uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, sequence)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
