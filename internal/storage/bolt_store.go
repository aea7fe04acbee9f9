package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	runBucket        = "runs"
	expiryValueBytes = 8
	timeKeyBytes     = 8
)

// boltStore implements a Store backed by BoltDB. Keys are the big-endian
// finish time followed by run id and scenario, so cursor order is time order.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	recordTTL       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		recordTTL:       opts.RecordTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// RecordOutcome stores rec until the record TTL elapses.
func (b *boltStore) RecordOutcome(rec Record) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = now
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	value := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(value, uint64(now.Add(b.recordTTL).Unix()))
	value = append(value, payload...)

	return b.db.Update(func(tx *bolt.Tx) error {
		return runs(tx).Put(recordKey(rec), value)
	})
}

// Recent returns up to limit unexpired records, newest first.
func (b *boltStore) Recent(limit int) ([]Record, error) {
	if b == nil || b.db == nil || limit <= 0 {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	out := make([]Record, 0, limit)
	err := b.db.View(func(tx *bolt.Tx) error {
		cursor := runs(tx).Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			if !live(v, now) {
				continue
			}
			var rec Record
			if err := json.Unmarshal(v[expiryValueBytes:], &rec); err != nil {
				return fmt.Errorf("decode record %q: %w", k, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired sweeps expired records at most once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if !b.cleanupDue(now) {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()
	if !b.cleanupDue(now) {
		return nil
	}

	if err := b.db.Update(func(tx *bolt.Tx) error { return sweepExpired(runs(tx), now) }); err != nil {
		return fmt.Errorf("sweep expired runs: %w", err)
	}
	b.lastCleanup.Store(now.Unix())
	return nil
}

func (b *boltStore) cleanupDue(now time.Time) bool {
	return now.Sub(time.Unix(b.lastCleanup.Load(), 0)) >= b.cleanupInterval
}

// sweepExpired deletes every record whose expiry is not after now. Keys are
// collected first since bbolt cursors must not be mutated mid-iteration.
func sweepExpired(bucket *bolt.Bucket, now time.Time) error {
	var expired [][]byte
	_ = bucket.ForEach(func(k, v []byte) error {
		if !live(v, now) {
			expired = append(expired, append([]byte(nil), k...))
		}
		return nil
	})
	for _, k := range expired {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// runs returns the run bucket, created in openBolt.
func runs(tx *bolt.Tx) *bolt.Bucket { return tx.Bucket([]byte(runBucket)) }

func recordKey(rec Record) []byte {
	key := make([]byte, timeKeyBytes, timeKeyBytes+len(rec.RunID)+len(rec.Scenario)+1)
	binary.BigEndian.PutUint64(key, uint64(rec.FinishedAt.UnixNano()))
	key = append(key, rec.RunID...)
	key = append(key, '/')
	key = append(key, rec.Scenario...)
	return key
}

// live reports whether a stored value's expiry prefix is still ahead of now.
func live(value []byte, now time.Time) bool {
	if len(value) < expiryValueBytes {
		return false
	}
	expiry := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	return expiry > now.Unix()
}
