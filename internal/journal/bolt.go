package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketUploads = []byte("uploads") // user id -> nested bucket of entries

// Bolt keeps the journal in a local bbolt file. Entries live in one nested
// bucket per user, keyed by creation time so a reverse cursor walk yields
// the newest first.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the journal file at path.
func OpenBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketUploads)
		return createErr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create uploads bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Record(_ context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		user, err := tx.Bucket(bucketUploads).CreateBucketIfNotExists(userKey(e.UserID))
		if err != nil {
			return fmt.Errorf("user bucket: %w", err)
		}
		if err := user.Put(entryKey(e), data); err != nil {
			return fmt.Errorf("failed to store entry: %w", err)
		}
		return nil
	})
}

func (b *Bolt) Recent(_ context.Context, userID int64, limit int) ([]Entry, error) {
	var out []Entry
	err := b.db.View(func(tx *bolt.Tx) error {
		user := tx.Bucket(bucketUploads).Bucket(userKey(userID))
		if user == nil {
			return nil
		}
		c := user.Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(out) < limit); k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal entry: %w", err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) Close() error { return b.db.Close() }

func userKey(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}

// entryKey orders by creation time; the attempt ID breaks ties.
func entryKey(e Entry) []byte {
	key := make([]byte, 8, 8+16)
	binary.BigEndian.PutUint64(key, uint64(e.CreatedAt.UnixNano()))
	return append(key, e.AttemptID[:]...)
}
