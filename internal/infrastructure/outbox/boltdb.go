package outbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store wraps BoltDB to persist notification jobs until they are delivered.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "outbox"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue stores a job under a timestamp-ordered key.
func (s *Store) Enqueue(job Job) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	job.normalize()
	key := buildKey(job)
	job.bucketKey = []byte(key)

	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(job.bucketKey, payload)
	})
}

// GetBatch returns up to limit jobs without removing them, oldest first.
func (s *Store) GetBatch(limit int) ([]Job, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var jobs []Job
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(jobs) < limit; k, v = c.Next() {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				continue
			}
			job.bucketKey = append([]byte(nil), k...)
			jobs = append(jobs, job)
		}
		return nil
	})
	return jobs, err
}

// Remove deletes the provided job from the outbox.
func (s *Store) Remove(job Job) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(job.bucketKey) == 0 {
		return s.deleteByID(job.ID)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(job.bucketKey)
	})
}

// Requeue re-inserts a job after bumping its timestamp, so it moves to the
// back of the queue.
func (s *Store) Requeue(job Job) error {
	job.bucketKey = nil
	job.Timestamp = time.Now()
	return s.Enqueue(job)
}

// Size returns the number of pending jobs.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) deleteByID(id string) error {
	if id == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				continue
			}
			if job.ID == id {
				return c.Delete()
			}
		}
		return nil
	})
}

func buildKey(job Job) string {
	return fmt.Sprintf("%020d_%s", job.Timestamp.UnixNano(), job.ID)
}
