package testutil

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/storage"
)

// StoredObject is an object held by MemoryStore.
type StoredObject struct {
	Data               []byte
	ContentType        string
	ContentDisposition string
	CacheControl       string
	ACL                string
}

// Call records one mutating store operation.
type Call struct {
	Op  string
	Key string
}

// MemoryStore is an in-memory storage.Store that records mutating calls.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]map[string]*StoredObject
	calls   []Call

	// PutErr, when set, is consulted before every upload.
	PutErr func(key string) error
	// DeleteErr, when set, is consulted before every delete.
	DeleteErr func(key string) error
	// ListErr, when set, is yielded after the listed entries.
	ListErr error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string]*StoredObject)}
}

// Seed stores data under key without recording a call.
func (m *MemoryStore) Seed(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucket(bucket)[key] = &StoredObject{Data: data}
}

// Object returns the stored object, if any.
func (m *MemoryStore) Object(bucket, key string) (*StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.buckets[bucket][key]
	return obj, ok
}

// Keys returns the sorted keys held in bucket.
func (m *MemoryStore) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns the recorded mutating calls in order.
func (m *MemoryStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// List implements storage.Store.
func (m *MemoryStore) List(_ context.Context, bucket, prefix string) iter.Seq2[storage.Entry, error] {
	return func(yield func(storage.Entry, error) bool) {
		for _, key := range m.Keys(bucket) {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			obj, _ := m.Object(bucket, key)
			k := key
			etag := CalculateETag(obj.Data)
			size := int64(len(obj.Data))
			if !yield(storage.Entry{Key: &k, ETag: &etag, Size: &size}, nil) {
				return
			}
		}
		if m.ListErr != nil {
			yield(storage.Entry{}, m.ListErr)
		}
	}
}

// Put implements storage.Store.
func (m *MemoryStore) Put(_ context.Context, in *storage.PutInput) error {
	if m.PutErr != nil {
		if err := m.PutErr(in.Key); err != nil {
			m.record("put", in.Key)
			return err
		}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "put", Key: in.Key})
	m.bucket(in.Bucket)[in.Key] = &StoredObject{
		Data:               data,
		ContentType:        in.ContentType,
		ContentDisposition: in.ContentDisposition,
		CacheControl:       in.CacheControl,
		ACL:                in.ACL,
	}
	return nil
}

// Delete implements storage.Store.
func (m *MemoryStore) Delete(_ context.Context, bucket, key string) error {
	if m.DeleteErr != nil {
		if err := m.DeleteErr(key); err != nil {
			m.record("delete", key)
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "delete", Key: key})
	delete(m.bucket(bucket), key)
	return nil
}

func (m *MemoryStore) record(op, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: op, Key: key})
}

// bucket must be called with mu held.
func (m *MemoryStore) bucket(name string) map[string]*StoredObject {
	b, ok := m.buckets[name]
	if !ok {
		b = make(map[string]*StoredObject)
		m.buckets[name] = b
	}
	return b
}

// MD5Hex returns the lowercase hex MD5 of data.
func MD5Hex(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

var _ storage.Store = (*MemoryStore)(nil)
