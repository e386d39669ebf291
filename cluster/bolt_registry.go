package cluster

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/boltdb/bolt"
)

var seriesBucket = []byte("siridbSeriesRegistry")

// BoltSeriesRegistry is a SeriesRegistry backed by a local boltdb file.
// It only tracks name -> inferred value type; the actual point storage
// engine is an external collaborator reached separately
// through the handle it hands back.
type BoltSeriesRegistry struct {
	db    *bolt.DB
	mu    sync.Mutex
	cache map[string]*SeriesHandle
}

// OpenBoltSeriesRegistry opens (creating if necessary) the bolt file at
// path.
func OpenBoltSeriesRegistry(path string) (*BoltSeriesRegistry, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seriesBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BoltSeriesRegistry{db: db, cache: map[string]*SeriesHandle{}}, nil
}

// GetOrCreate implements SeriesRegistry. The mutex serializes concurrent
// creations of the same name;
// on the core's single-threaded event loop this only matters if a
// caller shares one registry across multiple loops.
func (r *BoltSeriesRegistry) GetOrCreate(name []byte, inferredType ValueType) (*SeriesHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := string(name)
	if h, ok := r.cache[key]; ok {
		return h, nil
	}

	var stored *SeriesHandle
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(seriesBucket).Get(name)
		if v != nil {
			stored = &SeriesHandle{Name: key, Type: ValueType(v[0])}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if stored != nil {
		r.cache[key] = stored
		return stored, nil
	}

	handle := &SeriesHandle{Name: key, Type: inferredType}
	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(seriesBucket).Put(name, []byte{byte(inferredType)})
	})
	if err != nil {
		return nil, err
	}
	r.cache[key] = handle
	return handle, nil
}

// Close releases the underlying bolt file handle.
func (r *BoltSeriesRegistry) Close() error {
	return r.db.Close()
}
