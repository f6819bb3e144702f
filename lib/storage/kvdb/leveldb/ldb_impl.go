// Package leveldb registers goleveldb backed kvdb engines: "leveldb" on disk
// and "memory" for tests and ephemeral runs.
package leveldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/xuperchain/xminter/lib/storage/kvdb"
)

const (
	defMemCacheSize    = 16
	defFileHandlerSize = 64
)

func init() {
	kvdb.Register(kvdb.KVEngineTypeLDB, NewKVDBInstance)
	kvdb.Register(kvdb.KVEngineTypeMemory, NewMemInstance)
}

// LDBDatabase wraps a goleveldb handle.
type LDBDatabase struct {
	path string
	db   *leveldb.DB
}

var _ kvdb.Database = (*LDBDatabase)(nil)

// NewKVDBInstance opens an on-disk leveldb at param.DBPath.
func NewKVDBInstance(param *kvdb.KVParameter) (kvdb.Database, error) {
	if param.DBPath == "" {
		return nil, errors.New("leveldb: empty db path")
	}

	cache := param.MemCacheSize
	if cache <= 0 {
		cache = defMemCacheSize
	}
	fds := param.FileHandlersCacheSize
	if fds <= 0 {
		fds = defFileHandlerSize
	}

	db, err := leveldb.OpenFile(param.DBPath, &opt.Options{
		OpenFilesCacheCapacity: fds,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(param.DBPath, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb failed.path:%s", param.DBPath)
	}

	return &LDBDatabase{path: param.DBPath, db: db}, nil
}

// NewMemInstance opens a leveldb backed by memory storage.
func NewMemInstance(_ *kvdb.KVParameter) (kvdb.Database, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open memory leveldb failed")
	}
	return &LDBDatabase{path: ":memory:", db: db}, nil
}

func (ldb *LDBDatabase) Path() string {
	return ldb.path
}

func (ldb *LDBDatabase) Put(key, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LDBDatabase) Get(key []byte) ([]byte, error) {
	v, err := ldb.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, kvdb.ErrNotFound
	}
	return v, err
}

func (ldb *LDBDatabase) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LDBDatabase) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

func (ldb *LDBDatabase) IterPrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter := ldb.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (ldb *LDBDatabase) Close() error {
	return ldb.db.Close()
}
