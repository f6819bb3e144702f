package kvdb

import (
	"sync"

	"github.com/pkg/errors"
)

// KVParameter holds the options of a kv instance.
type KVParameter struct {
	DBPath                string
	KVEngineType          string
	MemCacheSize          int
	FileHandlersCacheSize int
}

const (
	KVEngineTypeLDB    = "leveldb"
	KVEngineTypeMemory = "memory"
)

var (
	ErrNotFound       = errors.New("kvdb: key not found")
	ErrEngineNotExist = errors.New("kvdb: engine not registered")
)

var (
	servsMu  sync.RWMutex
	services = make(map[string]NewStorageFunc)
)

type NewStorageFunc func(*KVParameter) (Database, error)

// Register makes an engine available under name. Engines register in init.
func Register(name string, f NewStorageFunc) {
	servsMu.Lock()
	defer servsMu.Unlock()

	if f == nil {
		panic("storage: Register new func is nil")
	}
	if _, dup := services[name]; dup {
		panic("storage: Register called twice for func " + name)
	}
	services[name] = f
}

// CreateKVInstance opens a Database with the engine named by kvParam.KVEngineType.
func CreateKVInstance(kvParam *KVParameter) (Database, error) {
	if kvParam == nil {
		return nil, errors.New("kvdb: nil parameter")
	}

	servsMu.RLock()
	f, ok := services[kvParam.KVEngineType]
	servsMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrEngineNotExist, "engine:%s", kvParam.KVEngineType)
	}

	instance, err := f(kvParam)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s instance failed", kvParam.KVEngineType)
	}
	return instance, nil
}
