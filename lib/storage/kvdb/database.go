package kvdb

// Database is the kv surface used by the balance snapshot store.
type Database interface {
	Put(key, value []byte) error
	// Get returns ErrNotFound when key is absent.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	// IterPrefix calls fn for every key with prefix in key order and stops at the first error.
	IterPrefix(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}
