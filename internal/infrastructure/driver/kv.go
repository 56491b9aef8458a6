package driver

import "errors"

// ErrKeyNotFound requested key has no value in the store
var ErrKeyNotFound = errors.New("key not found")

// KeyValueDB key-value device storage interface. Values are JSON-serialized
// strings; keys are namespaced per course by the callers.
type KeyValueDB interface {
	Set(key string, value string) error
	Get(key string) (string, error)
	Delete(key string) error
	Exists(key string) (bool, error)
	Ping() error
	Close() error
}
