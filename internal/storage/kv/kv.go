// Package kv defines the key-value port used by the tracking subsystem.
// Values are small JSON blobs; writes are synchronous and durable in the
// Badger-backed implementation. There is no cross-process transaction
// guarantee: two writers race with last-write-wins semantics.
package kv

import "errors"

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Close() error
}
