// Package store provides the key-value backends for the theme preference.
package store

import (
	"sync"
)

// Memory is an in-process store. It lives as long as the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// KV is the interface every backend satisfies.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Prefixed scopes every key of an underlying store under a prefix, so one
// table can hold a preference per visitor.
type Prefixed struct {
	kv     KV
	prefix string
}

// WithPrefix returns kv with every key prefixed by prefix and a colon.
func WithPrefix(kv KV, prefix string) *Prefixed {
	return &Prefixed{kv: kv, prefix: prefix + ":"}
}

// Get reads prefix:key.
func (p *Prefixed) Get(key string) (string, bool, error) {
	return p.kv.Get(p.prefix + key)
}

// Set writes prefix:key.
func (p *Prefixed) Set(key, value string) error {
	return p.kv.Set(p.prefix+key, value)
}
