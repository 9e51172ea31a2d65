package memstore

import (
	"context"
	"sync"
)

// Settings is a map-backed system_settings table.
type Settings struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSettings returns a settings store seeded with values.
func NewSettings(values map[string]string) *Settings {
	s := &Settings{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the value for key; ok is false when it was never set.
func (s *Settings) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.  Later reads see it immediately.
func (s *Settings) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
