package main

import "sync"

// documentStore keeps the last accepted submission per collection.
type documentStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[string]map[string]any)}
}

func (s *documentStore) Get(slug string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[slug]
}

func (s *documentStore) Put(slug string, values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[slug] = values
}
