// Package userdict keeps words a user taught the speller. Entries are
// matched case-insensitively and sit on top of the compiled lexicon.
package userdict

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bastiangx/wordspell/pkg/errs"
)

// Store is a set of user words.
type Store interface {
	Add(ctx context.Context, word string) error
	Remove(ctx context.Context, word string) error
	Contains(ctx context.Context, word string) (bool, error)
	All(ctx context.Context) ([]string, error)
	Close() error
}

// Normalize returns the stored form of word.
func Normalize(word string) (string, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return "", fmt.Errorf("%w: empty word", errs.ErrInvalidInput)
	}
	return w, nil
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	words map[string]struct{}
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{words: make(map[string]struct{})}
}

func (m *MemoryStore) Add(_ context.Context, word string) error {
	w, err := Normalize(word)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.words[w] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, word string) error {
	w, err := Normalize(word)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.words, w)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Contains(_ context.Context, word string) (bool, error) {
	w, err := Normalize(word)
	if err != nil {
		return false, nil
	}
	m.mu.RLock()
	_, ok := m.words[w]
	m.mu.RUnlock()
	return ok, nil
}

// All returns the words in byte order.
func (m *MemoryStore) All(_ context.Context) ([]string, error) {
	m.mu.RLock()
	out := make([]string, 0, len(m.words))
	for w := range m.words {
		out = append(out, w)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
