package jokerepo

import (
	"context"
	"math/rand"
	"sync"

	"github.com/kowalskibot/assistant/internal/domain/assistant"
)

var defaultJokes = []string{
	"Perché i programmatori confondono Halloween e Natale? Perché OCT 31 è uguale a DEC 25.",
	"Cosa fa un pinguino con il computer rotto? Lo porta dal tecnico del ghiaccio.",
	"Qual è il colmo per un elettricista? Non essere al corrente.",
	"Perché il libro di matematica è triste? Perché ha troppi problemi.",
	"Cosa dice uno zero a un otto? Bella cintura!",
}

// MemoryRepository is an in-memory joke catalog used for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	jokes []string
}

// NewMemoryRepository constructs a repo seeded with the default catalog.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		jokes: append([]string(nil), defaultJokes...),
	}
}

// NewMemoryRepositoryWith constructs a repo over the given jokes.
func NewMemoryRepositoryWith(jokes []string) *MemoryRepository {
	return &MemoryRepository{
		jokes: append([]string(nil), jokes...),
	}
}

// Joke returns a random joke, or empty when the catalog is empty.
func (r *MemoryRepository) Joke(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.jokes) == 0 {
		return "", nil
	}
	return r.jokes[rand.Intn(len(r.jokes))], nil
}

var _ assistant.JokeProvider = (*MemoryRepository)(nil)
