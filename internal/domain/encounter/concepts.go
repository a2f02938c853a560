package encounter

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// UnknownConceptError reports an observation or diagnosis naming a concept
// absent from the store dictionary.
type UnknownConceptError struct {
	Name string
}

func (e *UnknownConceptError) Error() string {
	return fmt.Sprintf("unknown concept %q", e.Name)
}

// ConceptCache memoizes concept lookups for the duration of one import job.
// It is constructed per job and handed to the builder by reference, so warm
// entries are shared across concurrently processed rows without surviving
// into unrelated jobs. Safe for concurrent use.
type ConceptCache struct {
	repo ConceptRepository

	mu     sync.Mutex
	byName map[string]*Concept
}

func NewConceptCache(repo ConceptRepository) *ConceptCache {
	return &ConceptCache{
		repo:   repo,
		byName: make(map[string]*Concept),
	}
}

// Get resolves a concept name through the cache. Unknown names are not
// cached, so a dictionary fix mid-job is picked up.
func (c *ConceptCache) Get(ctx context.Context, name string) (*Concept, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	c.mu.Lock()
	cached, ok := c.byName[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	concept, err := c.repo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolving concept %q: %w", name, err)
	}
	if concept == nil {
		return nil, &UnknownConceptError{Name: name}
	}

	c.mu.Lock()
	c.byName[key] = concept
	c.mu.Unlock()
	return concept, nil
}
