// Package dictionary loads named term dictionaries into matchers from files,
// directories, and PostgreSQL. Sources run during startup; afterwards the
// Registry serves concurrent lookups, and runtime term additions go through
// LoadTerms, which swaps in an extended copy of the matcher so in-flight
// scans are never disturbed.
package dictionary

import (
	"sort"
	"sync"

	"github.com/annotext/annotation-platform/internal/matcher"
	apperrors "github.com/annotext/annotation-platform/pkg/errors"
)

// Registry maps dictionary names to their matchers.
type Registry struct {
	matchers map[string]*matcher.Matcher
	mu       sync.RWMutex
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{matchers: make(map[string]*matcher.Matcher)}
}

// Add returns the matcher for name, creating it if absent. Sources call Add
// during startup and load into the returned matcher before it sees any Match
// traffic; once a matcher is being matched against, callers must extend it
// through LoadTerms instead.
func (r *Registry) Add(name string) *matcher.Matcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matchers[name]
	if !ok {
		m = matcher.New()
		r.matchers[name] = m
	}
	return m
}

// LoadTerms adds terms to the named dictionary, creating it if absent, and
// returns the number of terms inserted. The current matcher is never mutated
// in place: the terms are loaded into a clone, which then replaces the
// original, so concurrent Match calls see either the old term set or the new
// one but never a half-built trie.
func (r *Registry) LoadTerms(name string, terms []string) int {
	r.mu.RLock()
	current, ok := r.matchers[name]
	r.mu.RUnlock()

	next := matcher.New()
	if ok {
		next = current.Clone()
	}
	loaded := 0
	for _, term := range terms {
		loaded += next.LoadTerm(term)
	}

	r.mu.Lock()
	// Another loader may have swapped in a newer matcher while we were
	// cloning; re-clone on top of it so their terms are not lost.
	if latest, ok := r.matchers[name]; ok && latest != current {
		next = latest.Clone()
		loaded = 0
		for _, term := range terms {
			loaded += next.LoadTerm(term)
		}
	}
	r.matchers[name] = next
	r.mu.Unlock()
	return loaded
}

// Matcher returns the matcher for name, or ErrDictionaryUnknown.
func (r *Registry) Matcher(name string) (*matcher.Matcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matchers[name]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrDictionaryUnknown, 404, "dictionary %q not loaded", name)
	}
	return m, nil
}

// Names returns the loaded dictionary names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.matchers))
	for name := range r.matchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TermCounts returns the number of loaded terms per dictionary.
func (r *Registry) TermCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int, len(r.matchers))
	for name, m := range r.matchers {
		counts[name] = m.TermCount()
	}
	return counts
}

// Size returns the number of loaded dictionaries.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matchers)
}
