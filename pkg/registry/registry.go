// Package registry maps resource type names to values.
//
// Names are canonicalized to snake_case, so "ChainLadder", "chain_ladder" and
// a server-supplied "chainLadder" all point the same entry.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
)

// ToSnakeCase converts a mixed/camel case identifier into snake_case.
//
// It inserts "_" before each uppercase letter except the first character, then lowercases.
//
//	ToSnakeCase("ChainLadder") // "chain_ladder"
//	ToSnakeCase("MeyersCRC")   // "meyers_c_r_c"
//	ToSnakeCase("AR1")         // "a_r1"
//
// Input which is already snake_case is returned as it is.
func ToSnakeCase(name string) string {
	b := new(strings.Builder)
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i != 0 {
				b.WriteRune('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Registry is a name to value mapping with canonicalized keys.
//
// Zero value is not usable; use New.
type Registry[T any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]T
}

// New creates an empty Registry.
//
// kind describes what the registry holds, for error messages.
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, entries: map[string]T{}}
}

// Register adds an entry.
//
// # Returns
//
// - error: when an entry with the same canonical name has been registered.
func (r *Registry[T]) Register(name string, value T) error {
	key := ToSnakeCase(name)
	if key == "" {
		return fmt.Errorf("%s: empty name", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return fmt.Errorf("%s: %q is already registered", r.kind, key)
	}
	r.entries[key] = value
	return nil
}

// MustRegister is Register, but panics on error.
func (r *Registry[T]) MustRegister(name string, value T) *Registry[T] {
	if err := r.Register(name, value); err != nil {
		panic(err)
	}
	return r
}

// Lookup finds an entry by name.
//
// # Returns
//
// - T
//
// - error: ErrUnknownResourceType when no entry is found.
func (r *Registry[T]) Lookup(name string) (T, error) {
	key := ToSnakeCase(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	if !ok {
		return v, laerr.New(
			laerr.ErrUnknownResourceType,
			fmt.Sprintf("%s: %q is not registered", r.kind, key),
		)
	}
	return v, nil
}

// Names returns canonical names of entries, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for k := range r.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
