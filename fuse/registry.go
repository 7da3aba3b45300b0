package fuse

import (
	"fmt"
	"sort"
	"sync"

	"github.com/plasmavault/fusebus/chain"
	"github.com/plasmavault/fusebus/word"
)

// Env carries the external collaborators a fuse constructor may need.
// Fields are optional; a constructor fails when a collaborator it
// requires is absent.
type Env struct {
	// Caller serves read-only external calls (chain-reader fuses).
	Caller chain.Caller
}

// Definition is a build-time fuse plugin that can construct a Fuse for
// one board slot.
//
// Definitions typically register themselves in init():
//
//	fuse.MustRegister(fuse.Definition{ ... })
//
// The binary must import the defining package for registration to occur.
type Definition struct {
	Name        string
	Description string

	// New constructs the fuse mounted at self.
	New func(self word.Address, env Env) (Fuse, error)
}

var (
	mu          sync.RWMutex
	definitions = map[string]Definition{}
)

// Register registers a fuse definition.
func Register(d Definition) error {
	if d.Name == "" {
		return fmt.Errorf("fuse: definition name is required")
	}
	if d.New == nil {
		return fmt.Errorf("fuse: definition %q missing New", d.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := definitions[d.Name]; exists {
		return fmt.Errorf("fuse: definition %q already registered", d.Name)
	}
	definitions[d.Name] = d
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(d Definition) {
	if err := Register(d); err != nil {
		panic(err)
	}
}

// List returns all registered definitions, sorted by name.
func List() []Definition {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Definition, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// New constructs the named fuse for the board slot at self.
func New(name string, self word.Address, env Env) (Fuse, error) {
	mu.RLock()
	d, ok := definitions[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fuse: unknown definition %q", name)
	}
	return d.New(self, env)
}
