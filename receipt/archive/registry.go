package archive

import (
	"flag"
	"fmt"
	"sort"
	"sync"
)

// Backend is a build-time plugin that can open an Archive implementation.
//
// Backends register themselves in init(); a binary enables a backend by
// importing its package.
type Backend struct {
	Name        string
	Description string

	// RegisterFlags adds backend-specific flags to fs.
	// It must be safe to call exactly once per process.
	RegisterFlags func(fs *flag.FlagSet)

	// Open constructs the Archive using values parsed into flags
	// registered by RegisterFlags.
	Open func() (Archive, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("archive: backend name is required")
	}
	if b.RegisterFlags == nil {
		return fmt.Errorf("archive: backend %q missing RegisterFlags", b.Name)
	}
	if b.Open == nil {
		return fmt.Errorf("archive: backend %q missing Open", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("archive: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns all registered backends, sorted by name.
func List() []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns all registered backend names, sorted.
func Names() []string {
	bs := List()
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// RegisterFlags registers flags for all backends.
//
// This enables single-pass flag parsing (Go's flag package rejects
// unknown flags).
func RegisterFlags(fs *flag.FlagSet) {
	for _, b := range List() {
		b.RegisterFlags(fs)
	}
}

// Open opens the named backend if it exists.
func Open(name string) (Archive, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown archive backend %q", name)
	}
	return b.Open()
}

var flagLocalDir string

func init() {
	MustRegister(Backend{
		Name:          "memory",
		Description:   "In-memory receipt archive (discarded on exit)",
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open: func() (Archive, error) {
			return NewMemory(), nil
		},
	})
	MustRegister(Backend{
		Name:        "localfs",
		Description: "Local filesystem receipt archive (directory)",
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagLocalDir, "archive-dir", "", "archive directory (for --archive=localfs)")
		},
		Open: func() (Archive, error) {
			if flagLocalDir == "" {
				return nil, fmt.Errorf("missing --archive-dir")
			}
			return NewLocalFS(flagLocalDir)
		},
	})
}
