// Package archive stores receipt documents by content identifier.
package archive

import (
	"errors"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/plasmavault/fusebus/receipt"
)

// Archive is a minimal content-addressed receipt store.
//
// Contract:
//   - Put MUST be idempotent.
//   - Stored receipts MUST be immutable.
//   - CIDs MUST be derived from the bytes written (callers supply
//     canonical receipt bytes).
//   - Get MUST return ErrNotFound when the CID is absent.
type Archive interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

var (
	ErrNotFound   = errors.New("archive: not found")
	ErrInvalidCID = errors.New("archive: invalid cid")
	ErrImmutable  = errors.New("archive: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Memory is an in-process Archive, primarily for tests and dry runs.
type Memory struct {
	mu      sync.RWMutex
	objects map[cid.Cid][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[cid.Cid][]byte)}
}

func (m *Memory) Put(bytes []byte) (cid.Cid, error) {
	id, err := receipt.ContentID(bytes)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[id]; !exists {
		m.objects[id] = append([]byte(nil), bytes...)
	}
	return id, nil
}

func (m *Memory) Get(id cid.Cid) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Has(id cid.Cid) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id]
	return ok
}
