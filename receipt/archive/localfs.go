package archive

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"github.com/plasmavault/fusebus/receipt"
)

// LocalFS is a filesystem-backed Archive.
//
// Receipts are stored immutably and keyed strictly by CID. The
// implementation is offline and deterministic: no network, no clock.
type LocalFS struct {
	root string
}

// NewLocalFS constructs an archive rooted at root, creating it if needed.
func NewLocalFS(root string) (*LocalFS, error) {
	if root == "" {
		return nil, errors.New("archive: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalFS{root: root}, nil
}

func (a *LocalFS) Put(bytes []byte) (cid.Cid, error) {
	id, err := receipt.ContentID(bytes)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}

	path := a.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := a.Get(id)
			if rerr != nil {
				// Exists but unreadable or corrupted: immutability violation.
				return cid.Undef, ErrImmutable
			}
			if string(existing) != string(bytes) {
				return cid.Undef, ErrImmutable
			}
			return id, nil
		}
		return cid.Undef, err
	}
	if _, err := f.Write(bytes); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return cid.Undef, err
	}
	if err := f.Close(); err != nil {
		return cid.Undef, err
	}
	return id, nil
}

func (a *LocalFS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	b, err := os.ReadFile(a.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Re-derive on read: a tampered file must never masquerade as its CID.
	got, err := receipt.ContentID(b)
	if err != nil {
		return nil, err
	}
	if !got.Equals(id) {
		return nil, ErrImmutable
	}
	return b, nil
}

func (a *LocalFS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(a.pathFor(id))
	return err == nil
}

func (a *LocalFS) pathFor(id cid.Cid) string {
	s := id.String()
	// Two-level fanout keeps directories small.
	return filepath.Join(a.root, s[len(s)-2:], s)
}
