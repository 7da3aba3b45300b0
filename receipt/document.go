package receipt

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/plasmavault/fusebus/vault"
)

// Document is a first-class receipt evidence object.
//
// Bytes are canonical receipt bytes. CID is derived from Bytes: an
// IPFS-compatible CIDv1 (raw + sha2-256), so two executions with the
// same observable effects produce the same identifier.
type Document struct {
	Bytes []byte
	CID   string
}

// ContentID returns a CIDv1 (raw + sha2-256) derived from data.
func ContentID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// NewDocumentFromBytes canonicalizes receipt bytes and computes the CID.
func NewDocumentFromBytes(receiptBytes []byte) (*Document, error) {
	canon, err := Canonicalize(receiptBytes)
	if err != nil {
		return nil, err
	}
	id, err := ContentID(canon)
	if err != nil {
		return nil, err
	}
	return &Document{Bytes: canon, CID: id.String()}, nil
}

// RenderDocument renders an outcome and returns a canonical Document.
func RenderDocument(out *vault.Outcome, opts RenderOptions) (*Document, error) {
	b, err := Render(out, opts)
	if err != nil {
		return nil, err
	}
	return NewDocumentFromBytes(b)
}
