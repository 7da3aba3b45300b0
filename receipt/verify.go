package receipt

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// VerifySignature verifies the receipt CRYPTO signature, if present.
//
// Returns (true, nil) if the receipt is signed and the signature
// verifies. Returns (false, nil) if the receipt is not signed (empty
// CRYPTO section). Returns (false, err) for malformed, non-canonical or
// invalid signatures.
func VerifySignature(receiptBytes []byte) (bool, error) {
	canon, err := Canonicalize(receiptBytes)
	if err != nil {
		return false, fmt.Errorf("canonical receipt required: %w", err)
	}

	body, err := sectionLines(canon, "CRYPTO")
	if err != nil {
		return false, err
	}
	if len(body) == 0 {
		return false, nil
	}

	sigAlg, hasAlg, err := singleField(canon, "CRYPTO", "Signature-Alg")
	if err != nil {
		return false, err
	}
	hashAlg, hasHash, err := singleField(canon, "CRYPTO", "Hash-Alg")
	if err != nil {
		return false, err
	}
	signerKey, hasKey, err := singleField(canon, "CRYPTO", "Signer-Key")
	if err != nil {
		return false, err
	}
	sigB64, hasSig, err := singleField(canon, "CRYPTO", "Signature")
	if err != nil {
		return false, err
	}

	// Partially populated CRYPTO is invalid.
	if !(hasKey && hasAlg && hasHash && hasSig) {
		return false, errors.New("CRYPTO: incomplete signature fields")
	}
	if sigAlg != algOf(signerKey) {
		return false, fmt.Errorf("CRYPTO: Signature-Alg %q does not match Signer-Key", sigAlg)
	}

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, fmt.Errorf("CRYPTO: invalid Signature encoding: %w", err)
	}
	scope, err := signatureScope(canon)
	if err != nil {
		return false, err
	}
	digest, err := digestFor(hashAlg, scope)
	if err != nil {
		return false, err
	}

	switch sigAlg {
	case "ed25519":
		pub, err := parseEd25519Key(signerKey)
		if err != nil {
			return false, err
		}
		if len(sig) != ed25519.SignatureSize {
			return false, errors.New("CRYPTO: invalid Signature length")
		}
		if !ed25519.Verify(pub, digest, sig) {
			return false, errors.New("CRYPTO: signature did not verify")
		}
		return true, nil
	case "dilithium3":
		pub, err := parseDilithium3Key(signerKey)
		if err != nil {
			return false, err
		}
		if len(sig) != mode3.SignatureSize {
			return false, errors.New("CRYPTO: invalid Signature length")
		}
		if !mode3.Verify(pub, digest, sig) {
			return false, errors.New("CRYPTO: signature did not verify")
		}
		return true, nil
	default:
		return false, fmt.Errorf("CRYPTO: unsupported Signature-Alg %q", sigAlg)
	}
}

// digestFor hashes message with one of the supported receipt hash
// algorithms: sha256, sha512, sha3-256.
func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
}

func parseEd25519Key(s string) (ed25519.PublicKey, error) {
	const prefix = "ed25519:"
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("CRYPTO: unsupported Signer-Key %q", s)
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, prefix))
	if err != nil {
		return nil, fmt.Errorf("CRYPTO: invalid Signer-Key encoding: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.New("CRYPTO: invalid Signer-Key length")
	}
	return ed25519.PublicKey(b), nil
}

func parseDilithium3Key(s string) (*mode3.PublicKey, error) {
	const prefix = "dilithium3:"
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("CRYPTO: unsupported Signer-Key %q", s)
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, prefix))
	if err != nil {
		return nil, fmt.Errorf("CRYPTO: invalid Signer-Key encoding: %w", err)
	}
	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("CRYPTO: invalid dilithium3 Signer-Key: %w", err)
	}
	return &pk, nil
}
