// Package address derives module addresses from signing keys. A module's
// address is conventionally the hash of the Ed25519 public key that
// published it, the same way ffi's crypto helpers in the teacher repo wrap
// real crypto primitives behind small, single-purpose functions rather than
// hand-rolling them.
package address

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/glyphlang/glyph/bytecode"
)

// schemeEd25519 is appended to the public key before hashing so that
// addresses derived under a future signing scheme can never collide with
// one derived here, even for the same 32 raw bytes.
const schemeEd25519 = 0x00

// FromPublicKey derives the Address a module published under pub would be
// assigned. It rejects keys that do not decode to a valid, non-small-order
// curve point, since such a key can never have produced a genuine
// signature.
func FromPublicKey(pub ed25519.PublicKey) (bytecode.Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return bytecode.Address{}, fmt.Errorf("address: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	if err := validatePoint(pub); err != nil {
		return bytecode.Address{}, fmt.Errorf("address: %w", err)
	}

	h := sha256.New()
	h.Write(pub)
	h.Write([]byte{schemeEd25519})

	var out bytecode.Address
	copy(out[:], h.Sum(nil))
	return out, nil
}

// validatePoint rejects public keys that do not decode to a point on the
// curve, and those of small order (including the identity), which can
// never have produced a genuine Ed25519 signature and must not be allowed
// to mint an address.
func validatePoint(pub []byte) error {
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return fmt.Errorf("not a valid curve point: %w", err)
	}

	cofactored := new(edwards25519.Point).MultByCofactor(p)
	if cofactored.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return fmt.Errorf("public key has small order")
	}
	return nil
}
