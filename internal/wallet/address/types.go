package address

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Account is a derived signing keypair. It is never persisted.
type Account struct {
	Index      uint32
	Path       string
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// Deriver maps (seed, index) to an Account along m/44'/60'/0'/0/{index}.
// Implementations hold no mutable state and are safe for concurrent use.
type Deriver interface {
	// Derive fails with errs.ErrInvalidSeed if seed is not a valid BIP32 seed
	// and with errs.ErrInvalidInput if index is outside the non-hardened range.
	Derive(seed []byte, index uint32) (*Account, error)

	// Path returns the BIP44 path for index
	Path(index uint32) string
}
