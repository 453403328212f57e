package keystore

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Service stores the wallet mnemonic encrypted at rest.
type Service interface {
	// Create encrypts mnemonic with password and records verification, the address
	// derived at index 0. It fails if a keystore already exists.
	Create(ctx context.Context, mnemonic string, password string, verification common.Address) error

	// Decrypt returns the mnemonic. A wrong password fails the MAC check.
	Decrypt(ctx context.Context, password string) (string, error)

	// VerificationAddress returns the address recorded by Create. It needs no password.
	VerificationAddress() (common.Address, error)

	Exists() (bool, error)
}

// KeystoreJSON is the Ethereum keystore v3 layout, holding a mnemonic instead of a key.
//
//nolint:revive // KeystoreJSON is the standard name for Ethereum keystore JSON structure
type KeystoreJSON struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

// ScryptParams defines scrypt KDF parameters
type ScryptParams struct {
	DKLen int
	N     int
	R     int
	P     int
}

// DefaultScryptParams returns the standard keystore v3 parameters.
func DefaultScryptParams() ScryptParams {
	const (
		scryptDKLen = 32
		scryptN     = 262144 // 2^18
		scryptR     = 8
		scryptP     = 1
	)

	return ScryptParams{
		DKLen: scryptDKLen,
		N:     scryptN,
		R:     scryptR,
		P:     scryptP,
	}
}

// LightScryptParams trade strength for speed, for tests and development.
func LightScryptParams() ScryptParams {
	const lightN = 4096

	p := DefaultScryptParams()
	p.N = lightN
	p.P = 6
	return p
}
