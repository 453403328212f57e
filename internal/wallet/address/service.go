package address

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

type deriver struct{}

// NewDeriver creates the EVM account deriver
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewDeriver() Deriver {
	return deriver{}
}

// Path format: m/44'/60'/0'/0/{index}
func (deriver) Path(index uint32) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", index)
}

func (d deriver) Derive(seed []byte, index uint32) (*Account, error) {
	if index >= bip32.FirstHardenedChild {
		return nil, errs.Newf(errs.ErrInvalidInput, "account index %d out of range", index)
	}

	path := d.Path(index)
	privateKey, err := derivePrivateKey(seed, path)
	if err != nil {
		return nil, err
	}

	defer func() {
		for i := range privateKey {
			privateKey[i] = 0
		}
	}()

	ecdsaPrivateKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidSeed, err, "derived key is not a valid secp256k1 scalar")
	}

	return &Account{
		Index:      index,
		Path:       path,
		Address:    crypto.PubkeyToAddress(ecdsaPrivateKey.PublicKey),
		PrivateKey: ecdsaPrivateKey,
	}, nil
}
