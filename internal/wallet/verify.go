package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/keystore"
	"github/chapool/chat-wallet/internal/wallet/seed"
)

// VerificationAddressIndex is the derivation index recorded in the keystore to detect a wrong passphrase.
const VerificationAddressIndex = 0

// DeriveVerificationAddress derives the address at VerificationAddressIndex.
func DeriveVerificationAddress(seedManager seed.Manager, deriver address.Deriver) (common.Address, error) {
	seedBytes := seedManager.GetSeed()
	if seedBytes == nil {
		return common.Address{}, errors.New("seed not initialized")
	}
	defer clear(seedBytes)

	account, err := deriver.Derive(seedBytes, VerificationAddressIndex)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive verification address")
	}

	return account.Address, nil
}

// VerifySeedByAddress compares the loaded seed against the keystore's verification address.
// The MAC only proves the keystore password. A different BIP39 passphrase yields another seed.
func VerifySeedByAddress(_ context.Context, seedManager seed.Manager, deriver address.Deriver, keystoreService keystore.Service) (bool, error) {
	log := log.With().Str("component", "seed_verification").Logger()

	derived, err := DeriveVerificationAddress(seedManager, deriver)
	if err != nil {
		return false, err
	}

	stored, err := keystoreService.VerificationAddress()
	if err != nil {
		return false, errors.Wrap(err, "failed to read verification address")
	}

	if !address.SameAddress(derived, stored) {
		log.Error().
			Str("derived", derived.Hex()).
			Str("stored", stored.Hex()).
			Msg("Verification address mismatch")
		return false, nil
	}

	log.Info().Str("address", derived.Hex()).Msg("Verification address matches")
	return true, nil
}
