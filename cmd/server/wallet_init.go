package server

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/wallet"
	"github/chapool/chat-wallet/internal/wallet/keystore"
)

// initializeWallet loads the seed into the server's seed manager at startup,
// from WALLET_MNEMONIC or by unlocking the keystore.
func initializeWallet(ctx context.Context, s *api.Server) error {
	src := wallet.SeedSource{
		Mnemonic:         s.Config.Wallet.Mnemonic,
		Passphrase:       s.Config.Wallet.Passphrase,
		KeystorePassword: s.Config.Wallet.KeystorePassword,
	}
	if s.Config.Wallet.KeystorePath != "" {
		src.Keystore = keystore.NewService(s.Config.Wallet.KeystorePath, keystore.DefaultScryptParams())
	}

	if err := wallet.InitializeSeed(ctx, src, s.SeedManager, s.Deriver); err != nil {
		return errors.Wrap(err, "failed to initialize seed")
	}

	verification, err := wallet.DeriveVerificationAddress(s.SeedManager, s.Deriver)
	if err != nil {
		return errors.Wrap(err, "failed to derive verification address")
	}

	log.Info().
		Str("account_0", verification.Hex()).
		Msg("Wallet initialized")

	return nil
}
