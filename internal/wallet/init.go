package wallet

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/keystore"
	"github/chapool/chat-wallet/internal/wallet/seed"
	"golang.org/x/term"
)

// MinPasswordLength applies to new keystores.
const MinPasswordLength = 8

// SeedSource names where the mnemonic comes from. A plain Mnemonic takes precedence over the keystore.
type SeedSource struct {
	Mnemonic   string
	Passphrase string

	// Keystore is used when Mnemonic is empty.
	Keystore keystore.Service
	// KeystorePassword is prompted for on the terminal when empty.
	KeystorePassword string
}

// InitializeSeed loads the seed at server startup.
// Without a mnemonic it unlocks the keystore, creating one with a fresh mnemonic if none exists.
func InitializeSeed(ctx context.Context, src SeedSource, seedManager seed.Manager, deriver address.Deriver) error {
	log := log.With().Str("component", "wallet_init").Logger()

	if strings.TrimSpace(src.Mnemonic) != "" {
		if err := seedManager.Initialize(src.Mnemonic, src.Passphrase); err != nil {
			return errors.Wrap(err, "failed to initialize seed manager")
		}
		log.Info().Msg("Seed manager initialized from mnemonic")
		return nil
	}

	if src.Keystore == nil {
		return errors.New("neither a mnemonic nor a keystore is configured")
	}

	exists, err := src.Keystore.Exists()
	if err != nil {
		return errors.Wrap(err, "failed to check keystore existence")
	}

	if !exists {
		log.Info().Msg("Keystore not found. Generating new mnemonic...")

		mnemonic, err := seed.GenerateMnemonic()
		if err != nil {
			return err
		}

		password := src.KeystorePassword
		if password == "" {
			password, err = PromptNewPassword()
			if err != nil {
				return err
			}
		}

		if err := CreateKeystore(ctx, src.Keystore, seedManager, deriver, mnemonic, src.Passphrase, password); err != nil {
			return err
		}

		log.Warn().Msg("New mnemonic generated. Back it up with the keystore password, it cannot be recovered otherwise")
		return nil
	}

	log.Info().Msg("Keystore found. Unlocking...")

	password := src.KeystorePassword
	if password == "" {
		password, err = PromptPassword("Enter keystore password: ")
		if err != nil {
			return errors.Wrap(err, "failed to read password")
		}
	}

	mnemonic, err := src.Keystore.Decrypt(ctx, password)
	if err != nil {
		return errors.Wrap(err, "failed to decrypt keystore (invalid password?)")
	}

	if err := seedManager.Initialize(mnemonic, src.Passphrase); err != nil {
		return errors.Wrap(err, "failed to initialize seed manager")
	}

	valid, err := VerifySeedByAddress(ctx, seedManager, deriver, src.Keystore)
	if err != nil {
		seedManager.Clear()
		return errors.Wrap(err, "failed to verify seed")
	}
	if !valid {
		seedManager.Clear()
		return errors.New("seed verification failed: derived address does not match keystore (wrong passphrase?)")
	}

	log.Info().Msg("Seed manager initialized from keystore")
	return nil
}

// CreateKeystore initializes seedManager with mnemonic and writes it to ks encrypted with password.
func CreateKeystore(ctx context.Context, ks keystore.Service, seedManager seed.Manager, deriver address.Deriver, mnemonic string, passphrase string, password string) error {
	if len(password) < MinPasswordLength {
		return errors.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	if err := seedManager.Initialize(mnemonic, passphrase); err != nil {
		return errors.Wrap(err, "failed to initialize seed manager")
	}

	verification, err := DeriveVerificationAddress(seedManager, deriver)
	if err != nil {
		return err
	}

	if err := ks.Create(ctx, mnemonic, password, verification); err != nil {
		seedManager.Clear()
		return errors.Wrap(err, "failed to create keystore")
	}

	log.Info().Str("verification_address", verification.Hex()).Msg("Keystore created successfully")
	return nil
}

// PromptNewPassword asks twice and enforces MinPasswordLength.
func PromptNewPassword() (string, error) {
	password, err := PromptPassword(fmt.Sprintf("Enter password for keystore (min %d characters): ", MinPasswordLength))
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}

	if len(password) < MinPasswordLength {
		return "", errors.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	passwordConfirm, err := PromptPassword("Confirm password: ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password confirmation")
	}

	if password != passwordConfirm {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}

// PromptPassword reads a password from the terminal without echo.
//
//nolint:forbidigo // Password input requires direct terminal I/O
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	fmt.Fprintln(os.Stderr)

	return string(passwordBytes), nil
}
