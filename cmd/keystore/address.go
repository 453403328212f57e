package keystore

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/wallet/keystore"
)

func newAddress() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Prints the account 0 address stored in the keystore",
		Long:  `Reads the verification address from WALLET_KEYSTORE_PATH without decrypting the mnemonic.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			if cfg.Wallet.KeystorePath == "" {
				return errors.New("WALLET_KEYSTORE_PATH is required")
			}

			addr, err := keystore.NewService(cfg.Wallet.KeystorePath, keystore.DefaultScryptParams()).VerificationAddress()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
			return nil
		},
	}
}
