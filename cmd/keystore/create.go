package keystore

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/util/command"
	"github/chapool/chat-wallet/internal/wallet"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/keystore"
	"github/chapool/chat-wallet/internal/wallet/seed"
)

type createFlags struct {
	Import bool
}

func newCreate() *cobra.Command {
	var flags createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Creates the encrypted mnemonic keystore",
		Long: `Encrypts a mnemonic into WALLET_KEYSTORE_PATH.

A fresh 24 word mnemonic is generated and printed once unless --import is given,
in which case the mnemonic is read from stdin. The password is taken from
WALLET_KEYSTORE_PASSWORD or prompted for.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			command.ConfigureLogger(cfg)

			return runCreate(cmd, cfg, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.Import, "import", false, "Read an existing mnemonic from stdin")

	return cmd
}

func runCreate(cmd *cobra.Command, cfg config.Server, flags createFlags) error {
	if cfg.Wallet.KeystorePath == "" {
		return errors.New("WALLET_KEYSTORE_PATH is required")
	}

	ks := keystore.NewService(cfg.Wallet.KeystorePath, keystore.DefaultScryptParams())

	mnemonic, err := readMnemonic(flags.Import)
	if err != nil {
		return err
	}

	password := cfg.Wallet.KeystorePassword
	if password == "" {
		password, err = wallet.PromptNewPassword()
		if err != nil {
			return err
		}
	}

	seedManager := seed.NewManager()
	defer seedManager.Clear()

	if err := wallet.CreateKeystore(cmd.Context(), ks, seedManager, address.NewDeriver(), mnemonic, cfg.Wallet.Passphrase, password); err != nil {
		return err
	}

	verification, err := ks.VerificationAddress()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !flags.Import {
		fmt.Fprintln(out, "Write down this mnemonic, it is shown only once:")
		fmt.Fprintln(out, mnemonic)
	}
	fmt.Fprintf(out, "Keystore written to %s, account 0 is %s\n", cfg.Wallet.KeystorePath, verification.Hex())

	return nil
}

func readMnemonic(fromStdin bool) (string, error) {
	if !fromStdin {
		return seed.GenerateMnemonic()
	}

	fmt.Fprint(os.Stderr, "Enter mnemonic: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "failed to read mnemonic")
	}

	return strings.Join(strings.Fields(line), " "), nil
}
