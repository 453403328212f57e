package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/wallet/chain"
)

const defaultProbeTimeout = 10 * time.Second

type chainFlags struct {
	Timeout time.Duration
}

func newChain() *cobra.Command {
	var flags chainFlags

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Checks that an RPC endpoint answers",
		Long: `Connects to the configured RPC endpoints and prints the chain id and latest block.

Exits non-zero when no endpoint answers.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChain(cmd.Context(), flags)
		},
	}

	cmd.Flags().DurationVarP(&flags.Timeout, "timeout", "t", defaultProbeTimeout, "Timeout for the probe")

	return cmd
}

func runChain(ctx context.Context, flags chainFlags) error {
	cfg := config.DefaultServiceConfigFromEnv()

	ctx, cancel := context.WithTimeout(ctx, flags.Timeout)
	defer cancel()

	client, err := chain.NewRPCClient(cfg.Chain.RPCURLs)
	if err != nil {
		return err
	}
	defer client.Close()

	if !client.IsConnected(ctx) {
		return errors.New("chain unavailable: no RPC endpoint answers")
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		return err
	}

	latest, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("chain_id=%s latest_block=%d configured_chain_id=%d\n", id, latest, cfg.Chain.ChainID)
	return nil
}
