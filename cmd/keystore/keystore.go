package keystore

import (
	"github.com/spf13/cobra"
	"github/chapool/chat-wallet/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newCreate(),
		newAddress(),
	)
}
