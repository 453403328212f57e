package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDecimals is assumed when neither the registry nor the contract reports decimals.
const DefaultDecimals uint8 = 18

// Descriptor identifies an ERC-20 token registered for a chat.
type Descriptor struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Decimals *uint8         `json:"decimals,omitempty"`
}

// Store is the per-chat token registry.
type Store interface {
	// GetToken returns nil without error when symbol is not registered for chatID.
	GetToken(ctx context.Context, chatID int64, symbol string) (*Descriptor, error)
	// PutToken stores d under (chatID, d.Symbol). Last writer wins.
	PutToken(ctx context.Context, chatID int64, d Descriptor) error
}

// View resolves registered tokens and reads ERC-20 state.
type View interface {
	// Resolve looks symbol up case-insensitively. Unregistered symbols are errs.ErrUnknownToken.
	Resolve(ctx context.Context, chatID int64, symbol string) (*Descriptor, error)

	// Decimals returns the registered decimals, else the contract's, else DefaultDecimals.
	Decimals(ctx context.Context, d *Descriptor) uint8

	// Register stores a token with an uppercase symbol and checksummed address.
	Register(ctx context.Context, chatID int64, symbol string, addr common.Address, decimals *uint8) (*Descriptor, error)

	// Balance returns holder's balance of d in base units.
	Balance(ctx context.Context, d *Descriptor, holder common.Address) (*big.Int, error)
}
