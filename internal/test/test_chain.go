package test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/params"
	"github/chapool/chat-wallet/internal/wallet/chain"
)

// ChainID of the in-process test chain.
const ChainID = 31337

// Ether is 10^18 wei.
var Ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Chain is an in-process chain. Transactions are mined on Commit.
type Chain struct {
	Backend *simulated.Backend
	Client  *chain.RPCClient
}

func WithTestChain(t *testing.T, alloc types.GenesisAlloc, closure func(c *Chain)) {
	t.Helper()

	closure(NewTestChain(t, alloc))
}

// NewTestChain starts a simulated chain with ChainID and the given balances.
// It is closed when the test finishes.
func NewTestChain(t *testing.T, alloc types.GenesisAlloc) *Chain {
	t.Helper()

	backend := simulated.NewBackend(alloc, withChainID(ChainID))
	t.Cleanup(func() {
		_ = backend.Close()
	})

	return &Chain{
		Backend: backend,
		Client:  chain.NewClient(backend.Client()),
	}
}

// Commit mines pending transactions into a new block.
func (c *Chain) Commit() {
	c.Backend.Commit()
}

func withChainID(id int64) func(*node.Config, *ethconfig.Config) {
	return func(_ *node.Config, ethConf *ethconfig.Config) {
		cfg := *params.AllDevChainProtocolChanges
		cfg.ChainID = big.NewInt(id)
		ethConf.Genesis.Config = &cfg
		ethConf.NetworkId = uint64(id)
	}
}

// Ethers returns n ether in wei.
func Ethers(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Ether)
}
