package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Client is the subset of JSON-RPC the wallet needs. Calls are never retried.
type Client interface {
	// IsConnected reports whether any configured endpoint answers.
	IsConnected(ctx context.Context) bool

	ChainID(ctx context.Context) (*big.Int, error)

	// Balance returns the latest balance of address in wei.
	Balance(ctx context.Context, address common.Address) (*big.Int, error)

	// TransactionCount returns the pending transaction count of address.
	TransactionCount(ctx context.Context, address common.Address) (uint64, error)

	// GasPrice returns the node's suggested legacy gas price in wei.
	GasPrice(ctx context.Context) (*big.Int, error)

	// EstimateGas estimates gas for req. Unset fields are omitted from the call.
	EstimateGas(ctx context.Context, req CallRequest) (uint64, error)

	// SendRawTransaction submits an RLP-encoded signed transaction and returns its hash.
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)

	// Block returns the block at number. Transactions are only filled when includeTxs is set.
	Block(ctx context.Context, number uint64, includeTxs bool) (*Block, error)

	LatestBlockNumber(ctx context.Context) (uint64, error)

	// CallContract performs a read-only call against the latest block.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// CallRequest describes a partial transaction. Nil or empty fields are left out.
type CallRequest struct {
	From     common.Address
	To       *common.Address
	Value    *big.Int
	Data     []byte
	GasPrice *big.Int
}

func (r CallRequest) toCallMsg() ethereum.CallMsg {
	return ethereum.CallMsg{
		From:     r.From,
		To:       r.To,
		Value:    r.Value,
		Data:     r.Data,
		GasPrice: r.GasPrice,
	}
}

type Block struct {
	Number       uint64
	Hash         common.Hash
	Transactions []Transaction
}

type Transaction struct {
	Hash  common.Hash
	From  common.Address
	To    *common.Address // nil for contract creation
	Value *big.Int
}

// Backend is what RPCClient needs from a node connection.
// Both *ethclient.Client and the simulated backend client satisfy it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}
