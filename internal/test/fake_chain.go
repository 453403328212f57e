package test

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/chat-wallet/internal/wallet/chain"
)

// FakeChain is an in-memory chain.Client that records every call.
// Errors set in Errs are returned by the method of the same name.
type FakeChain struct {
	mu sync.Mutex

	Connected bool
	ID        int64
	Balances  map[common.Address]*big.Int
	Nonces    map[common.Address]uint64
	Price     *big.Int
	Estimate  uint64
	Latest    uint64
	Blocks    map[uint64]*chain.Block
	Call      func(to common.Address, data []byte) ([]byte, error)
	Errs      map[string]error

	calls     []string
	Estimates []chain.CallRequest
	Sent      []*types.Transaction
}

var _ chain.Client = (*FakeChain)(nil)

func NewFakeChain() *FakeChain {
	return &FakeChain{
		Connected: true,
		ID:        ChainID,
		Balances:  make(map[common.Address]*big.Int),
		Nonces:    make(map[common.Address]uint64),
		Price:     big.NewInt(1_000_000_000),
		Estimate:  21000,
		Blocks:    make(map[uint64]*chain.Block),
		Errs:      make(map[string]error),
	}
}

// Calls returns the names of the methods invoked so far, in order.
func (f *FakeChain) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// CallCount returns how often method was invoked.
func (f *FakeChain) CallCount(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeChain) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, method)
	return f.Errs[method]
}

func (f *FakeChain) IsConnected(context.Context) bool {
	_ = f.record("IsConnected")
	return f.Connected
}

func (f *FakeChain) ChainID(context.Context) (*big.Int, error) {
	if err := f.record("ChainID"); err != nil {
		return nil, err
	}
	return big.NewInt(f.ID), nil
}

func (f *FakeChain) Balance(_ context.Context, address common.Address) (*big.Int, error) {
	if err := f.record("Balance"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if b, ok := f.Balances[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (f *FakeChain) TransactionCount(_ context.Context, address common.Address) (uint64, error) {
	if err := f.record("TransactionCount"); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Nonces[address], nil
}

func (f *FakeChain) GasPrice(context.Context) (*big.Int, error) {
	if err := f.record("GasPrice"); err != nil {
		return nil, err
	}
	return new(big.Int).Set(f.Price), nil
}

func (f *FakeChain) EstimateGas(_ context.Context, req chain.CallRequest) (uint64, error) {
	if err := f.record("EstimateGas"); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Estimates = append(f.Estimates, req)
	return f.Estimate, nil
}

// SendRawTransaction decodes raw and bumps the sender's pending nonce.
func (f *FakeChain) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	if err := f.record("SendRawTransaction"); err != nil {
		return common.Hash{}, err
	}

	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to decode raw transaction")
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "invalid sender")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if tx.Nonce() != f.Nonces[from] {
		return common.Hash{}, errors.Errorf("nonce too low: have %d, want %d", tx.Nonce(), f.Nonces[from])
	}
	f.Nonces[from]++
	f.Sent = append(f.Sent, tx)

	return tx.Hash(), nil
}

func (f *FakeChain) Block(_ context.Context, number uint64, includeTxs bool) (*chain.Block, error) {
	if err := f.record("Block"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	block, ok := f.Blocks[number]
	if !ok {
		block = &chain.Block{Number: number}
	}
	if !includeTxs {
		return &chain.Block{Number: block.Number, Hash: block.Hash}, nil
	}
	return block, nil
}

func (f *FakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	if err := f.record("LatestBlockNumber"); err != nil {
		return 0, err
	}
	return f.Latest, nil
}

func (f *FakeChain) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := f.record("CallContract"); err != nil {
		return nil, err
	}
	if f.Call == nil {
		return nil, errors.New("execution reverted")
	}
	return f.Call(to, data)
}
