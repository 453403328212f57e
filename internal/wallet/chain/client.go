package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

// RPCClient implements Client over one or more endpoints with failover.
// The first healthy endpoint, in configured order, serves each call.
type RPCClient struct {
	urls     []string
	backends []Backend
	dial     func(url string) (Backend, error)

	mu      sync.RWMutex
	current int

	chainIDMu sync.Mutex
	chainID   *big.Int
}

var _ Client = (*RPCClient)(nil)

// NewRPCClient dials every url. Unreachable urls are retried lazily on use.
func NewRPCClient(urls []string) (*RPCClient, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	c := &RPCClient{
		urls:     urls,
		backends: make([]Backend, len(urls)),
		dial:     dialEthclient,
	}

	connected := false
	for i, url := range urls {
		backend, err := c.dial(url)
		if err != nil {
			log.Warn().
				Str("url", url).
				Err(err).
				Msg("Failed to connect to RPC node, will retry on use")
			continue
		}
		c.backends[i] = backend
		connected = true
	}

	if !connected {
		return nil, errs.New(errs.ErrChainUnavailable, "failed to connect to any RPC node")
	}

	return c, nil
}

// NewClient wraps already connected backends, e.g. a simulated chain.
func NewClient(backends ...Backend) *RPCClient {
	return &RPCClient{
		urls:     make([]string, len(backends)),
		backends: backends,
	}
}

func dialEthclient(url string) (Backend, error) {
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Close closes all backend connections that support it
func (c *RPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, backend := range c.backends {
		if closer, ok := backend.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}

func (c *RPCClient) IsConnected(ctx context.Context) bool {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return false
	}

	_, err = backend.ChainID(ctx)
	return err == nil
}

// ChainID is fetched once and cached after the first successful call.
func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainIDMu.Lock()
	defer c.chainIDMu.Unlock()

	if c.chainID == nil {
		backend, err := c.getBackend(ctx)
		if err != nil {
			return nil, err
		}

		chainID, err := backend.ChainID(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get chain ID")
		}
		c.chainID = chainID
	}

	return new(big.Int).Set(c.chainID), nil
}

func (c *RPCClient) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := backend.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}

	return balance, nil
}

func (c *RPCClient) TransactionCount(ctx context.Context, address common.Address) (uint64, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return 0, err
	}

	nonce, err := backend.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending nonce")
	}

	return nonce, nil
}

func (c *RPCClient) GasPrice(ctx context.Context) (*big.Int, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return nil, err
	}

	price, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest gas price")
	}

	return price, nil
}

func (c *RPCClient) EstimateGas(ctx context.Context, req CallRequest) (uint64, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return 0, err
	}

	gas, err := backend.EstimateGas(ctx, req.toCallMsg())
	if err != nil {
		return 0, errors.Wrap(err, "failed to estimate gas")
	}

	return gas, nil
}

func (c *RPCClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to decode raw transaction")
	}

	backend, err := c.getBackend(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	if err := backend.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to send transaction")
	}

	return tx.Hash(), nil
}

func (c *RPCClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return 0, err
	}

	number, err := backend.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get latest block number")
	}

	return number, nil
}

func (c *RPCClient) Block(ctx context.Context, number uint64, includeTxs bool) (*Block, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return nil, err
	}

	blockNumber := new(big.Int).SetUint64(number)

	if !includeTxs {
		header, err := backend.HeaderByNumber(ctx, blockNumber)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get header %d", number)
		}
		return &Block{Number: header.Number.Uint64(), Hash: header.Hash()}, nil
	}

	block, err := backend.BlockByNumber(ctx, blockNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get block %d", number)
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	signer := types.LatestSignerForChainID(chainID)

	result := &Block{
		Number:       block.NumberU64(),
		Hash:         block.Hash(),
		Transactions: make([]Transaction, 0, len(block.Transactions())),
	}

	for _, tx := range block.Transactions() {
		from, err := types.Sender(signer, tx)
		if err != nil {
			log.Warn().
				Str("tx_hash", tx.Hash().Hex()).
				Err(err).
				Msg("Failed to recover transaction sender, skipping")
			continue
		}

		result.Transactions = append(result.Transactions, Transaction{
			Hash:  tx.Hash(),
			From:  from,
			To:    tx.To(),
			Value: tx.Value(),
		})
	}

	return result, nil
}

func (c *RPCClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	backend, err := c.getBackend(ctx)
	if err != nil {
		return nil, err
	}

	out, err := backend.CallContract(ctx, CallRequest{To: &to, Data: data}.toCallMsg(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call contract")
	}

	return out, nil
}

// getBackend returns the first healthy backend starting at the current one.
// With a single backend no health probe is made.
func (c *RPCClient) getBackend(ctx context.Context) (Backend, error) {
	c.mu.RLock()
	if len(c.backends) == 1 && c.backends[0] != nil {
		backend := c.backends[0]
		c.mu.RUnlock()
		return backend, nil
	}
	start := c.current
	c.mu.RUnlock()

	for i := 0; i < len(c.backends); i++ {
		idx := (start + i) % len(c.backends)

		backend := c.backendAt(idx)
		if backend == nil {
			continue
		}

		if _, err := backend.ChainID(ctx); err != nil {
			log.Warn().
				Str("url", c.urls[idx]).
				Err(err).
				Msg("RPC client health check failed, trying next")
			continue
		}

		c.mu.Lock()
		c.current = idx
		c.mu.Unlock()

		return backend, nil
	}

	return nil, errs.New(errs.ErrChainUnavailable, "all RPC clients are unavailable")
}

// backendAt returns the backend at idx, dialing it first if it never connected.
func (c *RPCClient) backendAt(idx int) Backend {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backends[idx] == nil && c.dial != nil && c.urls[idx] != "" {
		backend, err := c.dial(c.urls[idx])
		if err != nil {
			return nil
		}
		c.backends[idx] = backend
	}

	return c.backends[idx]
}
