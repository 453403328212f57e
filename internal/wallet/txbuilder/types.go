package txbuilder

import (
	"context"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// DefaultGasMarginPercent is added on top of every gas estimate.
const DefaultGasMarginPercent = 20

// Builder assembles unsigned legacy transactions from live chain state.
type Builder interface {
	// Build resolves nonce, gas price and gas limit for the call.
	// Any chain failure is errs.ErrBuildFailed and nothing is returned.
	Build(ctx context.Context, req Request, policy Policy) (*UnsignedTransaction, error)
}

type Request struct {
	From  common.Address
	To    *common.Address
	Value *big.Int
	Data  []byte
}

// Policy controls gas pricing for a single build.
type Policy struct {
	// GasPriceGwei overrides the node's gas price when set.
	GasPriceGwei *decimal.Decimal
	// GasMarginPercent is the safety margin applied to the estimate.
	// Zero builds with the bare estimate; DefaultPolicy carries the default.
	GasMarginPercent uint64
}

func DefaultPolicy() Policy {
	return Policy{GasMarginPercent: DefaultGasMarginPercent}
}

// UnsignedTransaction is immutable once built and can be signed once.
type UnsignedTransaction struct {
	chainID  *big.Int
	from     common.Address
	to       *common.Address
	value    *big.Int
	data     []byte
	nonce    uint64
	gasPrice *big.Int
	gasLimit uint64

	consumed atomic.Bool
}

func (t *UnsignedTransaction) ChainID() *big.Int   { return new(big.Int).Set(t.chainID) }
func (t *UnsignedTransaction) From() common.Address { return t.from }
func (t *UnsignedTransaction) Value() *big.Int     { return new(big.Int).Set(t.value) }
func (t *UnsignedTransaction) Data() []byte        { return common.CopyBytes(t.data) }
func (t *UnsignedTransaction) Nonce() uint64       { return t.nonce }
func (t *UnsignedTransaction) GasPrice() *big.Int  { return new(big.Int).Set(t.gasPrice) }
func (t *UnsignedTransaction) GasLimit() uint64    { return t.gasLimit }

func (t *UnsignedTransaction) To() *common.Address {
	if t.to == nil {
		return nil
	}
	to := *t.to
	return &to
}

// Consume marks the transaction as used. It returns false if it already was.
func (t *UnsignedTransaction) Consume() bool {
	return t.consumed.CompareAndSwap(false, true)
}
