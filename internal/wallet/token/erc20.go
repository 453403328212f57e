package token

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EncodeTransfer returns calldata for transfer(to, amount).
func EncodeTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transfer")
	}
	return data, nil
}

func encodeBalanceOf(owner common.Address) ([]byte, error) {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode balanceOf")
	}
	return data, nil
}

func encodeDecimals() ([]byte, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode decimals")
	}
	return data, nil
}

func decodeBalanceOf(out []byte) (*big.Int, error) {
	values, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode balanceOf")
	}

	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected balanceOf type %T", values[0])
	}
	return balance, nil
}

func decodeDecimals(out []byte) (uint8, error) {
	values, err := erc20ABI.Unpack("decimals", out)
	if err != nil {
		return 0, errors.Wrap(err, "failed to decode decimals")
	}

	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, errors.Errorf("unexpected decimals type %T", values[0])
	}
	return decimals, nil
}
