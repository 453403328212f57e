// Package amount converts between user-entered decimal text and integer base units.
package amount

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

// NativeDecimals is the base-unit scale of the native asset (wei per ETH).
const NativeDecimals uint8 = 18

// GweiDecimals is the scale of gwei relative to wei.
const GweiDecimals uint8 = 9

// maxDigits is the decimal length of 2^256-1.
const maxDigits = 78

// MaxUint256 is the largest amount any on-chain value can carry.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Parse converts non-negative decimal text to base units, scaling by 10^decimals
// and truncating toward zero. Malformed, negative or larger than uint256 input
// is errs.ErrInvalidInput.
func Parse(text string, decimals uint8) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.New(errs.ErrInvalidInput, "amount is empty")
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidInput, err, "amount is not a decimal number")
	}

	if d.IsNegative() {
		return nil, errs.Newf(errs.ErrInvalidInput, "amount %s is negative", text)
	}

	if d.IsZero() {
		return new(big.Int), nil
	}

	// digits left of the point once scaled, checked before any big integer is built
	intDigits := int64(d.NumDigits()) + int64(d.Exponent()) + int64(decimals)
	if intDigits <= 0 {
		return new(big.Int), nil
	}
	if intDigits > maxDigits {
		return nil, errs.Newf(errs.ErrInvalidInput, "amount %s is too large", text)
	}

	units := ToBaseUnits(d, decimals)
	if units.Cmp(MaxUint256) > 0 {
		return nil, errs.Newf(errs.ErrInvalidInput, "amount %s is too large", text)
	}
	return units, nil
}

// ToBaseUnits scales d by 10^decimals and truncates toward zero.
func ToBaseUnits(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Truncate(0).BigInt()
}

// GweiToWei converts a gwei amount to wei, truncating fractional wei.
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return ToBaseUnits(gwei, GweiDecimals)
}

// Format renders base units as decimal text without trailing zeros.
func Format(units *big.Int, decimals uint8) string {
	if units == nil {
		return "0"
	}
	return decimal.NewFromBigInt(units, -int32(decimals)).String()
}
