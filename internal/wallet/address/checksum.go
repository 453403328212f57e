package address

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

// ParseAddress validates user-supplied text as an EVM address.
// Single-case hex is accepted as is; mixed-case hex must carry a valid EIP-55 checksum.
// Failures are errs.ErrInvalidInput.
func ParseAddress(text string) (common.Address, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
		return common.Address{}, errs.Newf(errs.ErrInvalidInput, "address %q must start with 0x", text)
	}

	mixed, err := common.NewMixedcaseAddressFromString(text)
	if err != nil {
		return common.Address{}, errs.Wrap(errs.ErrInvalidInput, err, "malformed address")
	}

	digits := text[2:]
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) && !mixed.ValidChecksum() {
		return common.Address{}, errs.Newf(errs.ErrInvalidInput, "address %q has an invalid checksum", text)
	}

	return mixed.Address(), nil
}

// SameAddress compares two addresses in canonical checksummed form.
func SameAddress(a, b common.Address) bool {
	return strings.EqualFold(a.Hex(), b.Hex())
}
