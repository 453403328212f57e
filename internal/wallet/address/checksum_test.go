package address_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

func TestParseAddress(t *testing.T) {
	want := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	for _, input := range []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
		"  0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed\n",
	} {
		got, err := address.ParseAddress(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
		assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", got.Hex())
	}
}

func TestParseAddressRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"hello",
		"5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAedd",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeg",
		// checksum broken by a single case flip
		"0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	} {
		_, err := address.ParseAddress(input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, errs.ErrInvalidInput), input)
	}
}

func TestSameAddress(t *testing.T) {
	a := common.HexToAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	b := common.HexToAddress("0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	assert.True(t, address.SameAddress(a, b))
	assert.False(t, address.SameAddress(a, common.Address{}))
}
