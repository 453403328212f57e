package address

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

// derivePrivateKey returns the raw 32-byte key at path.
// Caller must clear the returned slice after use.
func derivePrivateKey(seed []byte, path string) ([]byte, error) {
	const minSeedLength, maxSeedLength = 16, 64
	if len(seed) < minSeedLength || len(seed) > maxSeedLength {
		return nil, errs.Newf(errs.ErrInvalidSeed, "seed must be %d to %d bytes, got %d", minSeedLength, maxSeedLength, len(seed))
	}

	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidSeed, err, "failed to create master key")
	}

	derivedKey, err := deriveKeyFromPath(masterKey, path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidSeed, err, "failed to derive key from path")
	}

	return derivedKey.Key, nil
}

func deriveKeyFromPath(masterKey *bip32.Key, path string) (*bip32.Key, error) {
	indices, err := parseBIP44Path(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse BIP44 path")
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key, nil
}

// parseBIP44Path parses a BIP44 path string into child indices.
// Example: "m/44'/60'/0'/0/0" -> [2147483692, 2147483708, 2147483648, 0, 0]
func parseBIP44Path(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, errors.Errorf("invalid BIP44 path: %s", path)
	}

	indices := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}

		hardened := strings.HasSuffix(part, "'")
		part = strings.TrimSuffix(part, "'")

		index, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errors.Errorf("invalid path segment: %s", part)
		}

		if hardened {
			index += uint64(bip32.FirstHardenedChild)
		}

		indices = append(indices, uint32(index))
	}

	return indices, nil
}
