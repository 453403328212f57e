package seed

import (
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

// Size is the length of a BIP39 seed in bytes.
const Size = 64

type manager struct {
	seed        []byte
	mu          sync.RWMutex
	initialized bool
}

// NewManager creates a new seed Manager
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{}
}

// NewManagerFromMnemonic is NewManager followed by Initialize.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManagerFromMnemonic(mnemonic string, passphrase string) (Manager, error) {
	m := NewManager()
	if err := m.Initialize(mnemonic, passphrase); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *manager) Initialize(mnemonic string, passphrase string) error {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if mnemonic == "" {
		return errs.New(errs.ErrInvalidSeed, "mnemonic is empty")
	}

	// PBKDF2-HMAC-SHA512, 2048 rounds, salt "mnemonic"+passphrase
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return errs.Wrap(errs.ErrInvalidSeed, err, "mnemonic failed validation")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipe()
	m.seed = seed
	m.initialized = true

	return nil
}

func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized || m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)
	return seedCopy
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.initialized
}

func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipe()
	m.initialized = false
}

func (m *manager) wipe() {
	for i := range m.seed {
		m.seed[i] = 0
	}
	m.seed = nil
}

// GenerateMnemonic returns a fresh 24-word mnemonic.
func GenerateMnemonic() (string, error) {
	const entropyBits = 256

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", errs.Wrap(errs.ErrInvalidSeed, err, "failed to generate entropy")
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errs.Wrap(errs.ErrInvalidSeed, err, "failed to encode mnemonic")
	}

	return mnemonic, nil
}
