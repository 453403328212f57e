package seed

// Manager holds the wallet seed in memory for the lifetime of the process.
type Manager interface {
	// Initialize converts a BIP39 mnemonic and optional passphrase into the seed.
	// An invalid mnemonic fails with errs.ErrInvalidSeed.
	Initialize(mnemonic string, passphrase string) error

	// GetSeed returns a copy of the seed, or nil before Initialize.
	GetSeed() []byte

	IsInitialized() bool

	// Clear wipes the seed from memory
	Clear()
}
