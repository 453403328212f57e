package test

// DevMnemonic is the well-known development mnemonic. Never fund it on a real network.
//
//nolint:dupword // fixed test mnemonic
const DevMnemonic = "test test test test test test test test test test test junk"
