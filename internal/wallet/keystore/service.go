package keystore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/chat-wallet/internal/util"
)

const fileMode = 0o600

type service struct {
	path   string
	params ScryptParams
}

// NewService creates a keystore Service backed by the file at path
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(path string, params ScryptParams) Service {
	return &service{
		path:   path,
		params: params,
	}
}

func (s *service) Create(ctx context.Context, mnemonic string, password string, verification common.Address) error {
	log := util.LogFromContext(ctx)

	exists, err := s.Exists()
	if err != nil {
		return errors.Wrap(err, "failed to check keystore existence")
	}
	if exists {
		return errors.Errorf("keystore %s already exists", s.path)
	}

	ks, err := encryptMnemonic(mnemonic, password, verification, s.params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return errors.Wrap(err, "failed to encrypt mnemonic")
	}

	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal keystore JSON")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create keystore directory")
	}

	// O_EXCL so a concurrent Create cannot overwrite
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return errors.Wrap(err, "failed to create keystore file")
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "failed to write keystore file")
	}

	log.Info().Str("path", s.path).Str("id", ks.ID).Msg("Keystore created")

	return nil
}

func (s *service) Decrypt(ctx context.Context, password string) (string, error) {
	log := util.LogFromContext(ctx)

	ks, err := s.read()
	if err != nil {
		return "", err
	}

	mnemonic, err := decryptMnemonic(ks, password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decrypt mnemonic")
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return mnemonic, nil
}

func (s *service) VerificationAddress() (common.Address, error) {
	ks, err := s.read()
	if err != nil {
		return common.Address{}, err
	}

	if !common.IsHexAddress(ks.Address) {
		return common.Address{}, errors.Errorf("keystore %s has no verification address", s.path)
	}

	return common.HexToAddress(ks.Address), nil
}

func (s *service) read() (*KeystoreJSON, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keystore file")
	}

	var ks KeystoreJSON
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}

	return &ks, nil
}

func (s *service) Exists() (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to stat keystore file")
}
