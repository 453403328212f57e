package signer

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

const recoveryIDOffset = 27

func (s *service) SignMessage(account *address.Account, text string) ([]byte, error) {
	if account == nil || account.PrivateKey == nil {
		return nil, errs.New(errs.ErrSigning, "account has no private key")
	}

	sig, err := crypto.Sign(accounts.TextHash([]byte(text)), account.PrivateKey)
	if err != nil {
		return nil, errs.Wrap(errs.ErrSigning, err, "failed to sign message")
	}

	sig[crypto.RecoveryIDOffset] += recoveryIDOffset

	return sig, nil
}

func (s *service) RecoverSigner(text string, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, errs.Newf(errs.ErrVerification, "signature must be %d bytes, got %d", SignatureLength, len(signature))
	}

	sig := common.CopyBytes(signature)
	switch v := sig[crypto.RecoveryIDOffset]; v {
	case 0, 1:
	case recoveryIDOffset, recoveryIDOffset + 1:
		sig[crypto.RecoveryIDOffset] = v - recoveryIDOffset
	default:
		return common.Address{}, errs.Newf(errs.ErrVerification, "invalid recovery id %d", v)
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(text)), sig)
	if err != nil {
		return common.Address{}, errs.Wrap(errs.ErrVerification, err, "failed to recover public key")
	}

	return crypto.PubkeyToAddress(*pub), nil
}

func (s *service) Verify(addr common.Address, text string, signature []byte) (bool, error) {
	recovered, err := s.RecoverSigner(text, signature)
	if err != nil {
		return false, err
	}

	return address.SameAddress(recovered, addr), nil
}
