package ledger

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Signer is the wallet collaborator. Sign returns the msgpack-encoded signed
// transaction, or ErrSigningRejected when the holder declines.
type Signer interface {
	Address() string
	Sign(ctx context.Context, tx types.Transaction) ([]byte, error)
}

// MnemonicSigner signs with a key recovered from a 25-word Algorand mnemonic.
type MnemonicSigner struct {
	account crypto.Account
}

func NewMnemonicSigner(phrase string) (*MnemonicSigner, error) {
	sk, err := mnemonic.ToPrivateKey(phrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	return NewKeySigner(sk)
}

func NewKeySigner(sk ed25519.PrivateKey) (*MnemonicSigner, error) {
	account, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &MnemonicSigner{account: account}, nil
}

func (s *MnemonicSigner) Address() string {
	return s.account.Address.String()
}

func (s *MnemonicSigner) Sign(ctx context.Context, tx types.Transaction) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, stx, err := crypto.SignTransaction(s.account.PrivateKey, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return stx, nil
}
