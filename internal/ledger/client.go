// Package ledger writes report content keys to the TrustChain application
// on Algorand and reads them back by box name.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/contentkey"
	"github.com/algorand/go-algorand-sdk/v2/abi"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

const (
	SubmitMethod      = "submit_report(address,string)uint64"
	DefaultWaitRounds = 4
)

type Config struct {
	Server     string
	Token      string
	AppID      uint64
	WaitRounds uint64
}

// Receipt identifies a confirmed ledger write.
type Receipt struct {
	TxID           string
	ConfirmedRound uint64
	Key            contentkey.Key
}

type Client struct {
	api        algodAPI
	appID      uint64
	waitRounds uint64
	method     abi.Method
}

func NewClient(cfg Config) (*Client, error) {
	api, err := newAlgodClient(cfg.Server, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create algod client: %w", err)
	}
	return newClient(api, cfg.AppID, cfg.WaitRounds)
}

func newClient(api algodAPI, appID, waitRounds uint64) (*Client, error) {
	if appID == 0 {
		return nil, errors.New("application id is required")
	}
	if waitRounds == 0 {
		waitRounds = DefaultWaitRounds
	}
	method, err := abi.MethodFromSignature(SubmitMethod)
	if err != nil {
		return nil, fmt.Errorf("failed to parse method signature: %w", err)
	}
	return &Client{api: api, appID: appID, waitRounds: waitRounds, method: method}, nil
}

func (c *Client) AppID() uint64 {
	return c.appID
}

// BuildSubmitTx builds the unsigned NoOp application call that stores key.
// App args are the method selector, the ABI-encoded sender and the
// ABI-encoded key string. The box reference uses key.BoxName().
func (c *Client) BuildSubmitTx(ctx context.Context, sender string, key contentkey.Key) (types.Transaction, error) {
	if key.IsZero() {
		return types.Transaction{}, contentkey.ErrInvalidKey
	}
	addr, err := types.DecodeAddress(sender)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("invalid sender address: %w", err)
	}

	args, err := c.encodeArgs(addr, key)
	if err != nil {
		return types.Transaction{}, err
	}

	sp, err := c.api.SuggestedParams(ctx)
	if err != nil {
		return types.Transaction{}, upstream("suggested params", err)
	}

	boxes := []types.AppBoxReference{{AppID: c.appID, Name: key.BoxName()}}
	tx, err := transaction.MakeApplicationNoOpTxWithBoxes(
		c.appID, args, nil, nil, nil, boxes, sp, addr,
		nil, types.Digest{}, [32]byte{}, types.Address{},
	)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to build application call: %w", err)
	}
	return tx, nil
}

func (c *Client) encodeArgs(addr types.Address, key contentkey.Key) ([][]byte, error) {
	addrType, err := abi.TypeOf("address")
	if err != nil {
		return nil, err
	}
	strType, err := abi.TypeOf("string")
	if err != nil {
		return nil, err
	}
	encAddr, err := addrType.Encode(addr[:])
	if err != nil {
		return nil, fmt.Errorf("failed to encode sender: %w", err)
	}
	encKey, err := strType.Encode(key.String())
	if err != nil {
		return nil, fmt.Errorf("failed to encode key: %w", err)
	}
	return [][]byte{c.method.GetSelector(), encAddr, encKey}, nil
}

// SubmitReport builds, signs, sends and confirms the write of key. On
// ErrConfirmationTimeout the returned receipt still carries the tx id.
func (c *Client) SubmitReport(ctx context.Context, sender string, key contentkey.Key, signer Signer) (*Receipt, error) {
	tx, err := c.BuildSubmitTx(ctx, sender, key)
	if err != nil {
		return nil, err
	}

	stx, err := signer.Sign(ctx, tx)
	if err != nil {
		if errors.Is(err, ErrSigningRejected) {
			return nil, ErrSigningRejected
		}
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	txID, err := c.api.SendRawTransaction(ctx, stx)
	if err != nil {
		return nil, upstream("send transaction", err)
	}
	slog.Info("report transaction sent", "tx_id", txID, "key", key.String(), "app_id", c.appID)

	receipt := &Receipt{TxID: txID, Key: key}
	round, err := c.WaitForConfirmation(ctx, txID)
	if err != nil {
		return receipt, err
	}
	receipt.ConfirmedRound = round
	return receipt, nil
}

// WaitForConfirmation polls the pending pool until txID lands in a block or
// the wait window of c.waitRounds rounds passes.
func (c *Client) WaitForConfirmation(ctx context.Context, txID string) (uint64, error) {
	last, err := c.api.LastRound(ctx)
	if err != nil {
		return 0, upstream("status", err)
	}

	start := last + 1
	for round := start; round < start+c.waitRounds; round++ {
		confirmed, poolErr, err := c.api.PendingTransaction(ctx, txID)
		if err == nil {
			if confirmed > 0 {
				return confirmed, nil
			}
			if poolErr != "" {
				return 0, fmt.Errorf("%w: %s", ErrTransactionRejected, poolErr)
			}
		} else {
			slog.Warn("pending transaction lookup failed", "tx_id", txID, "error", err)
		}

		if _, err := c.api.StatusAfterBlock(ctx, round); err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, upstream("status after block", err)
		}
	}
	return 0, ErrConfirmationTimeout
}

// BoxExists reports whether the application already holds a box for key.
func (c *Client) BoxExists(ctx context.Context, key contentkey.Key) (bool, error) {
	_, err := c.api.ApplicationBox(ctx, c.appID, key.BoxName())
	if errors.Is(err, ErrBoxNotFound) {
		return false, nil
	}
	if err != nil {
		return false, upstream("read box", err)
	}
	return true, nil
}
