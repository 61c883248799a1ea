package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// algodAPI is the slice of the algod REST API the adapter needs.
type algodAPI interface {
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)
	SendRawTransaction(ctx context.Context, stx []byte) (string, error)
	PendingTransaction(ctx context.Context, txID string) (confirmedRound uint64, poolError string, err error)
	LastRound(ctx context.Context) (uint64, error)
	StatusAfterBlock(ctx context.Context, round uint64) (uint64, error)
	ApplicationBox(ctx context.Context, appID uint64, name []byte) ([]byte, error)
}

type algodClient struct {
	c *algod.Client
}

func newAlgodClient(server, token string) (*algodClient, error) {
	c, err := algod.MakeClient(server, token)
	if err != nil {
		return nil, err
	}
	return &algodClient{c: c}, nil
}

func (a *algodClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	return a.c.SuggestedParams().Do(ctx)
}

func (a *algodClient) SendRawTransaction(ctx context.Context, stx []byte) (string, error) {
	return a.c.SendRawTransaction(stx).Do(ctx)
}

func (a *algodClient) PendingTransaction(ctx context.Context, txID string) (uint64, string, error) {
	info, _, err := a.c.PendingTransactionInformation(txID).Do(ctx)
	if err != nil {
		return 0, "", err
	}
	return info.ConfirmedRound, info.PoolError, nil
}

func (a *algodClient) LastRound(ctx context.Context) (uint64, error) {
	status, err := a.c.Status().Do(ctx)
	if err != nil {
		return 0, err
	}
	return status.LastRound, nil
}

func (a *algodClient) StatusAfterBlock(ctx context.Context, round uint64) (uint64, error) {
	status, err := a.c.StatusAfterBlock(round).Do(ctx)
	if err != nil {
		return 0, err
	}
	return status.LastRound, nil
}

func (a *algodClient) ApplicationBox(ctx context.Context, appID uint64, name []byte) ([]byte, error) {
	box, err := a.c.GetApplicationBoxByName(appID, name).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	return box.Value, nil
}

// The SDK reports HTTP failures as plain errors carrying the status line.
func isNotFound(err error) bool {
	if errors.Is(err, ErrBoxNotFound) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "HTTP 404") || strings.Contains(msg, "box not found")
}
