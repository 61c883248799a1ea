package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSigningRejected means the wallet declined to sign. Never retried.
	ErrSigningRejected = errors.New("signing rejected by wallet")

	// ErrConfirmationTimeout means the transaction was sent but not seen in
	// a block within the wait window. It may still confirm later; callers
	// reconcile with BoxExists before resubmitting.
	ErrConfirmationTimeout = errors.New("transaction not confirmed within wait rounds")

	// ErrTransactionRejected means the node dropped the transaction from its pool.
	ErrTransactionRejected = errors.New("transaction rejected by node")

	ErrBoxNotFound = errors.New("box not found")
)

// UpstreamError wraps a failed call to the algod node. Retrying with the
// same content key is safe.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
