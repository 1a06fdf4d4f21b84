package publisher

import "errors"

// Error kinds per spec.md §7.
var (
	ErrConfigMissing    = errors.New("publisher: required configuration missing")
	ErrRPCFailure       = errors.New("publisher: rpc failure")
	ErrBlobStoreFailure = errors.New("publisher: blob store failure")
	ErrValidationFailed = errors.New("publisher: validation failed")
	ErrProofNotFound    = errors.New("publisher: proof not found")
	ErrSignerRequired   = errors.New("publisher: signer required for write operation")
	ErrTxReverted       = errors.New("publisher: transaction reverted")
)
