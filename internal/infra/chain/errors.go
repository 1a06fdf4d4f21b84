package chain

import "errors"

// ErrSignerRequired is returned by write operations when the adapter was
// configured without a private key.
var ErrSignerRequired = errors.New("chain: write operation requires a configured private key")

// ErrNoRound is returned when the Distributor has never had a root set.
var ErrNoRound = errors.New("chain: distributor has no published round")
