// Package reconciler implements the Round Reconciler (spec component D):
// per-token "new distributable" computation from current contract
// balance minus (snapshot balance minus claims since snapshot).
package reconciler

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

// ChainReader is the subset of the Chain Adapter the Reconciler needs.
type ChainReader interface {
	ERC20BalanceOf(ctx context.Context, token, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ClaimedSince(ctx context.Context, fromBlock, toBlock uint64) ([]ClaimedEvent, error)
}

// ClaimedEvent is the subset of a Claimed log the Reconciler consumes.
type ClaimedEvent struct {
	Token  common.Address
	Amount *big.Int
}

// Reconciler computes per-token distributable amounts.
type Reconciler struct {
	chain           ChainReader
	distributorAddr common.Address
}

// New returns a Reconciler reading balances of distributorAddr.
func New(chain ChainReader, distributorAddr common.Address) *Reconciler {
	return &Reconciler{chain: chain, distributorAddr: distributorAddr}
}

// NewDistributable implements spec.md §4.D exactly: genesis rounds
// distribute the entire current balance; subsequent rounds distribute
// only the net inflow since the previous snapshot, clamped to zero on
// underflow.
func (r *Reconciler) NewDistributable(ctx context.Context, token common.Address, prev *round.Blob, claimed []ClaimedEvent, currentBalance *big.Int) (*big.Int, error) {
	if prev.IsGenesis() {
		return new(big.Int).Set(currentBalance), nil
	}

	snapshotBalance, err := r.chain.ERC20BalanceOf(ctx, token, r.distributorAddr, new(big.Int).SetUint64(prev.BlockNumber))
	if err != nil {
		return nil, fmt.Errorf("rpc-failure: snapshot balanceOf(%s) at block %d: %w", token, prev.BlockNumber, err)
	}

	claimsSince := big.NewInt(0)
	for _, c := range claimed {
		if c.Token != token {
			continue
		}
		claimsSince.Add(claimsSince, c.Amount)
	}

	// currentBalance - (snapshotBalance - claimsSince)
	withheld := new(big.Int).Sub(snapshotBalance, claimsSince)
	newDistributable := new(big.Int).Sub(currentBalance, withheld)
	if newDistributable.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return newDistributable, nil
}
