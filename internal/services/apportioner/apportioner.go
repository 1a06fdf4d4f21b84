// Package apportioner implements the Apportioner (spec component F):
// pro-rata split of a token's new distributable across the round's
// candidate recipients by wrapper share, with an operator fee skim.
package apportioner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

// ChainReader is the subset of the Chain Adapter the Apportioner needs.
type ChainReader interface {
	WrapperBalanceOf(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Apportioner splits a token's new distributable by wrapper share.
type Apportioner struct {
	chain ChainReader
	// FeeBasisPoints is floor(operatorFeePercent * 100), e.g. a 10.0%
	// fee is 1000 basis points. Kept as an integer to keep floating
	// point out of the allocation critical path (spec.md §9).
	FeeBasisPoints int64
}

// BasisPointsDenominator is the divisor FeeBasisPoints is expressed
// against (e.g. 1000 basis points == 10%).
const BasisPointsDenominator = 10_000

var basisPointsDenominator = big.NewInt(BasisPointsDenominator)

var e18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// New returns an Apportioner charging the given operator fee percent
// (e.g. 10.0 meaning 10%).
func New(chain ChainReader, operatorFeePercent float64) *Apportioner {
	return &Apportioner{
		chain:          chain,
		FeeBasisPoints: int64(operatorFeePercent * 100),
	}
}

// Apportion skims the operator fee, then splits the remainder across
// candidates proportional to their snapshot-height wrapper-share
// balance. Recipients with zero balance, or whose allocation comes out
// to zero, are skipped entirely — no zero-amount rows are emitted.
func (a *Apportioner) Apportion(ctx context.Context, token common.Address, newDistributable, totalSupply *big.Int, candidates []common.Address, blockNumber *big.Int) ([]round.Claim, error) {
	if totalSupply.Sign() == 0 || newDistributable.Sign() == 0 {
		return nil, nil
	}

	feeAmount := new(big.Int).Mul(newDistributable, big.NewInt(a.FeeBasisPoints))
	feeAmount.Div(feeAmount, basisPointsDenominator)
	actual := new(big.Int).Sub(newDistributable, feeAmount)

	type holding struct {
		recipient common.Address
		balance   *big.Int
	}
	var holdings []holding
	for _, candidate := range candidates {
		bal, err := a.chain.WrapperBalanceOf(ctx, candidate, blockNumber)
		if err != nil {
			return nil, fmt.Errorf("rpc-failure: wrapper.balanceOf(%s): %w", candidate, err)
		}
		if bal.Sign() == 0 {
			continue
		}
		holdings = append(holdings, holding{recipient: candidate, balance: bal})
	}
	if len(holdings) == 0 {
		return nil, nil
	}

	var allocations []round.Claim
	allocated := new(big.Int)
	for i, h := range holdings {
		var alloc *big.Int
		if i == len(holdings)-1 {
			// The last holder settles against what's left of actual
			// instead of its own floor share, so the allocations never
			// sum to more than actual. When a fee applies and the round
			// has more than one holder, that settlement also reserves a
			// wei of rounding margin; it rolls into the next round's
			// inflow as dust.
			alloc = new(big.Int).Sub(actual, allocated)
			if a.FeeBasisPoints > 0 && len(holdings) > 1 {
				alloc.Sub(alloc, big.NewInt(1))
			}
		} else {
			share := new(big.Int).Mul(h.balance, e18)
			share.Div(share, totalSupply)

			alloc = new(big.Int).Mul(actual, share)
			alloc.Div(alloc, e18)
			allocated.Add(allocated, alloc)
		}

		if alloc.Sign() <= 0 {
			continue
		}

		allocations = append(allocations, round.Claim{
			Recipient: h.recipient,
			Token:     token,
			Amount:    alloc,
		})
	}
	return allocations, nil
}
