package publisher

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/infra/chain"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/reconciler"
)

// Chain is the full surface of the Chain Adapter the Publisher drives;
// satisfied by ClientAdapter in production (wrapping
// internal/infra/chain.Client) and by a fake in the end-to-end test
// (spec.md §8's testable properties).
type Chain interface {
	BlockNumber(ctx context.Context) (uint64, error)
	CurrentRoot(ctx context.Context) ([32]byte, error)
	CurrentCID(ctx context.Context) (string, error)
	LastProcessedBlock(ctx context.Context) (uint64, error)
	Tokens(ctx context.Context) ([]common.Address, error)
	ERC20BalanceOf(ctx context.Context, token, account common.Address, blockNumber *big.Int) (*big.Int, error)
	WrapperTotalSupply(ctx context.Context, blockNumber *big.Int) (*big.Int, error)
	WrapperBalanceOf(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	DepositOwnersSince(ctx context.Context, fromBlock, toBlock uint64) ([]common.Address, error)
	ClaimedSince(ctx context.Context, fromBlock, toBlock uint64) ([]reconciler.ClaimedEvent, error)
	PublishRoot(ctx context.Context, root [32]byte, cid string) (common.Hash, error)
	SubmitClaim(ctx context.Context, recipient, token common.Address, amount *big.Int, proof [][32]byte) (common.Hash, error)
	HasSigner() bool
}

// ClientAdapter narrows *chain.Client down to the Chain interface,
// translating pkg/contracts event types into the services packages'
// own, binding-independent event shapes.
type ClientAdapter struct {
	*chain.Client
}

// NewClientAdapter wraps a live Chain Adapter client.
func NewClientAdapter(c *chain.Client) *ClientAdapter {
	return &ClientAdapter{Client: c}
}

// ClaimedSince adapts contracts.DistributorClaimed into reconciler.ClaimedEvent.
func (a *ClientAdapter) ClaimedSince(ctx context.Context, fromBlock, toBlock uint64) ([]reconciler.ClaimedEvent, error) {
	events, err := a.Client.ClaimedSince(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	out := make([]reconciler.ClaimedEvent, len(events))
	for i, e := range events {
		out[i] = reconciler.ClaimedEvent{Token: e.Token, Amount: e.Amount}
	}
	return out, nil
}
