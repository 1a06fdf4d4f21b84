package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ERC20BalanceOf reads a reward token balance. When blockNumber is nil
// the call reads the current balance; otherwise it reads the historical
// balance at that height. The Round Reconciler uses both: the current
// balance to compute this round's distributable amount, and the
// previous round's block height to reproduce the prior snapshot.
func (c *Client) ERC20BalanceOf(ctx context.Context, token, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	instance := c.erc20.Instance(c.eth, token)
	data, err := instance.CallRaw(&bind.CallOpts{Context: ctx, BlockNumber: blockNumber}, c.erc20.PackBalanceOf(account))
	if err != nil {
		return nil, fmt.Errorf("rpc-failure: erc20(%s).balanceOf(%s): %w", token, account, err)
	}
	return c.erc20.UnpackBalanceOf(data)
}
