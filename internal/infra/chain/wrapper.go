package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/pkg/contracts"
)

// WrapperTotalSupply reads the vault's total outstanding shares. When
// blockNumber is nil the call is pinned to the latest block; the Round
// Publisher always passes the round's snapshot height so that total
// supply and every per-recipient balance are read as of the same block
// (spec.md §9's open question: pin wrapper reads to the snapshot,
// rather than to the moment of the call).
func (c *Client) WrapperTotalSupply(ctx context.Context, blockNumber *big.Int) (*big.Int, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	instance := c.wrapper.Instance(c.eth, c.cfg.WrapperAddr)
	data, err := instance.CallRaw(&bind.CallOpts{Context: ctx, BlockNumber: blockNumber}, c.wrapper.PackTotalSupply())
	if err != nil {
		return nil, fmt.Errorf("rpc-failure: wrapper.totalSupply: %w", err)
	}
	return c.wrapper.UnpackTotalSupply(data)
}

// WrapperBalanceOf reads a holder's vault-share balance. When blockNumber
// is nil the call is pinned to the latest block; otherwise it reads the
// historical balance at that height. The Apportioner passes the round's
// snapshot height, the same height WrapperTotalSupply is read at.
func (c *Client) WrapperBalanceOf(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	instance := c.wrapper.Instance(c.eth, c.cfg.WrapperAddr)
	data, err := instance.CallRaw(&bind.CallOpts{Context: ctx, BlockNumber: blockNumber}, c.wrapper.PackBalanceOf(account))
	if err != nil {
		return nil, fmt.Errorf("rpc-failure: wrapper.balanceOf(%s): %w", account, err)
	}
	return c.wrapper.UnpackBalanceOf(data)
}

// DepositsSince scans Deposit events on the Wrapper from fromBlock to
// toBlock (inclusive); the Recipient Set Builder unions the resulting
// depositor addresses into the round's candidate recipients.
func (c *Client) DepositsSince(ctx context.Context, fromBlock, toBlock uint64) ([]*contracts.WrapperDeposit, error) {
	logs, err := c.filterLogs(ctx, c.cfg.WrapperAddr, fromBlock, toBlock, c.wrapper.EventID())
	if err != nil {
		return nil, fmt.Errorf("failed scanning Deposit logs: %w", err)
	}

	out := make([]*contracts.WrapperDeposit, 0, len(logs))
	for i := range logs {
		ev, err := c.wrapper.UnpackDepositEvent(&logs[i])
		if err != nil {
			return nil, fmt.Errorf("failed unpacking Deposit log at block %d: %w", logs[i].BlockNumber, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// DepositOwnersSince returns the Deposit.owner address of every Deposit
// event emitted between fromBlock and toBlock, in log order and with
// duplicates kept; the Recipient Set Builder de-duplicates them.
func (c *Client) DepositOwnersSince(ctx context.Context, fromBlock, toBlock uint64) ([]common.Address, error) {
	deposits, err := c.DepositsSince(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	owners := make([]common.Address, len(deposits))
	for i, d := range deposits {
		owners[i] = d.Owner
	}
	return owners, nil
}
