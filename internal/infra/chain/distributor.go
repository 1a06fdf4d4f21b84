package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/pkg/contracts"
)

// CurrentRoot reads the Distributor's currently published Merkle root.
// A zero root means no round has ever been published.
func (c *Client) CurrentRoot(ctx context.Context) ([32]byte, error) {
	if err := c.acquire(ctx); err != nil {
		return [32]byte{}, err
	}
	defer c.release()
	if err := c.throttle(ctx); err != nil {
		return [32]byte{}, err
	}

	instance := c.distributor.Instance(c.eth, c.cfg.DistributorAddr)
	data, err := instance.CallRaw(&bind.CallOpts{Context: ctx}, c.distributor.PackRoot())
	if err != nil {
		return [32]byte{}, fmt.Errorf("rpc-failure: distributor.root: %w", err)
	}
	return c.distributor.UnpackRoot(data)
}

// CurrentCID reads the Distributor's currently published blob CID.
func (c *Client) CurrentCID(ctx context.Context) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	defer c.release()
	if err := c.throttle(ctx); err != nil {
		return "", err
	}

	instance := c.distributor.Instance(c.eth, c.cfg.DistributorAddr)
	data, err := instance.CallRaw(&bind.CallOpts{Context: ctx}, c.distributor.PackCid())
	if err != nil {
		return "", fmt.Errorf("rpc-failure: distributor.cid: %w", err)
	}
	return c.distributor.UnpackCid(data)
}

// LastProcessedBlock reads the block height the previous round was
// reconciled against.
func (c *Client) LastProcessedBlock(ctx context.Context) (uint64, error) {
	if err := c.acquire(ctx); err != nil {
		return 0, err
	}
	defer c.release()
	if err := c.throttle(ctx); err != nil {
		return 0, err
	}

	instance := c.distributor.Instance(c.eth, c.cfg.DistributorAddr)
	data, err := instance.CallRaw(&bind.CallOpts{Context: ctx}, c.distributor.PackLastProcessedBlock())
	if err != nil {
		return 0, fmt.Errorf("rpc-failure: distributor.lastProcessedBlock: %w", err)
	}
	n, err := c.distributor.UnpackLastProcessedBlock(data)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Tokens reads the set of reward tokens the Distributor currently tracks.
func (c *Client) Tokens(ctx context.Context) ([]common.Address, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	instance := c.distributor.Instance(c.eth, c.cfg.DistributorAddr)
	data, err := instance.CallRaw(&bind.CallOpts{Context: ctx}, c.distributor.PackGetTokens())
	if err != nil {
		return nil, fmt.Errorf("rpc-failure: distributor.getTokens: %w", err)
	}
	return c.distributor.UnpackGetTokens(data)
}

// PublishRoot submits setMerkleRoot(root, cid) to the Distributor and
// waits for the transaction to be mined.
func (c *Client) PublishRoot(ctx context.Context, root [32]byte, cid string) (common.Hash, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	instance := c.distributor.Instance(c.eth, c.cfg.DistributorAddr)
	tx, err := instance.RawTransact(opts, c.distributor.PackSetMerkleRoot(root, cid))
	if err != nil {
		return common.Hash{}, fmt.Errorf("rpc-failure: distributor.setMerkleRoot: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return tx.Hash(), fmt.Errorf("failed waiting for setMerkleRoot to be mined: %w", err)
	}
	if receipt.Status == 0 {
		return tx.Hash(), fmt.Errorf("setMerkleRoot transaction reverted: %s", tx.Hash())
	}
	return tx.Hash(), nil
}

// SubmitClaim submits claim(recipient, token, amount, proof) to the
// Distributor and waits for the transaction to be mined.
func (c *Client) SubmitClaim(ctx context.Context, recipient, token common.Address, amount *big.Int, proof [][32]byte) (common.Hash, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	instance := c.distributor.Instance(c.eth, c.cfg.DistributorAddr)
	tx, err := instance.RawTransact(opts, c.distributor.PackClaim(recipient, token, amount, proof))
	if err != nil {
		return common.Hash{}, fmt.Errorf("rpc-failure: distributor.claim: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return tx.Hash(), fmt.Errorf("failed waiting for claim to be mined: %w", err)
	}
	if receipt.Status == 0 {
		return tx.Hash(), fmt.Errorf("claim transaction reverted: %s", tx.Hash())
	}
	return tx.Hash(), nil
}

// ClaimedSince scans Claimed events on the Distributor from fromBlock to
// toBlock (inclusive), used by the Round Reconciler to net out what has
// already been paid out of a token's tracked balance.
func (c *Client) ClaimedSince(ctx context.Context, fromBlock, toBlock uint64) ([]*contracts.DistributorClaimed, error) {
	logs, err := c.filterLogs(ctx, c.cfg.DistributorAddr, fromBlock, toBlock, c.distributor.EventID())
	if err != nil {
		return nil, fmt.Errorf("failed scanning Claimed logs: %w", err)
	}

	out := make([]*contracts.DistributorClaimed, 0, len(logs))
	for i := range logs {
		ev, err := c.distributor.UnpackClaimedEvent(&logs[i])
		if err != nil {
			return nil, fmt.Errorf("failed unpacking Claimed log at block %d: %w", logs[i].BlockNumber, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
