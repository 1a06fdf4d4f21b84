package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// logsPerQueryCap bounds a single eth_getLogs call; wide round spans are
// split into chunks to stay under RPC provider limits.
const logsPerQueryCap = 5000

// filterLogs scans a single event topic on one contract address across
// [fromBlock, toBlock], paging the request so no single eth_getLogs call
// spans more than logsPerQueryCap blocks.
func (c *Client) filterLogs(ctx context.Context, addr common.Address, fromBlock, toBlock uint64, topic0 common.Hash) ([]types.Log, error) {
	if fromBlock > toBlock {
		return nil, nil
	}

	var out []types.Log
	for start := fromBlock; start <= toBlock; start += logsPerQueryCap {
		end := start + logsPerQueryCap - 1
		if end > toBlock {
			end = toBlock
		}

		if err := c.acquire(ctx); err != nil {
			return nil, err
		}
		if err := c.throttle(ctx); err != nil {
			c.release()
			return nil, err
		}

		logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
			Addresses: []common.Address{addr},
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Topics:    [][]common.Hash{{topic0}},
		})
		c.release()
		if err != nil {
			return nil, fmt.Errorf("rpc-failure: eth_getLogs(%s, %d-%d): %w", addr, start, end, err)
		}
		out = append(out, logs...)
	}
	return out, nil
}
