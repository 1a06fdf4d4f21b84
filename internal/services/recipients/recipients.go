// Package recipients implements the Recipient Set Builder (spec
// component E): union of the previous round's recipients and new
// depositors discovered by scanning the Wrapper's Deposit events.
package recipients

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

// ChainReader is the subset of the Chain Adapter the Builder needs.
type ChainReader interface {
	DepositOwnersSince(ctx context.Context, fromBlock, toBlock uint64) ([]common.Address, error)
}

// Builder assembles each round's candidate recipient set.
type Builder struct {
	chain ChainReader
}

// New returns a Builder.
func New(chain ChainReader) *Builder {
	return &Builder{chain: chain}
}

// Candidates implements spec.md §4.E: start from the previous blob's
// recipients, union in new depositors discovered between
// lastProcessedBlock and currentBlock (both inclusive), drop the zero
// address, and return the set ordered by address.
func (b *Builder) Candidates(ctx context.Context, prev *round.Blob, lastProcessedBlock, currentBlock uint64) ([]common.Address, error) {
	seen := make(map[common.Address]struct{})

	if !prev.IsGenesis() {
		for i := range prev.Values {
			seen[prev.Recipient(i)] = struct{}{}
		}
	}

	owners, err := b.chain.DepositOwnersSince(ctx, lastProcessedBlock, currentBlock)
	if err != nil {
		return nil, fmt.Errorf("failed scanning new depositors: %w", err)
	}
	for _, owner := range owners {
		seen[owner] = struct{}{}
	}

	delete(seen, common.Address{})

	out := make([]common.Address, 0, len(seen))
	for addr := range seen {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out, nil
}
