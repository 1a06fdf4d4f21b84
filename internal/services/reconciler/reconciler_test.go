package reconciler

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

type fakeChain struct {
	snapshotBalances map[uint64]*big.Int
	claimed          []ClaimedEvent
}

func (f *fakeChain) ERC20BalanceOf(_ context.Context, _, _ common.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.snapshotBalances[blockNumber.Uint64()], nil
}

func (f *fakeChain) ClaimedSince(_ context.Context, _, _ uint64) ([]ClaimedEvent, error) {
	return f.claimed, nil
}

var (
	distributor = common.HexToAddress("0x9999999999999999999999999999999999999999")
	token       = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestNewDistributableGenesisTakesCurrentBalance(t *testing.T) {
	r := New(&fakeChain{}, distributor)
	got, err := r.NewDistributable(context.Background(), token, nil, nil, big.NewInt(1e18))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "1000000000000000000" {
		t.Fatalf("expected 1000000000000000000, got %s", got)
	}
}

// TestNewDistributableZeroInflowNoClaimsMatchesScenario3 matches spec
// scenario 3: no new inflow and no claims yields a zero distributable.
func TestNewDistributableZeroInflowNoClaimsMatchesScenario3(t *testing.T) {
	prev := &round.Blob{BlockNumber: 100}
	chain := &fakeChain{snapshotBalances: map[uint64]*big.Int{100: big.NewInt(1e18)}}
	r := New(chain, distributor)

	got, err := r.NewDistributable(context.Background(), token, prev, nil, big.NewInt(1e18))
	if err != nil {
		t.Fatal(err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected zero distributable, got %s", got)
	}
}

func TestNewDistributableSubtractsClaimsSinceSnapshot(t *testing.T) {
	prev := &round.Blob{BlockNumber: 100}
	chain := &fakeChain{
		snapshotBalances: map[uint64]*big.Int{100: big.NewInt(1e18)},
		claimed:          []ClaimedEvent{{Token: token, Amount: big.NewInt(4e17)}},
	}
	r := New(chain, distributor)

	got, err := r.NewDistributable(context.Background(), token, prev, chain.claimed, big.NewInt(1e18))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "400000000000000000" {
		t.Fatalf("expected 400000000000000000, got %s", got)
	}
}

func TestNewDistributableIgnoresOtherTokenClaims(t *testing.T) {
	otherToken := common.HexToAddress("0x4444444444444444444444444444444444444444")
	prev := &round.Blob{BlockNumber: 100}
	chain := &fakeChain{
		snapshotBalances: map[uint64]*big.Int{100: big.NewInt(1e18)},
		claimed:          []ClaimedEvent{{Token: otherToken, Amount: big.NewInt(4e17)}},
	}
	r := New(chain, distributor)

	got, err := r.NewDistributable(context.Background(), token, prev, chain.claimed, big.NewInt(1e18))
	if err != nil {
		t.Fatal(err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected zero distributable (claim was for a different token), got %s", got)
	}
}

// TestNewDistributableUnderflowClampsToZero covers the negative-arithmetic
// guard: a snapshot balance larger than current + claims never panics and
// never goes negative.
func TestNewDistributableUnderflowClampsToZero(t *testing.T) {
	prev := &round.Blob{BlockNumber: 100}
	chain := &fakeChain{snapshotBalances: map[uint64]*big.Int{100: big.NewInt(2e18)}}
	r := New(chain, distributor)

	got, err := r.NewDistributable(context.Background(), token, prev, nil, big.NewInt(1e18))
	if err != nil {
		t.Fatal(err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected clamped zero, got %s", got)
	}
}
