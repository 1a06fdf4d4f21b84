package apportioner

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type fakeChain struct {
	balances map[common.Address]*big.Int
}

func (f *fakeChain) WrapperBalanceOf(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	if bal, ok := f.balances[account]; ok {
		return bal, nil
	}
	return big.NewInt(0), nil
}

var (
	recipientA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipientB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	token      = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func newFakeChain() *fakeChain {
	return &fakeChain{balances: map[common.Address]*big.Int{
		recipientA: big.NewInt(1e18),
		recipientB: new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18)),
	}}
}

// TestScenario1 matches spec scenario 1: two recipients, 1e18/3e18 shares,
// totalSupply 4e18, distributable 1e18, zero fee.
func TestScenario1(t *testing.T) {
	a := New(newFakeChain(), 0)
	totalSupply := new(big.Int).Mul(big.NewInt(4), big.NewInt(1e18))
	claims, err := a.Apportion(context.Background(), token, big.NewInt(1e18), totalSupply,
		[]common.Address{recipientA, recipientB}, big.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}

	want := map[common.Address]string{
		recipientA: "250000000000000000",
		recipientB: "750000000000000000",
	}
	for _, c := range claims {
		if c.Amount.String() != want[c.Recipient] {
			t.Errorf("recipient %s: got %s, want %s", c.Recipient, c.Amount, want[c.Recipient])
		}
	}
}

// TestScenario2 matches spec scenario 2: same as (1) with a 10% fee,
// truncating to 225000000000000000 / 674999999999999999.
func TestScenario2(t *testing.T) {
	a := New(newFakeChain(), 10.0)
	if a.FeeBasisPoints != 1000 {
		t.Fatalf("expected 1000 basis points for a 10%% fee, got %d", a.FeeBasisPoints)
	}

	totalSupply := new(big.Int).Mul(big.NewInt(4), big.NewInt(1e18))
	claims, err := a.Apportion(context.Background(), token, big.NewInt(1e18), totalSupply,
		[]common.Address{recipientA, recipientB}, big.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}

	want := map[common.Address]string{
		recipientA: "225000000000000000",
		recipientB: "674999999999999999",
	}
	for _, c := range claims {
		if c.Amount.String() != want[c.Recipient] {
			t.Errorf("recipient %s: got %s, want %s", c.Recipient, c.Amount, want[c.Recipient])
		}
	}
}

func TestApportionZeroTotalSupplyOrDistributable(t *testing.T) {
	a := New(newFakeChain(), 0)
	claims, err := a.Apportion(context.Background(), token, big.NewInt(0), big.NewInt(1e18),
		[]common.Address{recipientA}, big.NewInt(1))
	if err != nil || claims != nil {
		t.Fatalf("expected nil claims and no error for zero distributable, got %v %v", claims, err)
	}

	claims, err = a.Apportion(context.Background(), token, big.NewInt(1e18), big.NewInt(0),
		[]common.Address{recipientA}, big.NewInt(1))
	if err != nil || claims != nil {
		t.Fatalf("expected nil claims and no error for zero totalSupply, got %v %v", claims, err)
	}
}

// TestApportionSkipsZeroBalanceRecipients covers invariant I6: a candidate
// with zero wrapper balance contributes no row.
func TestApportionSkipsZeroBalanceRecipients(t *testing.T) {
	zeroBalance := common.HexToAddress("0x4444444444444444444444444444444444444444")
	chain := newFakeChain()
	a := New(chain, 0)
	totalSupply := new(big.Int).Mul(big.NewInt(4), big.NewInt(1e18))

	claims, err := a.Apportion(context.Background(), token, big.NewInt(1e18), totalSupply,
		[]common.Address{recipientA, recipientB, zeroBalance}, big.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range claims {
		if c.Recipient == zeroBalance {
			t.Fatal("expected zero-balance recipient to be skipped")
		}
	}
}
