package folder

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

var (
	recipientA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipientB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	token      = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// TestFoldGenesis matches spec scenario 1: a genesis round folds a bare
// set of allocations into the cumulative claim set unchanged.
func TestFoldGenesis(t *testing.T) {
	allocations := []round.Claim{
		{Recipient: recipientB, Token: token, Amount: big.NewInt(750000000000000000)},
		{Recipient: recipientA, Token: token, Amount: big.NewInt(250000000000000000)},
	}

	claims, totalDistributed := Fold(nil, allocations)
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].Recipient != recipientA || claims[1].Recipient != recipientB {
		t.Fatalf("expected claims sorted by lowercase recipient, got %v", claims)
	}
	if totalDistributed[token.Hex()] != "1000000000000000000" {
		t.Fatalf("expected totalDistributed 1000000000000000000, got %s", totalDistributed[token.Hex()])
	}
}

// TestFoldCarriesForwardUnallocatedPairs matches spec scenario 3: a round
// with zero new inflow carries forward every previous cumulative amount
// unchanged.
func TestFoldCarriesForwardUnallocatedPairs(t *testing.T) {
	prev := &round.Blob{
		Values: []round.ValueEntry{
			{TreeIndex: 0, Value: [3]string{recipientA.Hex(), token.Hex(), "250000000000000000"}},
			{TreeIndex: 1, Value: [3]string{recipientB.Hex(), token.Hex(), "750000000000000000"}},
		},
	}

	claims, totalDistributed := Fold(prev, nil)
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
	if totalDistributed[token.Hex()] != "1000000000000000000" {
		t.Fatalf("expected totalDistributed 1000000000000000000, got %s", totalDistributed[token.Hex()])
	}
}

func TestFoldAddsNewAllocationsOntoPreviousCumulative(t *testing.T) {
	prev := &round.Blob{
		Values: []round.ValueEntry{
			{TreeIndex: 0, Value: [3]string{recipientA.Hex(), token.Hex(), "250000000000000000"}},
		},
	}
	allocations := []round.Claim{
		{Recipient: recipientA, Token: token, Amount: big.NewInt(100000000000000000)},
		{Recipient: recipientB, Token: token, Amount: big.NewInt(50000000000000000)},
	}

	claims, _ := Fold(prev, allocations)
	want := map[common.Address]string{
		recipientA: "350000000000000000",
		recipientB: "50000000000000000",
	}
	for _, c := range claims {
		if c.Amount.String() != want[c.Recipient] {
			t.Errorf("recipient %s: got %s, want %s", c.Recipient, c.Amount, want[c.Recipient])
		}
	}
}

func TestFoldOrdersByLowercaseRecipientThenToken(t *testing.T) {
	tokenLow := common.HexToAddress("0x0000000000000000000000000000000000000001")
	tokenHigh := common.HexToAddress("0x0000000000000000000000000000000000000002")
	allocations := []round.Claim{
		{Recipient: recipientB, Token: tokenHigh, Amount: big.NewInt(1)},
		{Recipient: recipientB, Token: tokenLow, Amount: big.NewInt(1)},
		{Recipient: recipientA, Token: tokenHigh, Amount: big.NewInt(1)},
	}

	claims, _ := Fold(nil, allocations)
	if len(claims) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(claims))
	}
	if claims[0].Recipient != recipientA {
		t.Fatalf("expected recipientA first, got %s", claims[0].Recipient)
	}
	if claims[1].Recipient != recipientB || claims[1].Token != tokenLow {
		t.Fatalf("expected recipientB/tokenLow second, got %s/%s", claims[1].Recipient, claims[1].Token)
	}
	if claims[2].Recipient != recipientB || claims[2].Token != tokenHigh {
		t.Fatalf("expected recipientB/tokenHigh third, got %s/%s", claims[2].Recipient, claims[2].Token)
	}
}
