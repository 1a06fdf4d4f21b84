// Package folder implements the Cumulative Folder (spec component G):
// adds per-round allocations onto the previous round's cumulative
// totals, carries forward untouched pairs, and canonicalises ordering.
package folder

import (
	"math/big"
	"sort"
	"strings"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

type pairKey struct {
	recipient string
	token     string
}

// Fold implements spec.md §4.G: builds the cumulative claim set for the
// new round from the previous blob plus this round's allocations, and
// computes totalDistributed per token. The returned claims are sorted
// by (lowercase recipient, lowercase token) per invariant I5.
func Fold(prev *round.Blob, allocations []round.Claim) ([]round.Claim, map[string]string) {
	cumulative := make(map[pairKey]*big.Int)
	order := make([]pairKey, 0)

	keyOf := func(recipient, token string) pairKey {
		return pairKey{recipient: strings.ToLower(recipient), token: strings.ToLower(token)}
	}

	addOrSet := func(recipient, token string, amount *big.Int) {
		k := keyOf(recipient, token)
		if _, ok := cumulative[k]; !ok {
			order = append(order, k)
		}
		cumulative[k] = amount
	}

	if !prev.IsGenesis() {
		for i := range prev.Values {
			recipient := prev.Recipient(i).Hex()
			token := prev.Token(i).Hex()
			amount, _ := prev.Amount(i)
			if amount == nil {
				amount = big.NewInt(0)
			}
			addOrSet(recipient, token, new(big.Int).Set(amount))
		}
	}

	for _, alloc := range allocations {
		k := keyOf(alloc.Recipient.Hex(), alloc.Token.Hex())
		base, ok := cumulative[k]
		if !ok {
			base = big.NewInt(0)
			order = append(order, k)
		}
		cumulative[k] = new(big.Int).Add(base, alloc.Amount)
	}

	claims := make([]round.Claim, 0, len(order))
	claimsByKey := make(map[pairKey]round.Claim, len(order))
	for _, alloc := range allocations {
		k := keyOf(alloc.Recipient.Hex(), alloc.Token.Hex())
		claimsByKey[k] = round.Claim{Recipient: alloc.Recipient, Token: alloc.Token}
	}
	if !prev.IsGenesis() {
		for i := range prev.Values {
			k := keyOf(prev.Recipient(i).Hex(), prev.Token(i).Hex())
			if _, ok := claimsByKey[k]; !ok {
				claimsByKey[k] = round.Claim{Recipient: prev.Recipient(i), Token: prev.Token(i)}
			}
		}
	}

	for _, k := range order {
		c := claimsByKey[k]
		c.Amount = cumulative[k]
		claims = append(claims, c)
	}

	sort.Slice(claims, func(i, j int) bool {
		ri, rj := strings.ToLower(claims[i].Recipient.Hex()), strings.ToLower(claims[j].Recipient.Hex())
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(claims[i].Token.Hex()) < strings.ToLower(claims[j].Token.Hex())
	})

	totalDistributed := make(map[string]string)
	totals := make(map[string]*big.Int)
	tokenOrder := make([]string, 0)
	for _, c := range claims {
		token := c.Token.Hex()
		if _, ok := totals[token]; !ok {
			totals[token] = big.NewInt(0)
			tokenOrder = append(tokenOrder, token)
		}
		totals[token].Add(totals[token], c.Amount)
	}
	for _, token := range tokenOrder {
		totalDistributed[token] = totals[token].String()
	}

	return claims, totalDistributed
}
