// Package round holds the data model published once per round of the
// cumulative Merkle-distributor protocol: claims, the distribution blob,
// and the on-chain state the engine reconciles against.
package round

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Claim is a recipient's cumulative lifetime entitlement of one token.
type Claim struct {
	Recipient common.Address
	Token     common.Address
	Amount    *big.Int
}

// FormatStandardV1 is the only blob format this engine produces or reads.
const FormatStandardV1 = "standard-v1"

// LeafEncoding is the ABI schema of one leaf tuple: (recipient, token, amount).
var LeafEncoding = []string{"address", "address", "uint256"}

// ValueEntry is one row of a distribution blob's "values" array.
type ValueEntry struct {
	TreeIndex int       `json:"treeIndex"`
	Value     [3]string `json:"value"` // [recipient, token, cumulativeAmount]
}

// Blob is the published, content-addressed artifact of one round.
//
// Field order matches spec.md §3 and is relied on for a stable,
// human-auditable JSON rendering (encoding/json preserves struct field
// declaration order).
type Blob struct {
	Format           string            `json:"format"`
	LeafEncoding     []string          `json:"leafEncoding"`
	Tree             []string          `json:"tree"`
	Values           []ValueEntry      `json:"values"`
	PrevTreeCID      string            `json:"prevTreeCid"`
	BlockNumber      uint64            `json:"blockNumber"`
	TotalDistributed map[string]string `json:"totalDistributed"`
}

// Recipient returns the recipient address of the i-th value row.
func (b *Blob) Recipient(i int) common.Address {
	return common.HexToAddress(b.Values[i].Value[0])
}

// Token returns the token address of the i-th value row.
func (b *Blob) Token(i int) common.Address {
	return common.HexToAddress(b.Values[i].Value[1])
}

// Amount returns the cumulative amount of the i-th value row.
func (b *Blob) Amount(i int) (*big.Int, bool) {
	return new(big.Int).SetString(b.Values[i].Value[2], 10)
}

// IsGenesis reports whether this blob is synthesized for a chain with no
// prior published round.
func (b *Blob) IsGenesis() bool {
	return b == nil
}
