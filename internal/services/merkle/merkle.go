// Package merkle defines the Merkle Engine's capability interface (spec
// component C): build/dump/load/proof/verify over (recipient, token,
// cumulative-amount) triples. Different backing algorithms may be
// substituted behind this interface without touching the round engine;
// merkleimpl supplies the concrete implementation this repo ships.
package merkle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

// Triple is one leaf's plaintext content before hashing.
type Triple struct {
	Recipient common.Address
	Token     common.Address
	Amount    *big.Int
}

// Dump is the wire-shape rendering of a tree, matching the distribution
// blob's own fields exactly (spec.md §3) so it can be embedded directly.
type Dump struct {
	Format       string
	LeafEncoding []string
	Tree         []string
	Values       []round.ValueEntry
}

// Tree is a built Merkle structure over a fixed set of triples.
type Tree interface {
	Root() [32]byte
	Dump() Dump
	Proof(treeIndex int) ([][32]byte, error)
	Verify(triple Triple, proof [][32]byte) bool
}

// Builder constructs or reloads a Tree.
type Builder interface {
	Build(triples []Triple) (Tree, error)
	Load(dump Dump) (Tree, error)
}
