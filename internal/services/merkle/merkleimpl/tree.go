// Package merkleimpl implements the Merkle Engine capability interface
// (internal/services/merkle.Builder/Tree) using the double-keccak256,
// sorted-pair-hashing convention of OpenZeppelin's StandardMerkleTree,
// generalized from the teacher's internal/merkle/proof.go (which hashes
// a 2-field `(address, amount)` leaf with abi.encodePacked) to this
// spec's 3-field `(recipient, token, amount)` leaf, ABI-encoded with
// accounts/abi.Arguments.Pack rather than packed encoding, so that the
// leaf hash and the full tree-node array match the well-known library's
// wire format exactly.
package merkleimpl

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/merkle"
)

var leafArguments = mustArguments("address", "address", "uint256")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		ty, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args[i] = abi.Argument{Type: ty}
	}
	return args
}

// Tree is the concrete, OpenZeppelin-compatible Merkle structure.
type Tree struct {
	triples []merkle.Triple
	nodes   [][32]byte // full node array: leaves placed at the tail, internal nodes built down to index 0
	leafIdx []int      // leafIdx[i] is the tree-array index of triples[i]'s leaf
}

// Builder constructs or reloads Trees.
type Builder struct{}

// New returns a Builder producing merkleimpl.Tree values.
func New() *Builder {
	return &Builder{}
}

// Build constructs a tree preserving the given input order: triples[i]
// is recorded at values[i], and its leaf is placed in the node array at
// position len(nodes)-1-i, per the standard library's convention.
func (Builder) Build(triples []merkle.Triple) (merkle.Tree, error) {
	if len(triples) == 0 {
		return nil, merkle.ErrEmptyInput
	}

	n := len(triples)
	nodes := make([][32]byte, 2*n-1)
	leafIdx := make([]int, n)

	for i, t := range triples {
		pos := len(nodes) - 1 - i
		nodes[pos] = leafHash(t)
		leafIdx[i] = pos
	}

	for i := len(nodes) - 1 - n; i >= 0; i-- {
		nodes[i] = hashPair(nodes[leftChild(i)], nodes[rightChild(i)])
	}

	return &Tree{triples: append([]merkle.Triple(nil), triples...), nodes: nodes, leafIdx: leafIdx}, nil
}

// Load reconstructs a Tree from its dumped wire representation and
// re-hashes it: every value must hash to the node at its treeIndex and
// every internal node to the pair of its children, so Root() is the root
// rebuilt from the values. Comparing that root against the on-chain root
// is left to the caller (the Publisher, spec.md §4.H step 1).
func (Builder) Load(dump merkle.Dump) (merkle.Tree, error) {
	if len(dump.Tree) == 0 || len(dump.Values) == 0 {
		return nil, fmt.Errorf("%w: empty tree or values", merkle.ErrMalformedDump)
	}

	nodes := make([][32]byte, len(dump.Tree))
	for i, hexNode := range dump.Tree {
		b, err := hexutil.Decode(hexNode)
		if err != nil || len(b) != 32 {
			return nil, fmt.Errorf("%w: tree[%d] is not a 32-byte hex string", merkle.ErrMalformedDump, i)
		}
		copy(nodes[i][:], b)
	}

	triples := make([]merkle.Triple, len(dump.Values))
	leafIdx := make([]int, len(dump.Values))
	for i, v := range dump.Values {
		amount, ok := new(big.Int).SetString(v.Value[2], 10)
		if !ok {
			return nil, fmt.Errorf("%w: values[%d] has a non-decimal amount %q", merkle.ErrMalformedDump, i, v.Value[2])
		}
		triples[i] = merkle.Triple{
			Recipient: common.HexToAddress(v.Value[0]),
			Token:     common.HexToAddress(v.Value[1]),
			Amount:    amount,
		}
		if v.TreeIndex < 0 || v.TreeIndex >= len(nodes) {
			return nil, fmt.Errorf("%w: values[%d].treeIndex %d out of range", merkle.ErrMalformedDump, i, v.TreeIndex)
		}
		leafIdx[i] = v.TreeIndex
	}

	// Re-hash bottom-up so a dump whose nodes do not commit to its values
	// is rejected instead of trusted.
	for i, tr := range triples {
		if leafHash(tr) != nodes[leafIdx[i]] {
			return nil, fmt.Errorf("%w: values[%d] does not hash to tree[%d]", merkle.ErrMalformedDump, i, leafIdx[i])
		}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		if rightChild(i) < len(nodes) && nodes[i] != hashPair(nodes[leftChild(i)], nodes[rightChild(i)]) {
			return nil, fmt.Errorf("%w: tree[%d] is not the hash of its children", merkle.ErrMalformedDump, i)
		}
	}

	return &Tree{triples: triples, nodes: nodes, leafIdx: leafIdx}, nil
}

// Root returns the tree's root node.
func (t *Tree) Root() [32]byte {
	return t.nodes[0]
}

// Dump renders the tree's wire representation, per spec.md §3.
func (t *Tree) Dump() merkle.Dump {
	values := make([]round.ValueEntry, len(t.triples))
	for i, tr := range t.triples {
		values[i] = round.ValueEntry{
			TreeIndex: t.leafIdx[i],
			Value: [3]string{
				tr.Recipient.Hex(),
				tr.Token.Hex(),
				tr.Amount.String(),
			},
		}
	}

	tree := make([]string, len(t.nodes))
	for i, node := range t.nodes {
		tree[i] = hexutil.Encode(node[:])
	}

	return merkle.Dump{
		Format:       round.FormatStandardV1,
		LeafEncoding: append([]string(nil), round.LeafEncoding...),
		Tree:         tree,
		Values:       values,
	}
}

// Proof returns the sibling path from the leaf at treeIndex up to the
// root.
func (t *Tree) Proof(treeIndex int) ([][32]byte, error) {
	if treeIndex <= 0 || treeIndex >= len(t.nodes) {
		if treeIndex == 0 && len(t.nodes) == 1 {
			return [][32]byte{}, nil
		}
		return nil, merkle.ErrLeafNotFound
	}

	var proof [][32]byte
	i := treeIndex
	for i > 0 {
		proof = append(proof, t.nodes[siblingIndex(i)])
		i = parentIndex(i)
	}
	return proof, nil
}

// Verify recomputes the leaf hash for triple and folds proof onto it,
// comparing the result against the tree's current root.
func (t *Tree) Verify(triple merkle.Triple, proof [][32]byte) bool {
	return VerifyAgainstRoot(triple, proof, t.Root())
}

// VerifyAgainstRoot recomputes a leaf hash and folds proof onto it,
// comparing against an externally supplied root — used to verify a
// proof artifact independent of a loaded Tree (e.g. proof.json replay).
func VerifyAgainstRoot(triple merkle.Triple, proof [][32]byte, root [32]byte) bool {
	node := leafHash(triple)
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

func leafHash(t merkle.Triple) [32]byte {
	encoded, err := leafArguments.Pack(t.Recipient, t.Token, t.Amount)
	if err != nil {
		panic(fmt.Sprintf("merkleimpl: failed to ABI-encode leaf: %v", err))
	}
	inner := crypto.Keccak256(encoded)
	return crypto.Keccak256Hash(inner)
}

// hashPair hashes two nodes in sorted order, matching the reference
// library's tie-breaking convention so that proofs verify against
// independently produced trees.
func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(append(append([]byte(nil), a[:]...), b[:]...))
}

func leftChild(i int) int  { return 2*i + 1 }
func rightChild(i int) int { return 2*i + 2 }

func parentIndex(i int) int {
	if i%2 == 0 {
		return (i - 2) / 2
	}
	return (i - 1) / 2
}

func siblingIndex(i int) int {
	if i%2 == 0 {
		return i - 1
	}
	return i + 1
}
