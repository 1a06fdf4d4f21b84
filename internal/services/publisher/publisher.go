// Package publisher implements the Publisher (spec component H): it
// orchestrates the Chain Adapter, Recipient Set Builder, Round
// Reconciler, Apportioner, Cumulative Folder, and Merkle Engine into one
// round, validates the previous round against the on-chain root,
// uploads the new blob, and submits setMerkleRoot. It also exposes the
// two read-only sibling flows, GenerateProof and SubmitClaim.
package publisher

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-pkgz/lgr"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/infra/blobstore"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/apportioner"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/folder"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/merkle"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/merkle/merkleimpl"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/recipients"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/reconciler"
)

// Publisher runs one round of the distribution-generation engine.
type Publisher struct {
	logger lgr.L
	chain  Chain
	blob   *blobstore.Client
	tree   merkle.Builder

	reconciler  *reconciler.Reconciler
	recipients  *recipients.Builder
	apportioner *apportioner.Apportioner

	distributorAddr common.Address
}

// New wires the engine's components around a single Chain Adapter and
// Blob Store Adapter.
func New(logger lgr.L, chain Chain, blob *blobstore.Client, distributorAddr common.Address, operatorFeePercent float64) *Publisher {
	return &Publisher{
		logger:          logger,
		chain:           chain,
		blob:            blob,
		tree:            merkleimpl.New(),
		reconciler:      reconciler.New(chain, distributorAddr),
		recipients:      recipients.New(chain),
		apportioner:     apportioner.New(chain, operatorFeePercent),
		distributorAddr: distributorAddr,
	}
}

// TokenStat reports one token's per-round apportionment figures, for
// metrics and operator visibility.
type TokenStat struct {
	Distributable *big.Int
	Dust          *big.Int
}

// Result is the outcome of a completed round.
type Result struct {
	Blob     *round.Blob
	PerToken map[common.Address]TokenStat
	Root   [32]byte
	CID    string
	TxHash common.Hash
	// Published is false when no signer is configured; the caller
	// receives the artifact for manual submission (spec.md §4.H step 6).
	Published bool
}

// loadPrevious reads the on-chain (root, cid), downloads and verifies
// the previous blob. Returns a genesis blob (nil) when the distributor
// has no published round yet.
func (p *Publisher) loadPrevious(ctx context.Context) (*round.Blob, [32]byte, string, error) {
	prevRoot, err := p.chain.CurrentRoot(ctx)
	if err != nil {
		return nil, [32]byte{}, "", fmt.Errorf("%w: reading current root: %v", ErrRPCFailure, err)
	}
	prevCID, err := p.chain.CurrentCID(ctx)
	if err != nil {
		return nil, [32]byte{}, "", fmt.Errorf("%w: reading current cid: %v", ErrRPCFailure, err)
	}

	if prevCID == "" {
		p.logger.Logf("INFO no previous round found, starting genesis")
		return nil, [32]byte{}, "", nil
	}

	prevBlob, err := p.blob.Download(ctx, prevCID)
	if err != nil {
		return nil, [32]byte{}, "", fmt.Errorf("%w: downloading previous blob %s: %v", ErrBlobStoreFailure, prevCID, err)
	}

	rebuilt, err := p.tree.Load(merkle.Dump{
		Format:       prevBlob.Format,
		LeafEncoding: prevBlob.LeafEncoding,
		Tree:         prevBlob.Tree,
		Values:       prevBlob.Values,
	})
	if err != nil {
		return nil, [32]byte{}, "", fmt.Errorf("%w: rebuilding previous tree: %v", ErrValidationFailed, err)
	}
	if rebuilt.Root() != prevRoot {
		return nil, [32]byte{}, "", fmt.Errorf("%w: previous blob's rebuilt root does not match on-chain root", ErrValidationFailed)
	}

	return prevBlob, prevRoot, prevCID, nil
}

// Generate runs one full round: steps 1-6 of spec.md §4.H.
func (p *Publisher) Generate(ctx context.Context) (*Result, error) {
	prevBlob, _, prevCID, err := p.loadPrevious(ctx)
	if err != nil {
		return nil, err
	}

	lastProcessedBlock, err := p.chain.LastProcessedBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading lastProcessedBlock: %v", ErrRPCFailure, err)
	}
	currentBlock, err := p.chain.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading current block number: %v", ErrRPCFailure, err)
	}
	tokens, err := p.chain.Tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading token list: %v", ErrRPCFailure, err)
	}

	candidates, err := p.recipients.Candidates(ctx, prevBlob, lastProcessedBlock, currentBlock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRPCFailure, err)
	}

	currentBlockBig := new(big.Int).SetUint64(currentBlock)
	totalSupply, err := p.chain.WrapperTotalSupply(ctx, currentBlockBig)
	if err != nil {
		return nil, fmt.Errorf("%w: reading wrapper.totalSupply: %v", ErrRPCFailure, err)
	}

	var allocations []round.Claim
	perToken := make(map[common.Address]TokenStat, len(tokens))
	for _, token := range tokens {
		currentBalance, err := p.chain.ERC20BalanceOf(ctx, token, p.distributorAddr, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: reading distributor balance of %s: %v", ErrRPCFailure, token, err)
		}

		var claimed []reconciler.ClaimedEvent
		if prevBlob != nil {
			// The scan window must start where the snapshot balance was
			// read (prevBlob.BlockNumber), not at lastProcessedBlock: the
			// two can diverge if a prior round never published.
			claimed, err = p.chain.ClaimedSince(ctx, prevBlob.BlockNumber+1, currentBlock)
			if err != nil {
				return nil, fmt.Errorf("%w: scanning Claimed logs: %v", ErrRPCFailure, err)
			}
		}

		newDistributable, err := p.reconciler.NewDistributable(ctx, token, prevBlob, claimed, currentBalance)
		if err != nil {
			return nil, err
		}
		if newDistributable.Sign() == 0 {
			continue
		}

		tokenAllocations, err := p.apportioner.Apportion(ctx, token, newDistributable, totalSupply, candidates, currentBlockBig)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, tokenAllocations...)

		allocated := new(big.Int)
		for _, a := range tokenAllocations {
			allocated.Add(allocated, a.Amount)
		}
		feeAmount := new(big.Int).Mul(newDistributable, big.NewInt(p.apportioner.FeeBasisPoints))
		feeAmount.Div(feeAmount, big.NewInt(apportioner.BasisPointsDenominator))
		actual := new(big.Int).Sub(newDistributable, feeAmount)
		dust := new(big.Int).Sub(actual, allocated)
		perToken[token] = TokenStat{Distributable: newDistributable, Dust: dust}
	}

	claims, totalDistributed := folder.Fold(prevBlob, allocations)
	if len(claims) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, merkle.ErrEmptyInput)
	}

	triples := make([]merkle.Triple, len(claims))
	for i, c := range claims {
		triples[i] = merkle.Triple{Recipient: c.Recipient, Token: c.Token, Amount: c.Amount}
	}
	tree, err := p.tree.Build(triples)
	if err != nil {
		return nil, fmt.Errorf("%w: building tree: %v", ErrValidationFailed, err)
	}
	dump := tree.Dump()

	blob := &round.Blob{
		Format:           dump.Format,
		LeafEncoding:     dump.LeafEncoding,
		Tree:             dump.Tree,
		Values:           dump.Values,
		PrevTreeCID:      prevCID,
		BlockNumber:      currentBlock,
		TotalDistributed: totalDistributed,
	}

	cid, err := p.blob.Upload(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlobStoreFailure, err)
	}

	result := &Result{Blob: blob, PerToken: perToken, Root: tree.Root(), CID: cid}

	if !p.chain.HasSigner() {
		p.logger.Logf("WARN no signer configured, returning artifact for manual submission")
		return result, nil
	}

	txHash, err := p.chain.PublishRoot(ctx, tree.Root(), cid)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrTxReverted, err)
	}
	result.TxHash = txHash
	result.Published = true
	return result, nil
}

// ProofArtifact is the document written by the `proof` CLI subcommand.
type ProofArtifact struct {
	Recipient  common.Address `json:"recipient"`
	Token      common.Address `json:"token"`
	Amount     *big.Int       `json:"amount"`
	Proof      []string       `json:"proof"`
	MerkleRoot string         `json:"merkleRoot"`
	TreeIndex  int            `json:"treeIndex"`
}

// GenerateProof implements spec.md §4.H's "Proof generation" read-only
// flow: load the on-chain (root, cid), download and verify the blob,
// and return a proof for the requested recipient.
func (p *Publisher) GenerateProof(ctx context.Context, recipient, token common.Address) (*ProofArtifact, error) {
	prevBlob, prevRoot, _, err := p.loadPrevious(ctx)
	if err != nil {
		return nil, err
	}
	if prevBlob == nil {
		return nil, fmt.Errorf("%w: distributor has no published round", ErrProofNotFound)
	}

	for i := range prevBlob.Values {
		if prevBlob.Recipient(i) == recipient && prevBlob.Token(i) == token {
			return p.proofForValue(prevBlob, prevRoot, i)
		}
	}
	return nil, fmt.Errorf("%w: recipient %s has no entry for token %s", ErrProofNotFound, recipient, token)
}

// GenerateProofByIndex is the --index variant of the proof CLI
// subcommand: produces a proof for the value row at the given position
// in the blob's `values` array (not its tree position).
func (p *Publisher) GenerateProofByIndex(ctx context.Context, valueIndex int) (*ProofArtifact, error) {
	prevBlob, prevRoot, _, err := p.loadPrevious(ctx)
	if err != nil {
		return nil, err
	}
	if prevBlob == nil {
		return nil, fmt.Errorf("%w: distributor has no published round", ErrProofNotFound)
	}
	if valueIndex < 0 || valueIndex >= len(prevBlob.Values) {
		return nil, fmt.Errorf("%w: index %d out of range [0, %d)", ErrProofNotFound, valueIndex, len(prevBlob.Values))
	}
	return p.proofForValue(prevBlob, prevRoot, valueIndex)
}

func (p *Publisher) proofForValue(blob *round.Blob, rootHash [32]byte, i int) (*ProofArtifact, error) {
	tree, err := p.tree.Load(merkle.Dump{
		Format:       blob.Format,
		LeafEncoding: blob.LeafEncoding,
		Tree:         blob.Tree,
		Values:       blob.Values,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	amount, ok := blob.Amount(i)
	if !ok {
		return nil, fmt.Errorf("%w: malformed amount at values[%d]", ErrValidationFailed, i)
	}
	treeIndex := blob.Values[i].TreeIndex
	proof, err := tree.Proof(treeIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofNotFound, err)
	}
	proofHex := make([]string, len(proof))
	for j, node := range proof {
		proofHex[j] = fmt.Sprintf("0x%x", node)
	}
	return &ProofArtifact{
		Recipient:  blob.Recipient(i),
		Token:      blob.Token(i),
		Amount:     amount,
		Proof:      proofHex,
		MerkleRoot: fmt.Sprintf("0x%x", rootHash),
		TreeIndex:  treeIndex,
	}, nil
}

// SubmitClaim implements spec.md §4.H's "Claim submission" flow:
// re-parse a previously generated proof artifact and submit claim(...).
func (p *Publisher) SubmitClaim(ctx context.Context, artifact *ProofArtifact) (common.Hash, error) {
	if !p.chain.HasSigner() {
		return common.Hash{}, ErrSignerRequired
	}

	proof := make([][32]byte, len(artifact.Proof))
	for i, hexNode := range artifact.Proof {
		b := common.FromHex(hexNode)
		if len(b) != 32 {
			return common.Hash{}, fmt.Errorf("%w: proof[%d] is not 32 bytes", ErrValidationFailed, i)
		}
		copy(proof[i][:], b)
	}

	txHash, err := p.chain.SubmitClaim(ctx, artifact.Recipient, artifact.Token, artifact.Amount, proof)
	if err != nil {
		return txHash, fmt.Errorf("%w: %v", ErrTxReverted, err)
	}
	return txHash, nil
}
