package publisher

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-pkgz/lgr"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/infra/blobstore"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/reconciler"
)

// dummyCID is a syntactically valid CIDv1 used as the blob store's fake
// upload response; the test gateway ignores it and always serves
// whatever was last uploaded.
const dummyCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

// fakeChain implements the Chain interface entirely in memory, so the
// Publisher can be driven end-to-end (spec.md §8's concrete scenarios)
// without a live RPC node.
type fakeChain struct {
	root   [32]byte
	cid    string
	tokens []common.Address

	lastProcessedBlock uint64
	currentBlock       uint64

	depositOwners  []common.Address
	totalSupply    *big.Int
	wrapperBalance map[common.Address]*big.Int
	erc20Balance   map[common.Address]*big.Int            // current balance, keyed by token
	erc20History   map[common.Address]map[uint64]*big.Int // historical balance, keyed by token then block
	claimed        []reconciler.ClaimedEvent

	hasSigner    bool
	publishCalls int
}

func (f *fakeChain) BlockNumber(_ context.Context) (uint64, error)   { return f.currentBlock, nil }
func (f *fakeChain) CurrentRoot(_ context.Context) ([32]byte, error) { return f.root, nil }
func (f *fakeChain) CurrentCID(_ context.Context) (string, error)    { return f.cid, nil }
func (f *fakeChain) LastProcessedBlock(_ context.Context) (uint64, error) {
	return f.lastProcessedBlock, nil
}
func (f *fakeChain) Tokens(_ context.Context) ([]common.Address, error) { return f.tokens, nil }

func (f *fakeChain) ERC20BalanceOf(_ context.Context, token, _ common.Address, blockNumber *big.Int) (*big.Int, error) {
	if blockNumber != nil {
		if byBlock, ok := f.erc20History[token]; ok {
			if bal, ok := byBlock[blockNumber.Uint64()]; ok {
				return bal, nil
			}
		}
	}
	return f.erc20Balance[token], nil
}
func (f *fakeChain) WrapperTotalSupply(_ context.Context, _ *big.Int) (*big.Int, error) {
	return f.totalSupply, nil
}
func (f *fakeChain) WrapperBalanceOf(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	if bal, ok := f.wrapperBalance[account]; ok {
		return bal, nil
	}
	return big.NewInt(0), nil
}
func (f *fakeChain) DepositOwnersSince(_ context.Context, _, _ uint64) ([]common.Address, error) {
	return f.depositOwners, nil
}
func (f *fakeChain) ClaimedSince(_ context.Context, _, _ uint64) ([]reconciler.ClaimedEvent, error) {
	return f.claimed, nil
}
func (f *fakeChain) PublishRoot(_ context.Context, root [32]byte, cid string) (common.Hash, error) {
	f.publishCalls++
	f.root = root
	f.cid = cid
	return common.HexToHash("0xaaaa"), nil
}
func (f *fakeChain) SubmitClaim(_ context.Context, _, _ common.Address, _ *big.Int, _ [][32]byte) (common.Hash, error) {
	return common.HexToHash("0xbbbb"), nil
}
func (f *fakeChain) HasSigner() bool { return f.hasSigner }

// newBlobServer serves a minimal kubo-compatible add/gateway pair backed
// by an in-memory map, so blobstore.Client can be exercised without a
// real IPFS node.
func newBlobServer(t *testing.T) (*httptest.Server, func() *round.Blob) {
	t.Helper()
	var stored *round.Blob

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/add", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var blob round.Blob
		if err := json.Unmarshal(data, &blob); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		stored = &blob
		_ = json.NewEncoder(w).Encode(map[string]string{"Hash": dummyCID})
	})
	mux.HandleFunc("/ipfs/", func(w http.ResponseWriter, r *http.Request) {
		if stored == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(stored)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, func() *round.Blob { return stored }
}

var (
	recipientA  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipientB  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	token       = common.HexToAddress("0x3333333333333333333333333333333333333333")
	distributor = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

func newTestPublisher(t *testing.T, chain *fakeChain) *Publisher {
	t.Helper()
	srv, _ := newBlobServer(t)
	blobClient := blobstore.New(blobstore.Config{APIURL: srv.URL, GatewayURL: srv.URL})
	return New(lgr.NoOp, chain, blobClient, distributor, 0)
}

// TestGenerateGenesisRound matches spec scenario 1: two recipients,
// 1e18/3e18 wrapper shares, 4e18 total supply, 1e18 distributable, zero
// fee, no prior round.
func TestGenerateGenesisRound(t *testing.T) {
	chain := &fakeChain{
		tokens:         []common.Address{token},
		currentBlock:   100,
		depositOwners:  []common.Address{recipientA, recipientB},
		totalSupply:    new(big.Int).Mul(big.NewInt(4), big.NewInt(1e18)),
		erc20Balance:   map[common.Address]*big.Int{token: big.NewInt(1e18)},
		wrapperBalance: map[common.Address]*big.Int{recipientA: big.NewInt(1e18), recipientB: new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18))},
	}
	pub := newTestPublisher(t, chain)

	result, err := pub.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Published {
		t.Fatal("expected an unpublished result with no signer configured")
	}
	if len(result.Blob.Values) != 2 {
		t.Fatalf("expected 2 value rows, got %d", len(result.Blob.Values))
	}
	if result.Blob.TotalDistributed[token.Hex()] != "1000000000000000000" {
		t.Fatalf("expected totalDistributed 1000000000000000000, got %s", result.Blob.TotalDistributed[token.Hex()])
	}

	want := map[common.Address]string{
		recipientA: "250000000000000000",
		recipientB: "750000000000000000",
	}
	for i := range result.Blob.Values {
		amount, ok := result.Blob.Amount(i)
		if !ok {
			t.Fatalf("malformed amount at row %d", i)
		}
		if amount.String() != want[result.Blob.Recipient(i)] {
			t.Errorf("recipient %s: got %s, want %s", result.Blob.Recipient(i), amount, want[result.Blob.Recipient(i)])
		}
	}
}

// TestGenerateRepublishesSameRootForIdenticalState matches spec §8's
// round-trip law: re-running generate at an identical height with
// identical state yields a byte-identical root.
func TestGenerateRepublishesSameRootForIdenticalState(t *testing.T) {
	chain := &fakeChain{
		tokens:         []common.Address{token},
		currentBlock:   100,
		depositOwners:  []common.Address{recipientA, recipientB},
		totalSupply:    new(big.Int).Mul(big.NewInt(4), big.NewInt(1e18)),
		erc20Balance:   map[common.Address]*big.Int{token: big.NewInt(1e18)},
		wrapperBalance: map[common.Address]*big.Int{recipientA: big.NewInt(1e18), recipientB: new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18))},
	}
	pub1 := newTestPublisher(t, chain)
	r1, err := pub1.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	chain2 := &fakeChain{
		tokens:         chain.tokens,
		currentBlock:   chain.currentBlock,
		depositOwners:  chain.depositOwners,
		totalSupply:    chain.totalSupply,
		erc20Balance:   chain.erc20Balance,
		wrapperBalance: chain.wrapperBalance,
	}
	pub2 := newTestPublisher(t, chain2)
	r2, err := pub2.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if r1.Root != r2.Root {
		t.Fatalf("expected identical roots for identical state, got %x vs %x", r1.Root, r2.Root)
	}
}

// TestGenerateZeroInflowMatchesScenario3 matches spec scenario 3: round 2
// after a genesis round, with no new inflow and a claim already paid,
// rebuilds newDistributable = 0 and republishes the same cumulative
// amounts unchanged.
func TestGenerateZeroInflowMatchesScenario3(t *testing.T) {
	chain := &fakeChain{
		tokens:         []common.Address{token},
		currentBlock:   100,
		depositOwners:  []common.Address{recipientA, recipientB},
		totalSupply:    new(big.Int).Mul(big.NewInt(4), big.NewInt(1e18)),
		erc20Balance:   map[common.Address]*big.Int{token: big.NewInt(1e18)},
		wrapperBalance: map[common.Address]*big.Int{recipientA: big.NewInt(1e18), recipientB: new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18))},
		hasSigner:      true,
	}
	pub := newTestPublisher(t, chain)

	round1, err := pub.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !round1.Published {
		t.Fatal("expected round 1 to publish with a signer configured")
	}

	// Snapshot balance as of round 1's block stays 1e18; the recipient
	// then claims 750000000000000000, and no new inflow arrives, so the
	// contract's live balance drops by exactly that much.
	chain.erc20History = map[common.Address]map[uint64]*big.Int{
		token: {chain.currentBlock: big.NewInt(1e18)},
	}
	chain.erc20Balance[token] = big.NewInt(250000000000000000)
	chain.lastProcessedBlock = chain.currentBlock
	chain.currentBlock = 200
	chain.claimed = []reconciler.ClaimedEvent{{Token: token, Amount: big.NewInt(750000000000000000)}}

	round2, err := pub.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := map[common.Address]string{
		recipientA: "250000000000000000",
		recipientB: "750000000000000000",
	}
	for i := range round2.Blob.Values {
		amount, _ := round2.Blob.Amount(i)
		if amount.String() != want[round2.Blob.Recipient(i)] {
			t.Errorf("recipient %s: got %s, want %s (expected unchanged cumulative)", round2.Blob.Recipient(i), amount, want[round2.Blob.Recipient(i)])
		}
	}
}

// TestGenerateRejectsTamperedPreviousRoot matches spec scenario 5: a
// previous blob whose rebuilt root does not match the on-chain root
// fails validation.
func TestGenerateRejectsTamperedPreviousRoot(t *testing.T) {
	srv, _ := newBlobServer(t)
	blobClient := blobstore.New(blobstore.Config{APIURL: srv.URL, GatewayURL: srv.URL})

	genesisChain := &fakeChain{
		tokens:         []common.Address{token},
		currentBlock:   100,
		depositOwners:  []common.Address{recipientA, recipientB},
		totalSupply:    new(big.Int).Mul(big.NewInt(4), big.NewInt(1e18)),
		erc20Balance:   map[common.Address]*big.Int{token: big.NewInt(1e18)},
		wrapperBalance: map[common.Address]*big.Int{recipientA: big.NewInt(1e18), recipientB: new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18))},
	}
	pub1 := New(lgr.NoOp, genesisChain, blobClient, distributor, 0)
	result, err := pub1.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	tamperedChain := &fakeChain{
		root: common.HexToHash("0xdeadbeef"),
		cid:  result.CID,
	}
	pub2 := New(lgr.NoOp, tamperedChain, blobClient, distributor, 0)

	_, err = pub2.Generate(context.Background())
	if err == nil {
		t.Fatal("expected validation failure when the on-chain root does not match the stored blob's rebuilt root")
	}
}

func TestGenerateNoClaimsToProcessFails(t *testing.T) {
	chain := &fakeChain{
		tokens:       []common.Address{token},
		currentBlock: 100,
		totalSupply:  big.NewInt(0),
		erc20Balance: map[common.Address]*big.Int{token: big.NewInt(0)},
	}
	pub := newTestPublisher(t, chain)

	if _, err := pub.Generate(context.Background()); err == nil {
		t.Fatal("expected an error when there is nothing to distribute")
	}
}
