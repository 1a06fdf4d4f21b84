// Command distributor runs the off-chain operator of the cumulative
// Merkle-distributor reward protocol: generate a new round, produce a
// claim proof, or submit a claim.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jessevdk/go-flags"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/config"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/infra/blobstore"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/infra/chain"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/infra/logging"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/infra/metrics"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/infra/roundcache"
	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/services/publisher"
)

// metricsScrapeWindow is how long `generate` keeps its /metrics endpoint
// up after a round completes, so an external scraper has a chance to
// pull the result of a run that would otherwise exit immediately.
const metricsScrapeWindow = 30 * time.Second

type options struct {
	Config string `short:"c" long:"config" description:"path to the YAML config file" default:"config.yaml"`
}

type generateCommand struct{}

type proofCommand struct {
	Index   *int   `long:"index" description:"tree value index to produce a proof for"`
	Address string `long:"address" description:"recipient address to produce a proof for"`
	List    bool   `long:"list" description:"list cached rounds instead of producing a proof"`
}

type claimCommand struct {
	ProofFile string `long:"proof-file" required:"true" description:"path to a proof.json artifact written by the proof subcommand"`
}

var opts options
var generateCmd generateCommand
var proofCmd proofCommand
var claimCmd claimCommand

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.AddCommand("generate", "compute and publish a new round", "", &generateCmd); err != nil {
		fail(err)
	}
	if _, err := parser.AddCommand("proof", "produce a claim proof for a recipient", "", &proofCmd); err != nil {
		fail(err)
	}
	if _, err := parser.AddCommand("claim", "submit a previously generated proof", "", &claimCmd); err != nil {
		fail(err)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func (c *generateCommand) Execute(_ []string) error {
	ctx := context.Background()
	cfg, pub, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}

	m := metrics.New()
	start := time.Now()
	result, err := pub.Generate(ctx)
	m.RoundDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.PublishFailures.Inc()
		c.serveMetrics(m, cfg)
		return err
	}
	m.RecipientsProcessed.Set(float64(len(result.Blob.Values)))
	for token, stat := range result.PerToken {
		label := token.Hex()
		distributable, _ := new(big.Float).SetInt(stat.Distributable).Float64()
		dust, _ := new(big.Float).SetInt(stat.Dust).Float64()
		m.DistributablePerToken.WithLabelValues(label).Set(distributable)
		m.ApportionmentDust.WithLabelValues(label).Set(dust)
	}
	defer c.serveMetrics(m, cfg)

	if cache, cacheErr := roundcache.Open(logging.New(cfg.LogLevel), cfg.CachePath); cacheErr == nil {
		_ = cache.Save(common.HexToAddress(cfg.DistributorAddr), roundcache.Entry{
			BlockNumber: result.Blob.BlockNumber,
			CID:         result.CID,
			Root:        fmt.Sprintf("0x%x", result.Root),
			Blob:        result.Blob,
		})
		cache.Close()
	}

	if result.Published {
		fmt.Printf("published round: root=0x%x cid=%s tx=%s\n", result.Root, result.CID, result.TxHash)
		return nil
	}

	fmt.Printf("generated round (no signer configured, not submitted): root=0x%x cid=%s\n", result.Root, result.CID)
	return writeJSON(cfg.OutputFile, result.Blob)
}

func (c *proofCommand) Execute(_ []string) error {
	ctx := context.Background()
	cfg, pub, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}

	if c.List {
		return c.listRounds(cfg)
	}

	if c.Index != nil {
		artifact, err := pub.GenerateProofByIndex(ctx, *c.Index)
		if err != nil {
			return err
		}
		return writeJSON(cfg.OutputFile, artifact)
	}

	if c.Address == "" {
		return fmt.Errorf("one of --index, --address, or --list is required")
	}
	if cfg.TokenAddr == "" {
		return fmt.Errorf("config: token_addr is required to produce a proof by address")
	}

	artifact, err := pub.GenerateProof(ctx, common.HexToAddress(c.Address), common.HexToAddress(cfg.TokenAddr))
	if err != nil {
		return err
	}

	return writeJSON(cfg.OutputFile, artifact)
}

// serveMetrics exposes the round's collectors on cfg.MetricsAddr for a
// fixed scrape window. A no-op when metrics_addr is unset.
func (c *generateCommand) serveMetrics(m *metrics.Metrics, cfg *config.Config) {
	if cfg.MetricsAddr == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), metricsScrapeWindow)
	defer cancel()
	if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
	}
}

func (c *proofCommand) listRounds(cfg *config.Config) error {
	cache, err := roundcache.Open(logging.New(cfg.LogLevel), cfg.CachePath)
	if err != nil {
		return err
	}
	defer cache.Close()

	entries, err := cache.List(common.HexToAddress(cfg.DistributorAddr), 0)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("block=%d cid=%s root=%s\n", e.BlockNumber, e.CID, e.Root)
	}
	return nil
}

func (c *claimCommand) Execute(_ []string) error {
	ctx := context.Background()
	_, pub, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.ProofFile)
	if err != nil {
		return fmt.Errorf("failed to read proof file %s: %w", c.ProofFile, err)
	}
	var artifact publisher.ProofArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return fmt.Errorf("failed to parse proof file %s: %w", c.ProofFile, err)
	}

	txHash, err := pub.SubmitClaim(ctx, &artifact)
	if err != nil {
		return err
	}

	fmt.Printf("claim submitted: tx=%s\n", txHash)
	return nil
}

func bootstrap(ctx context.Context, requireSigner bool) (*config.Config, *publisher.Publisher, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(requireSigner); err != nil {
		return nil, nil, err
	}

	logger := logging.New(cfg.LogLevel)

	chainClient, err := chain.New(ctx, logger, chain.Config{
		RPCURL:          cfg.RPCURL,
		PrivateKey:      cfg.PrivateKey,
		DistributorAddr: common.HexToAddress(cfg.DistributorAddr),
		WrapperAddr:     common.HexToAddress(cfg.WrapperAddr),
		ConcurrencyCap:  cfg.Concurrency,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("config-missing: %w", err)
	}

	blobClient := blobstore.New(blobstore.Config{
		APIURL:     cfg.IPFSAPI,
		GatewayURL: cfg.IPFSGateway,
	})

	pub := publisher.New(logger, publisher.NewClientAdapter(chainClient), blobClient,
		common.HexToAddress(cfg.DistributorAddr), cfg.OperatorFee)

	return cfg, pub, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
