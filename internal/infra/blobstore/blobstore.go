// Package blobstore is the Blob Store Adapter (spec component B):
// upload/download of distribution blobs against a content-addressed
// store reachable over an IPFS HTTP gateway, plus syntactic CID
// validation. It does not authenticate content — the Publisher
// re-hashes the downloaded blob's tree and compares against the
// on-chain root.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/lidofinance/vaults-wrapper-distributor-go/internal/round"
)

// ErrBlobStore wraps any upload/download/parse failure against the
// content-addressed store.
var ErrBlobStore = errors.New("blobstore: operation failed")

// Config configures the gateway endpoints the adapter talks to.
type Config struct {
	// APIURL is an IPFS HTTP API endpoint (kubo-compatible) used for
	// uploads, e.g. "https://ipfs.infura.io:5001".
	APIURL string
	// GatewayURL is used for downloads, e.g. "https://ipfs.io".
	GatewayURL string
	Timeout    time.Duration
}

const defaultTimeout = 30 * time.Second

// Client is the concrete Blob Store Adapter.
type Client struct {
	cfg  Config
	http *http.Client
}

// New returns a ready Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Upload JSON-encodes the blob with two-space indentation (spec.md §3,
// §6) and stores it, returning its CID.
func (c *Client) Upload(ctx context.Context, blob *round.Blob) (string, error) {
	payload, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode blob: %v", ErrBlobStore, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "round.json")
	if err != nil {
		return "", fmt.Errorf("%w: failed to build upload request: %v", ErrBlobStore, err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("%w: failed to build upload request: %v", ErrBlobStore, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to build upload request: %v", ErrBlobStore, err)
	}

	url := strings.TrimRight(c.cfg.APIURL, "/") + "/api/v0/add?cid-version=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBlobStore, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: upload request failed: %v", ErrBlobStore, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: gateway returned %d: %s", ErrBlobStore, resp.StatusCode, string(b))
	}

	var out struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: failed to decode upload response: %v", ErrBlobStore, err)
	}
	if out.Hash == "" {
		return "", fmt.Errorf("%w: gateway response carried no CID", ErrBlobStore)
	}
	return out.Hash, nil
}

// Download fetches and JSON-decodes the blob at the given CID.
func (c *Client) Download(ctx context.Context, cidStr string) (*round.Blob, error) {
	if !ValidateCID(cidStr) {
		return nil, fmt.Errorf("%w: %q is not a syntactically valid CID", ErrBlobStore, cidStr)
	}

	url := strings.TrimRight(c.cfg.GatewayURL, "/") + "/ipfs/" + cidStr
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlobStore, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download request failed: %v", ErrBlobStore, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: gateway returned %d: %s", ErrBlobStore, resp.StatusCode, string(b))
	}

	var blob round.Blob
	if err := json.NewDecoder(resp.Body).Decode(&blob); err != nil {
		return nil, fmt.Errorf("%w: failed to decode blob at %s: %v", ErrBlobStore, cidStr, err)
	}
	return &blob, nil
}

// ValidateCID performs a syntactic-only check; it does not fetch or
// authenticate the referenced content.
func ValidateCID(s string) bool {
	if s == "" {
		return false
	}
	_, err := cid.Decode(s)
	return err == nil
}
