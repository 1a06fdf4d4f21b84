package chain

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-pkgz/lgr"
)

func TestNewRequiresRPCURL(t *testing.T) {
	_, err := New(context.Background(), lgr.NoOp, Config{DistributorAddr: common.HexToAddress("0x1")})
	if err == nil {
		t.Fatal("expected an error when rpc_url is missing")
	}
}

func TestNewRequiresDistributorAddr(t *testing.T) {
	_, err := New(context.Background(), lgr.NoOp, Config{RPCURL: "http://127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected an error when distributor_addr is missing")
	}
}

func TestParsePrivateKeyAcceptsWithOrWithout0xPrefix(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	raw := crypto.FromECDSA(key)
	plain := common.Bytes2Hex(raw)

	parsed, err := parsePrivateKey(plain)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.D.Cmp(key.D) != 0 {
		t.Fatal("parsed key does not match original")
	}

	parsedWithPrefix, err := parsePrivateKey("0x" + plain)
	if err != nil {
		t.Fatal(err)
	}
	if parsedWithPrefix.D.Cmp(key.D) != 0 {
		t.Fatal("parsed 0x-prefixed key does not match original")
	}
}

func TestParsePrivateKeyRejectsGarbage(t *testing.T) {
	if _, err := parsePrivateKey("not-hex"); err == nil {
		t.Fatal("expected an error for a non-hex key")
	}
}

func TestAcquireReleaseBoundsConcurrency(t *testing.T) {
	c := &Client{sem: make(chan struct{}, 2)}

	ctx := context.Background()
	if err := c.acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.acquire(ctx); err != nil {
		t.Fatal(err)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := c.acquire(ctxTimeout); err == nil {
		t.Fatal("expected acquire to block once the cap is reached")
	}

	c.release()
	if err := c.acquire(ctx); err != nil {
		t.Fatal("expected acquire to succeed after a release")
	}
}
