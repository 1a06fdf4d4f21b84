// Package contracts holds hand-maintained abigen-shaped bindings for the
// three contracts this engine talks to: the reward Distributor, the
// ERC-4626-style Wrapper, and plain ERC-20 tokens. Each type mirrors the
// shape abigen itself produces (see the teacher's IEpochManager.go) —
// a parsed ABI plus Pack/Unpack helpers driven through a
// bind.BoundContract — but is written by hand since these three ABIs
// are small, stable, and do not change with the lending-specific
// contracts abigen would otherwise be re-run against.
package contracts

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DistributorMetaData contains the ABI for the reward Distributor contract.
var DistributorMetaData = bind.MetaData{
	ABI: `[
		{"type":"function","name":"root","inputs":[],"outputs":[{"name":"","type":"bytes32"}],"stateMutability":"view"},
		{"type":"function","name":"cid","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
		{"type":"function","name":"lastProcessedBlock","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
		{"type":"function","name":"getTokens","inputs":[],"outputs":[{"name":"","type":"address[]"}],"stateMutability":"view"},
		{"type":"function","name":"setMerkleRoot","inputs":[{"name":"root","type":"bytes32"},{"name":"cid","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"claim","inputs":[{"name":"recipient","type":"address"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"merkleProof","type":"bytes32[]"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"event","name":"Claimed","inputs":[{"name":"recipient","type":"address","indexed":true},{"name":"token","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false}
	]`,
	ID: "Distributor",
}

// Distributor is a hand-written Go binding around the Distributor contract.
type Distributor struct {
	abi abi.ABI
}

// NewDistributor parses the Distributor ABI and returns a binding.
func NewDistributor() *Distributor {
	parsed, err := DistributorMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &Distributor{abi: *parsed}
}

// Instance creates a bound-contract wrapper at the given address.
func (c *Distributor) Instance(backend bind.ContractBackend, addr common.Address) *bind.BoundContract {
	return bind.NewBoundContract(addr, c.abi, backend, backend, backend)
}

// PackRoot packs a call to root().
func (c *Distributor) PackRoot() []byte {
	enc, err := c.abi.Pack("root")
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackRoot unpacks the result of root().
func (c *Distributor) UnpackRoot(data []byte) ([32]byte, error) {
	out, err := c.abi.Unpack("root", data)
	if err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

// PackCid packs a call to cid().
func (c *Distributor) PackCid() []byte {
	enc, err := c.abi.Pack("cid")
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackCid unpacks the result of cid().
func (c *Distributor) UnpackCid(data []byte) (string, error) {
	out, err := c.abi.Unpack("cid", data)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// PackLastProcessedBlock packs a call to lastProcessedBlock().
func (c *Distributor) PackLastProcessedBlock() []byte {
	enc, err := c.abi.Pack("lastProcessedBlock")
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackLastProcessedBlock unpacks the result of lastProcessedBlock().
func (c *Distributor) UnpackLastProcessedBlock(data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack("lastProcessedBlock", data)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// PackGetTokens packs a call to getTokens().
func (c *Distributor) PackGetTokens() []byte {
	enc, err := c.abi.Pack("getTokens")
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackGetTokens unpacks the result of getTokens().
func (c *Distributor) UnpackGetTokens(data []byte) ([]common.Address, error) {
	out, err := c.abi.Unpack("getTokens", data)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address), nil
}

// PackSetMerkleRoot packs a call to setMerkleRoot(root, cid).
func (c *Distributor) PackSetMerkleRoot(root [32]byte, cid string) []byte {
	enc, err := c.abi.Pack("setMerkleRoot", root, cid)
	if err != nil {
		panic(err)
	}
	return enc
}

// PackClaim packs a call to claim(recipient, token, amount, proof).
func (c *Distributor) PackClaim(recipient, token common.Address, amount *big.Int, proof [][32]byte) []byte {
	enc, err := c.abi.Pack("claim", recipient, token, amount, proof)
	if err != nil {
		panic(err)
	}
	return enc
}

// DistributorClaimed represents a Claimed event raised by the Distributor contract.
type DistributorClaimed struct {
	Recipient common.Address
	Token     common.Address
	Amount    *big.Int
	Raw       *types.Log
}

const DistributorClaimedEventName = "Claimed"

// ContractEventName returns the user-defined event name.
func (DistributorClaimed) ContractEventName() string {
	return DistributorClaimedEventName
}

// EventID returns the topic0 hash identifying the Claimed event.
func (c *Distributor) EventID() common.Hash {
	return c.abi.Events[DistributorClaimedEventName].ID
}

// UnpackClaimedEvent unpacks the event data emitted by the contract.
//
// Solidity: event Claimed(address indexed recipient, address indexed token, uint256 amount)
func (c *Distributor) UnpackClaimedEvent(log *types.Log) (*DistributorClaimed, error) {
	event := DistributorClaimedEventName
	if log.Topics[0] != c.abi.Events[event].ID {
		return nil, errors.New("event signature mismatch")
	}
	out := new(DistributorClaimed)
	if len(log.Data) > 0 {
		if err := c.abi.UnpackIntoInterface(out, event, log.Data); err != nil {
			return nil, err
		}
	}
	var indexed abi.Arguments
	for _, arg := range c.abi.Events[event].Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopics(out, indexed, log.Topics[1:]); err != nil {
		return nil, err
	}
	out.Raw = log
	return out, nil
}
