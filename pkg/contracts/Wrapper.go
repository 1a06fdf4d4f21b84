package contracts

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// WrapperMetaData contains the ABI surface of the ERC-4626-style Wrapper
// vault this engine needs: share supply/balances and the Deposit event
// used for recipient discovery.
var WrapperMetaData = bind.MetaData{
	ABI: `[
		{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
		{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
		{"type":"event","name":"Deposit","inputs":[{"name":"sender","type":"address","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"assets","type":"uint256","indexed":false},{"name":"shares","type":"uint256","indexed":false}],"anonymous":false}
	]`,
	ID: "Wrapper",
}

// Wrapper is a hand-written Go binding around the Wrapper vault contract.
type Wrapper struct {
	abi abi.ABI
}

// NewWrapper parses the Wrapper ABI and returns a binding.
func NewWrapper() *Wrapper {
	parsed, err := WrapperMetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &Wrapper{abi: *parsed}
}

// Instance creates a bound-contract wrapper at the given address.
func (c *Wrapper) Instance(backend bind.ContractBackend, addr common.Address) *bind.BoundContract {
	return bind.NewBoundContract(addr, c.abi, backend, backend, backend)
}

// PackTotalSupply packs a call to totalSupply().
func (c *Wrapper) PackTotalSupply() []byte {
	enc, err := c.abi.Pack("totalSupply")
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackTotalSupply unpacks the result of totalSupply().
func (c *Wrapper) UnpackTotalSupply(data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack("totalSupply", data)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// PackBalanceOf packs a call to balanceOf(account).
func (c *Wrapper) PackBalanceOf(account common.Address) []byte {
	enc, err := c.abi.Pack("balanceOf", account)
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackBalanceOf unpacks the result of balanceOf(account).
func (c *Wrapper) UnpackBalanceOf(data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack("balanceOf", data)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// WrapperDeposit represents a Deposit event raised by the Wrapper contract.
type WrapperDeposit struct {
	Sender common.Address
	Owner  common.Address
	Assets *big.Int
	Shares *big.Int
	Raw    *types.Log
}

const WrapperDepositEventName = "Deposit"

// ContractEventName returns the user-defined event name.
func (WrapperDeposit) ContractEventName() string {
	return WrapperDepositEventName
}

// EventID returns the topic0 hash identifying the Deposit event.
func (c *Wrapper) EventID() common.Hash {
	return c.abi.Events[WrapperDepositEventName].ID
}

// UnpackDepositEvent unpacks the event data emitted by the contract.
//
// Solidity: event Deposit(address indexed sender, address indexed owner, uint256 assets, uint256 shares)
func (c *Wrapper) UnpackDepositEvent(log *types.Log) (*WrapperDeposit, error) {
	event := WrapperDepositEventName
	if log.Topics[0] != c.abi.Events[event].ID {
		return nil, errors.New("event signature mismatch")
	}
	out := new(WrapperDeposit)
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
