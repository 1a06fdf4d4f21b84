package contracts

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ERC20MetaData contains the minimal ERC-20 ABI surface this engine reads:
// balanceOf, at the current and at historical block heights.
var ERC20MetaData = bind.MetaData{
	ABI: `[
		{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
	]`,
	ID: "ERC20",
}

// ERC20 is a hand-written Go binding around a plain ERC-20 token contract.
type ERC20 struct {
	abi abi.ABI
}

// NewERC20 parses the ERC-20 ABI and returns a binding.
func NewERC20() *ERC20 {
	parsed, err := ERC20MetaData.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return &ERC20{abi: *parsed}
}

// Instance creates a bound-contract wrapper at the given address.
func (c *ERC20) Instance(backend bind.ContractBackend, addr common.Address) *bind.BoundContract {
	return bind.NewBoundContract(addr, c.abi, backend, backend, backend)
}

// PackBalanceOf packs a call to balanceOf(account).
func (c *ERC20) PackBalanceOf(account common.Address) []byte {
	enc, err := c.abi.Pack("balanceOf", account)
	if err != nil {
		panic(err)
	}
	return enc
}

// UnpackBalanceOf unpacks the result of balanceOf(account).
func (c *ERC20) UnpackBalanceOf(data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack("balanceOf", data)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}
