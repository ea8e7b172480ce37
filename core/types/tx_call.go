package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CallTx is the data of a message call to an existing account.
type CallTx struct {
	To       common.Address
	Value    uint256.Int
	GasPrice uint256.Int
	Gas      uint256.Int
	Data     []byte
}

// copy creates a deep copy of the transaction data.
func (tx *CallTx) copy() TxData {
	cpy := &CallTx{
		To:   tx.To,
		Data: common.CopyBytes(tx.Data),
	}
	cpy.Value.Set(&tx.Value)
	cpy.GasPrice.Set(&tx.GasPrice)
	cpy.Gas.Set(&tx.Gas)
	return cpy
}

func (tx *CallTx) kind() Kind             { return KindMessageCall }
func (tx *CallTx) value() *uint256.Int    { return &tx.Value }
func (tx *CallTx) gasPrice() *uint256.Int { return &tx.GasPrice }
func (tx *CallTx) gas() *uint256.Int      { return &tx.Gas }
func (tx *CallTx) to() *common.Address    { return &tx.To }
func (tx *CallTx) data() []byte           { return tx.Data }
