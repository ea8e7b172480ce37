package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CreateTx is the data of a contract creation. Data carries the init code
// and Value the endowment of the new account.
type CreateTx struct {
	Value    uint256.Int
	GasPrice uint256.Int
	Gas      uint256.Int
	Data     []byte
}

// copy creates a deep copy of the transaction data.
func (tx *CreateTx) copy() TxData {
	cpy := &CreateTx{Data: common.CopyBytes(tx.Data)}
	cpy.Value.Set(&tx.Value)
	cpy.GasPrice.Set(&tx.GasPrice)
	cpy.Gas.Set(&tx.Gas)
	return cpy
}

func (tx *CreateTx) kind() Kind             { return KindContractCreation }
func (tx *CreateTx) value() *uint256.Int    { return &tx.Value }
func (tx *CreateTx) gasPrice() *uint256.Int { return &tx.GasPrice }
func (tx *CreateTx) gas() *uint256.Int      { return &tx.Gas }
func (tx *CreateTx) to() *common.Address    { return nil }
func (tx *CreateTx) data() []byte           { return tx.Data }
