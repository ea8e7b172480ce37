package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// txJSON is the JSON representation of transactions.
type txJSON struct {
	Kind     string          `json:"kind"`
	Nonce    *hexutil.Big    `json:"nonce"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Gas      *hexutil.Big    `json:"gas"`
	To       *common.Address `json:"to"`
	Value    *hexutil.Big    `json:"value"`
	Input    hexutil.Bytes   `json:"input"`
	V        *hexutil.Big    `json:"v,omitempty"`
	R        *hexutil.Big    `json:"r,omitempty"`
	S        *hexutil.Big    `json:"s,omitempty"`

	// Only used for encoding:
	Hash common.Hash     `json:"hash"`
	From *common.Address `json:"from,omitempty"`
}

func bigOf(i *uint256.Int) *hexutil.Big {
	return (*hexutil.Big)(i.ToBig())
}

// MarshalJSON marshals as JSON. The sender is included only when it recovers.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	enc := txJSON{
		Kind:     tx.Kind().String(),
		Nonce:    bigOf(tx.Nonce()),
		GasPrice: bigOf(tx.GasPrice()),
		Gas:      bigOf(tx.Gas()),
		To:       tx.To(),
		Value:    bigOf(tx.Value()),
		Input:    tx.Data(),
		Hash:     tx.Hash(true),
	}
	if sig := tx.Signature(); sig != nil {
		enc.V, enc.R, enc.S = bigOf(&sig.V), bigOf(&sig.R), bigOf(&sig.S)
	}
	if from := tx.SafeSender(); from != (common.Address{}) {
		enc.From = &from
	}
	return json.Marshal(&enc)
}
