package types

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Transactions is a Transaction slice type for basic sorting.
type Transactions []*Transaction

// Len returns the length of s.
func (s Transactions) Len() int { return len(s) }

// EncodeIndex encodes the i'th transaction to w. Note that this does not check for errors
// because we assume that *Transaction will only ever contain valid txs that were either
// constructed by decoding or via public API in this package.
func (s Transactions) EncodeIndex(i int, w *bytes.Buffer) {
	rlp.Encode(w, s[i])
}

// Hashes returns the identity hashes of all transactions.
func (s Transactions) Hashes() []common.Hash {
	hashes := make([]common.Hash, len(s))
	for i, tx := range s {
		hashes[i] = tx.Hash(true)
	}
	return hashes
}

// Find returns the transaction with the given identity hash, or nil.
func (s Transactions) Find(hash common.Hash) *Transaction {
	for _, tx := range s {
		if tx.Hash(true) == hash {
			return tx
		}
	}
	return nil
}

// Size returns the encoded size of the list.
func (s Transactions) Size() uint64 {
	c := writeCounter(0)
	rlp.Encode(&c, s)
	return uint64(c)
}

// DecodeTransactions decodes an RLP list of signed transactions. A single
// malformed element fails the whole list.
func DecodeTransactions(b []byte, signer Signer, verify bool) (Transactions, error) {
	var raws []rlp.RawValue
	if err := rlp.DecodeBytes(b, &raws); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrInvalidTransactionFormat), "decode transaction list")
	}
	txs := make(Transactions, 0, len(raws))
	for i, raw := range raws {
		tx, err := Decode(raw, signer, verify)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// TxByNonce implements the sort interface to allow sorting a list of transactions
// by their nonces. This is usually only useful for sorting transactions from a
// single account, otherwise a nonce comparison doesn't make much sense.
type TxByNonce Transactions

func (s TxByNonce) Len() int           { return len(s) }
func (s TxByNonce) Less(i, j int) bool { return s[i].nonce.Lt(&s[j].nonce) }
func (s TxByNonce) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
