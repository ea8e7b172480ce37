package types

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	ErrMissingSignature         = errors.New("transaction is not signed")
	ErrInvalidSig               = errors.New("invalid transaction v, r, s values")
	ErrInvalidTransactionFormat = errors.New("invalid transaction format")
	ErrEmptyTransaction         = errors.New("empty transaction")
)

// Kind is derived from the inner data, never stored.
type Kind byte

const (
	KindNoOp Kind = iota
	KindContractCreation
	KindMessageCall
)

func (k Kind) String() string {
	switch k {
	case KindContractCreation:
		return "ContractCreation"
	case KindMessageCall:
		return "MessageCall"
	default:
		return "NoOp"
	}
}

// TxData is the underlying data of a transaction.
//
// This is implemented by CreateTx and CallTx.
type TxData interface {
	kind() Kind
	copy() TxData

	value() *uint256.Int
	gasPrice() *uint256.Int
	gas() *uint256.Int
	to() *common.Address
	data() []byte
}

// Transaction is a legacy value-transfer / contract-invocation instruction.
//
// Apart from the sender cache a Transaction is immutable once signed. Sign
// must not be called concurrently with any other method on the same value.
type Transaction struct {
	inner  TxData
	nonce  uint256.Int
	sig    *Signature
	signer Signer

	// caches
	from atomic.Pointer[common.Address]
}

// NewTx creates an unsigned transaction with a zero nonce. Unsigned
// transactions are only useful for sizing and estimation.
func NewTx(inner TxData) *Transaction {
	tx := new(Transaction)
	tx.inner = inner.copy()
	return tx
}

// NewMessageCall creates an unsigned message call.
func NewMessageCall(value, gasPrice, gas *uint256.Int, to common.Address, data []byte) *Transaction {
	inner := &CallTx{To: to, Data: data}
	setU256(&inner.Value, value)
	setU256(&inner.GasPrice, gasPrice)
	setU256(&inner.Gas, gas)
	return NewTx(inner)
}

// NewContractCreation creates an unsigned contract creation.
func NewContractCreation(value, gasPrice, gas *uint256.Int, data []byte) *Transaction {
	inner := &CreateTx{Data: data}
	setU256(&inner.Value, value)
	setU256(&inner.GasPrice, gasPrice)
	setU256(&inner.Gas, gas)
	return NewTx(inner)
}

// legacyTxRLP is the signed wire layout. Decoding demands all nine items.
type legacyTxRLP struct {
	Nonce    *uint256.Int
	GasPrice *uint256.Int
	Gas      *uint256.Int
	To       *common.Address `rlp:"nil"`
	Value    *uint256.Int
	Data     []byte
	V, R, S  *uint256.Int
}

// Decode parses the canonical signed encoding of a transaction. The kind is
// derived from the destination item: the empty string means creation.
//
// With verify set the sender is recovered immediately and a failure is
// reported as ErrInvalidTransactionFormat; otherwise recovery errors surface
// on the first call to Sender. A nil signer means HomesteadSigner.
func Decode(b []byte, signer Signer, verify bool) (*Transaction, error) {
	if signer == nil {
		signer = HomesteadSigner{}
	}
	var dec legacyTxRLP
	if err := rlp.DecodeBytes(b, &dec); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrInvalidTransactionFormat), "decode transaction")
	}
	tx := new(Transaction)
	if dec.To == nil {
		tx.inner = &CreateTx{Value: *dec.Value, GasPrice: *dec.GasPrice, Gas: *dec.Gas, Data: dec.Data}
	} else {
		tx.inner = &CallTx{To: *dec.To, Value: *dec.Value, GasPrice: *dec.GasPrice, Gas: *dec.Gas, Data: dec.Data}
	}
	tx.nonce = *dec.Nonce
	tx.sig = &Signature{V: *dec.V, R: *dec.R, S: *dec.S}
	tx.signer = signer

	if verify {
		if _, err := tx.Sender(); err != nil {
			return nil, errors.Wrap(errors.Mark(err, ErrInvalidTransactionFormat), "verify sender")
		}
	}
	return tx, nil
}

// MustDecode is like Decode but panics on error.
func MustDecode(b []byte, signer Signer) *Transaction {
	tx, err := Decode(b, signer, true)
	if err != nil {
		panic(err)
	}
	return tx
}

// Sign computes the signature over the unsigned hash and stores it. Signing
// again replaces the signature and drops any cached sender.
func (tx *Transaction) Sign(s Signer, prv *ecdsa.PrivateKey) error {
	if tx.inner == nil {
		return ErrEmptyTransaction
	}
	if s == nil {
		return errors.New("sign transaction: nil signer")
	}
	sig, err := s.Sign(tx.Hash(false), prv)
	if err != nil {
		return errors.Wrap(err, "sign transaction")
	}
	tx.sig, tx.signer = &sig, s
	tx.from.Store(nil)
	return nil
}

// WithSignature returns a copy of tx carrying sig. The signature is not
// checked; Sender reports whether it recovers. A nil s means HomesteadSigner.
func (tx *Transaction) WithSignature(s Signer, sig Signature) *Transaction {
	if s == nil {
		s = HomesteadSigner{}
	}
	cpy := &Transaction{nonce: tx.nonce, signer: s}
	if tx.inner != nil {
		cpy.inner = tx.inner.copy()
	}
	sigCopy := sig
	cpy.sig = &sigCopy
	return cpy
}

// Sender returns the address recovered from the signature. The address is
// cached after the first successful recovery; failures are never cached.
func (tx *Transaction) Sender() (common.Address, error) {
	if from := tx.from.Load(); from != nil {
		return *from, nil
	}
	if tx.sig == nil {
		return common.Address{}, ErrMissingSignature
	}
	if tx.signer == nil {
		return common.Address{}, errors.Wrap(ErrInvalidSig, "no signer bound")
	}
	pub, err := tx.signer.RecoverPubkey(tx.Hash(false), *tx.sig)
	if err != nil {
		return common.Address{}, errors.Mark(err, ErrInvalidSig)
	}
	addr := pubkeyToAddress(pub)
	tx.from.Store(&addr)
	return addr, nil
}

// SafeSender is Sender with every failure mapped to the zero address. It is
// meant for display and logging only.
func (tx *Transaction) SafeSender() common.Address {
	addr, err := tx.Sender()
	if err != nil {
		return common.Address{}
	}
	return addr
}

// Kind returns the transaction kind.
func (tx *Transaction) Kind() Kind {
	if tx.inner == nil {
		return KindNoOp
	}
	return tx.inner.kind()
}

// IsCreation reports whether the transaction has no destination.
func (tx *Transaction) IsCreation() bool { return tx.To() == nil }

// Nonce returns the sender account nonce of the transaction.
func (tx *Transaction) Nonce() *uint256.Int { return tx.nonce.Clone() }

// Value returns the ether amount of the transaction.
func (tx *Transaction) Value() *uint256.Int {
	if tx.inner == nil {
		return new(uint256.Int)
	}
	return tx.inner.value().Clone()
}

// GasPrice returns the gas price of the transaction.
func (tx *Transaction) GasPrice() *uint256.Int {
	if tx.inner == nil {
		return new(uint256.Int)
	}
	return tx.inner.gasPrice().Clone()
}

// Gas returns the gas limit of the transaction.
func (tx *Transaction) Gas() *uint256.Int {
	if tx.inner == nil {
		return new(uint256.Int)
	}
	return tx.inner.gas().Clone()
}

// To returns the recipient address of the transaction.
// For contract-creation transactions, To returns nil.
func (tx *Transaction) To() *common.Address {
	if tx.inner == nil {
		return nil
	}
	return copyAddressPtr(tx.inner.to())
}

// Data returns the input data of the transaction.
func (tx *Transaction) Data() []byte {
	if tx.inner == nil {
		return nil
	}
	return common.CopyBytes(tx.inner.data())
}

// Signature returns the signature values, or nil when unsigned.
func (tx *Transaction) Signature() *Signature {
	if tx.sig == nil {
		return nil
	}
	cpy := *tx.sig
	return &cpy
}

// Signer returns the signer bound at signing or decoding time.
func (tx *Transaction) Signer() Signer { return tx.signer }

// Cost returns value + gas * gasPrice and whether the result overflowed.
func (tx *Transaction) Cost() (*uint256.Int, bool) {
	total, overflow := new(uint256.Int).MulOverflow(tx.Gas(), tx.GasPrice())
	total, addOverflow := total.AddOverflow(total, tx.Value())
	return total, overflow || addOverflow
}

// Equal compares kind, destination (calls only), value and data. Nonce, gas
// price, gas limit and signature do not take part.
func (tx *Transaction) Equal(o *Transaction) bool {
	if tx == nil || o == nil {
		return tx == o
	}
	if tx.Kind() != o.Kind() {
		return false
	}
	if tx.Kind() == KindMessageCall && *tx.inner.to() != *o.inner.to() {
		return false
	}
	return tx.Value().Eq(o.Value()) && bytes.Equal(tx.Data(), o.Data())
}

// rlpFields lists the items in wire order. Signature values follow only if
// requested and present.
func (tx *Transaction) rlpFields(withSig bool) []interface{} {
	fields := []interface{}{&tx.nonce, tx.GasPrice(), tx.Gas(), tx.To(), tx.Value(), tx.Data()}
	if withSig && tx.sig != nil {
		fields = append(fields, &tx.sig.V, &tx.sig.R, &tx.sig.S)
	}
	return fields
}

// EncodeRLP implements rlp.Encoder and writes the signed form.
func (tx *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, tx.rlpFields(true))
}

// RLP returns the canonical encoding, with or without the signature.
func (tx *Transaction) RLP(withSig bool) []byte {
	b, err := rlp.EncodeToBytes(tx.rlpFields(withSig))
	if err != nil {
		panic(fmt.Sprintf("can't encode transaction: %v", err))
	}
	return b
}

// RLPString is RLP as a string.
func (tx *Transaction) RLPString(withSig bool) string { return string(tx.RLP(withSig)) }

// Hash returns the keccak256 hash of the canonical encoding. Hash(false) is
// what gets signed; Hash(true) identifies a signed transaction.
func (tx *Transaction) Hash(withSig bool) common.Hash {
	return rlpHash(tx.rlpFields(withSig))
}

// Size returns the encoded size of the signed form.
func (tx *Transaction) Size() uint64 {
	c := writeCounter(0)
	rlp.Encode(&c, tx.rlpFields(true))
	return uint64(c)
}

// String renders {to/nonce$value+gas@price<-sender #size} for diagnostics.
func (tx *Transaction) String() string {
	var b bytes.Buffer
	b.WriteByte('{')
	if to := tx.To(); to != nil {
		b.WriteString(abridged(*to))
	} else {
		b.WriteString("[CREATE]")
	}
	fmt.Fprintf(&b, "/%s$%s+%s@%s", tx.Nonce().Dec(), tx.Value().Dec(), tx.Gas().Dec(), tx.GasPrice().Dec())
	if from := tx.SafeSender(); from != (common.Address{}) {
		b.WriteString("<-" + abridged(from))
	}
	fmt.Fprintf(&b, " #%d}", len(tx.Data()))
	return b.String()
}

func abridged(a common.Address) string {
	return fmt.Sprintf("%x…", a[:4])
}

// copyAddressPtr copies an address.
func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}

func setU256(dst, src *uint256.Int) {
	if src != nil {
		dst.Set(src)
	}
}
