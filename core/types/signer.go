// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/SipengXie/pangutx/params"
)

// Signature holds the recoverable secp256k1 signature of a transaction.
// V is the recovery id as carried on the wire, 27 or 28.
type Signature struct {
	V uint256.Int
	R uint256.Int
	S uint256.Int
}

// String renders the signature values in hex.
func (s Signature) String() string {
	return fmt.Sprintf("v=%s r=%s s=%s", s.V.Hex(), s.R.Hex(), s.S.Hex())
}

// decodeSignature splits a [R || S || V] signature as produced by crypto.Sign.
func decodeSignature(sig []byte) Signature {
	if len(sig) != crypto.SignatureLength {
		panic(fmt.Sprintf("wrong size for signature: got %d, want %d", len(sig), crypto.SignatureLength))
	}
	var s Signature
	s.R.SetBytes(sig[:32])
	s.S.SetBytes(sig[32:64])
	s.V.SetUint64(uint64(sig[64]) + 27)
	return s
}

// MakeSigner returns a Signer based on the given chain config and block number.
func MakeSigner(config *params.ChainConfig, blockNumber *big.Int) Signer {
	if config.IsHomestead(blockNumber) {
		return HomesteadSigner{}
	}
	return FrontierSigner{}
}

// LatestSigner returns the 'most permissive' Signer available for the given
// chain configuration.
//
// Use this in transaction-handling code where the current block number is
// unknown.
func LatestSigner(config *params.ChainConfig) Signer {
	if config.HomesteadBlock != nil {
		return HomesteadSigner{}
	}
	return FrontierSigner{}
}

// SignNewTx creates a transaction with the given nonce and signs it.
func SignNewTx(s Signer, prv *ecdsa.PrivateKey, nonce *uint256.Int, txdata TxData) (*Transaction, error) {
	tx := NewTx(txdata)
	setU256(&tx.nonce, nonce)
	if err := tx.Sign(s, prv); err != nil {
		return nil, err
	}
	return tx, nil
}

// MustSignNewTx creates a transaction and signs it.
// This panics if the transaction cannot be signed.
func MustSignNewTx(s Signer, prv *ecdsa.PrivateKey, nonce *uint256.Int, txdata TxData) *Transaction {
	tx, err := SignNewTx(s, prv, nonce, txdata)
	if err != nil {
		panic(err)
	}
	return tx
}

// Signer encapsulates the signature scheme of transactions: producing a
// recoverable signature over a digest and recovering the public key again.
//
// Note that this interface is not a stable API and may change at any time to accommodate
// new protocol rules.
type Signer interface {
	// Sign signs digest with prv.
	Sign(digest common.Hash, prv *ecdsa.PrivateKey) (Signature, error)

	// RecoverPubkey returns the 65 byte uncompressed public key that
	// produced sig over digest.
	RecoverPubkey(digest common.Hash, sig Signature) ([]byte, error)

	// Equal returns true if the given signer is the same as the receiver.
	Equal(Signer) bool
}

// HomesteadSigner implements Signer using the homestead rules, which
// additionally reject signatures with s in the upper half of the curve order.
type HomesteadSigner struct{ FrontierSigner }

func (hs HomesteadSigner) Equal(s2 Signer) bool {
	_, ok := s2.(HomesteadSigner)
	return ok
}

func (hs HomesteadSigner) RecoverPubkey(digest common.Hash, sig Signature) ([]byte, error) {
	return recoverPlain(digest, sig, true)
}

// FrontierSigner implements Signer using the frontier rules.
type FrontierSigner struct{}

func (fs FrontierSigner) Equal(s2 Signer) bool {
	_, ok := s2.(FrontierSigner)
	return ok
}

// Sign produces a low-s signature, which both rule sets accept.
func (fs FrontierSigner) Sign(digest common.Hash, prv *ecdsa.PrivateKey) (Signature, error) {
	if prv == nil {
		return Signature{}, errors.New("nil private key")
	}
	sig, err := crypto.Sign(digest[:], prv)
	if err != nil {
		return Signature{}, err
	}
	return decodeSignature(sig), nil
}

func (fs FrontierSigner) RecoverPubkey(digest common.Hash, sig Signature) ([]byte, error) {
	return recoverPlain(digest, sig, false)
}

func recoverPlain(sighash common.Hash, sig Signature, homestead bool) ([]byte, error) {
	if !sig.V.IsUint64() || sig.V.Uint64() < 27 || sig.V.Uint64() > 28 {
		return nil, errors.Wrapf(ErrInvalidSig, "recovery id %s", sig.V.Hex())
	}
	V := byte(sig.V.Uint64() - 27)
	if !crypto.ValidateSignatureValues(V, sig.R.ToBig(), sig.S.ToBig(), homestead) {
		return nil, ErrInvalidSig
	}
	// encode the signature in uncompressed format
	r, s := sig.R.Bytes32(), sig.S.Bytes32()
	raw := make([]byte, crypto.SignatureLength)
	copy(raw[:32], r[:])
	copy(raw[32:64], s[:])
	raw[64] = V
	// recover the public key from the signature
	pub, err := crypto.Ecrecover(sighash[:], raw)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidSig)
	}
	if len(pub) == 0 || pub[0] != 4 {
		return nil, errors.Wrap(ErrInvalidSig, "invalid public key")
	}
	return pub, nil
}

// pubkeyToAddress derives the address of a 65 byte uncompressed key.
func pubkeyToAddress(pub []byte) common.Address {
	var addr common.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	return addr
}
