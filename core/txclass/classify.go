// Package txclass partitions signed transactions into groups that touch
// disjoint accounts.
package txclass

import (
	"bytes"
	"sort"

	"github.com/cockroachdb/errors"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/SipengXie/pangutx/core/types"
)

// TxClass is one transaction with its recovered sender and the accounts it
// touches. ID starts as the list index and ends as the index of the group root.
type TxClass struct {
	Tx       *types.Transaction
	ID       int
	From     common.Address
	Resource mapset.Set[common.Address]
}

// NewTxClassList recovers every sender and collects the accounts each
// transaction touches: the sender, and either the destination or the
// address a creation deploys to.
func NewTxClassList(txs types.Transactions) ([]TxClass, error) {
	classes := make([]TxClass, 0, len(txs))
	for i, tx := range txs {
		from, err := tx.Sender()
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d (%v)", i, tx.Hash(true))
		}
		res := mapset.NewThreadUnsafeSet(from)
		if to := tx.To(); to != nil {
			res.Add(*to)
		} else if nonce := tx.Nonce(); nonce.IsUint64() {
			res.Add(crypto.CreateAddress(from, nonce.Uint64()))
		}
		classes = append(classes, TxClass{Tx: tx, ID: i, From: from, Resource: res})
	}
	return classes, nil
}

// IsConflict reports whether the two sets share an account.
func IsConflict(set1, set2 mapset.Set[common.Address]) bool {
	if set1.Cardinality() > set2.Cardinality() {
		set1, set2 = set2, set1
	}
	conflict := false
	set1.Each(func(a common.Address) bool {
		conflict = set2.Contains(a)
		return conflict
	})
	return conflict
}

// ClassifyTx splits txs into groups that share no account with each other.
// Groups appear in order of their first transaction; inside a group
// transactions are ordered by sender, then nonce.
func ClassifyTx(txs types.Transactions) ([]types.Transactions, error) {
	classes, err := NewTxClassList(txs)
	if err != nil {
		return nil, err
	}
	// Each root owns the merged resources of its group.
	root := func(i int) int {
		for classes[i].ID != i {
			classes[i].ID = classes[classes[i].ID].ID
			i = classes[i].ID
		}
		return i
	}
	for i := range classes {
		for j := 0; j < i; j++ {
			ri, rj := root(i), root(j)
			if ri == rj || !IsConflict(classes[ri].Resource, classes[rj].Resource) {
				continue
			}
			if ri < rj {
				ri, rj = rj, ri
			}
			classes[rj].Resource = classes[rj].Resource.Union(classes[ri].Resource)
			classes[ri].ID = rj
		}
	}

	var (
		order  []int
		groups = make(map[int][]TxClass)
	)
	for i := range classes {
		r := root(i)
		if _, ok := groups[r]; !ok {
			order = append(order, r)
		}
		groups[r] = append(groups[r], classes[i])
	}
	res := make([]types.Transactions, 0, len(order))
	for _, r := range order {
		members := groups[r]
		sort.SliceStable(members, func(i, j int) bool {
			if c := bytes.Compare(members[i].From[:], members[j].From[:]); c != 0 {
				return c < 0
			}
			return members[i].Tx.Nonce().Lt(members[j].Tx.Nonce())
		})
		list := make(types.Transactions, len(members))
		for i, m := range members {
			list[i] = m.Tx
		}
		res = append(res, list)
	}
	return res, nil
}

// GroupBySender buckets txs per sender, each bucket sorted by nonce.
func GroupBySender(txs types.Transactions) (map[common.Address]types.Transactions, error) {
	classes, err := NewTxClassList(txs)
	if err != nil {
		return nil, err
	}
	txMap := make(map[common.Address]types.Transactions)
	for _, c := range classes {
		txMap[c.From] = append(txMap[c.From], c.Tx)
	}
	for _, list := range txMap {
		sort.Stable(types.TxByNonce(list))
	}
	return txMap, nil
}
